package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
)

const sessionPoolSize = 20

// ConnectMongoDB opens the session database and fails unless the primary answers a ping
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetAppName("storefront-sessions").
		SetMaxPoolSize(sessionPoolSize).
		SetServerSelectionTimeout(5*time.Second).
		SetTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect session store: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping session store: %w", err)
	}
	return client.Database(database), nil
}

// sessionDocument keeps JSON payloads as strings so documents stay readable in the shell
type sessionDocument struct {
	SessionID    string    `bson:"session_id"`
	UserData     string    `bson:"user_data,omitempty"`
	PersonalInfo string    `bson:"personal_info,omitempty"`
	ExpiresAt    time.Time `bson:"expires_at"`
	CreatedAt    time.Time `bson:"created_at"`
}

// MongoSessionStore keeps sessions in a mongo collection
type MongoSessionStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

var _ store.SessionStore = (*MongoSessionStore)(nil)

func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{
		collection: db.Collection("sessions"),
		now:        time.Now,
	}
}

func (m *MongoSessionStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var doc sessionDocument
	err := m.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &store.SessionNotFoundError{SessionID: sessionID}
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session := &domain.Session{
		SessionID: doc.SessionID,
		ExpiresAt: doc.ExpiresAt.UTC(),
		CreatedAt: doc.CreatedAt.UTC(),
	}
	if doc.UserData != "" {
		session.UserData = []byte(doc.UserData)
	}
	if doc.PersonalInfo != "" {
		session.PersonalInfo = []byte(doc.PersonalInfo)
	}
	return session, nil
}

func (m *MongoSessionStore) CreateSession(ctx context.Context, session *domain.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = m.now().UTC()
	}

	_, err := m.collection.InsertOne(ctx, sessionDocument{
		SessionID:    session.SessionID,
		UserData:     string(session.UserData),
		PersonalInfo: string(session.PersonalInfo),
		ExpiresAt:    session.ExpiresAt,
		CreatedAt:    session.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrSessionExists
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// CreateIndexes makes session ids unique. Expired sessions are kept, as in the SQL and memory stores.
func (m *MongoSessionStore) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
