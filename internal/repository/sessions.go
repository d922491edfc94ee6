package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
)

func (r *Repository) CreateSession(ctx context.Context, session *domain.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_data, personal_info, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.SessionID,
		nullableJSON(session.UserData),
		nullableJSON(session.PersonalInfo),
		r.dialect.timeArg(session.ExpiresAt),
		r.dialect.timeArg(session.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrSessionExists
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var (
		s            domain.Session
		userData     sql.NullString
		personalInfo sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, user_data, personal_info, expires_at, created_at FROM sessions WHERE session_id = $1`,
		sessionID).Scan(&s.SessionID, &userData, &personalInfo, dbTime{&s.ExpiresAt}, dbTime{&s.CreatedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &store.SessionNotFoundError{SessionID: sessionID}
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	if userData.Valid {
		s.UserData = []byte(userData.String)
	}
	if personalInfo.Valid {
		s.PersonalInfo = []byte(personalInfo.String)
	}
	return &s, nil
}
