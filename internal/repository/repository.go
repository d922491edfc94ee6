package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/fjod/storefront/internal/store"
)

// Dialect selects the database/sql driver and the SQL flavour
type Dialect string

const (
	DialectPostgres Dialect = "postgres" // lib/pq
	DialectPgx      Dialect = "pgx"      // jackc/pgx stdlib
	DialectSQLite   Dialect = "sqlite"   // modernc.org/sqlite
)

func (d Dialect) isPostgres() bool {
	return d == DialectPostgres || d == DialectPgx
}

type Credentials struct {
	Dialect           Dialect
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Repository is the SQL storage backend: catalog, sessions, ledger and outbox
type Repository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	log     *slog.Logger
}

var _ store.Backend = (*Repository)(nil)

type RepoInterface interface {
	store.Backend
	OutboxRepository
	RunMigrations(migrationsDir string) error
}

// NewRepository connects to postgres through lib/pq or pgx
func NewRepository(cred *Credentials) (*Repository, error) {
	dialect := cred.Dialect
	if dialect == "" {
		dialect = DialectPostgres
	}
	if !dialect.isPostgres() {
		return nil, fmt.Errorf("unsupported postgres dialect %q", dialect)
	}

	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open(string(dialect), psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db, dialect: dialect, now: time.Now, log: slog.Default()}, nil
}

// SetLogger replaces the logger used for faults that cannot be returned to the caller
func (r *Repository) SetLogger(log *slog.Logger) {
	if log != nil {
		r.log = log
	}
}

// NewSQLiteRepository opens a sqlite database file, or ":memory:"
func NewSQLiteRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite has a single writer; one connection also keeps ":memory:" databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return &Repository{db: db, dialect: DialectSQLite, now: time.Now, log: slog.Default()}, nil
}

func (r *Repository) RunMigrations(migrationsDir string) error {
	var (
		driver database.Driver
		err    error
	)
	name := "postgres"
	if r.dialect == DialectSQLite {
		name = "sqlite"
		driver, err = sqlitemigrate.WithInstance(r.db, &sqlitemigrate.Config{})
	} else {
		driver, err = postgres.WithInstance(r.db, &postgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsDir),
		name,
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Dialect() Dialect {
	return r.dialect
}

func (r *Repository) Close() error {
	return r.db.Close()
}
