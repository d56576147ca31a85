package db

import (
	"embed"
	"fmt"

	_ "github.com/tfkr-ae/showcase/db/migrations"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql migrations/*.go
var embedMigrations embed.FS

const (
	// DefaultQuota mirrors the usual per-origin local storage quota of browsers.
	DefaultQuota int64 = 5 * 1024 * 1024
	// DefaultCompressThreshold is the value size above which values are compressed at rest.
	DefaultCompressThreshold = 4096
)

// Repository provides a centralized structure for database operations, embedding the database connection.
// It implements the domain.KVRepository interface.
type Repository struct {
	dbConn            *sqlx.DB // dbConn is the active database connection pool.
	quota             int64    // quota is the maximum logical size of the store, <= 0 disables the check.
	compressThreshold int      // compressThreshold is the value size at which compression kicks in.
}

// NewStorageRepo initializes a new Repository with the given sqlx.DB database connection.
func NewStorageRepo(db *sqlx.DB, options ...func(*Repository)) *Repository {
	repo := &Repository{
		dbConn:            db,
		quota:             DefaultQuota,
		compressThreshold: DefaultCompressThreshold,
	}
	for _, option := range options {
		option(repo)
	}
	return repo
}

// WithQuota sets the maximum logical size of the store in bytes. A value <= 0 disables the quota.
func WithQuota(bytes int64) func(*Repository) {
	return func(repo *Repository) {
		repo.quota = bytes
	}
}

// WithCompressThreshold sets the value size above which values are brotli-compressed at rest.
func WithCompressThreshold(bytes int) func(*Repository) {
	return func(repo *Repository) {
		repo.compressThreshold = bytes
	}
}

// Close terminates the database connection.
// It is critical to call this to free up database resources.
func (repo *Repository) Close() error {
	err := repo.dbConn.Close()
	if err != nil {
		return fmt.Errorf("closing repo : %w", err)
	}
	return nil
}

// New establishes a new connection to a SQLite database file and applies all pending migrations.
// It configures the connection for WAL mode so that several stores can share one file.
//
// The `name` parameter should be the file path for the SQLite database.
//
// It returns a ready-to-use sqlx.DB connection pool or an error if the connection or migrations fail.
func New(name string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", name))
	if err != nil {
		return nil, fmt.Errorf("connecting to db : %w", err)
	}

	db.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting dialect for migrations : %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migration : %w", err)
	}
	return db, nil
}
