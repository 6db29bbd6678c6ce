package db

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Joshua-96/MVG-tracker/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps the SQLite database behind the persistence sink and the
// registry queries.
type Store struct {
	conn      *sqlx.DB
	tables    config.Tables
	backupDir string
	logger    *log.Logger
}

// Connect opens the SQLite database with WAL mode enabled.
func Connect(cfg config.Config, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	dsn := cfg.DatabasePath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time; the scheduler is the only
	// writer, so a single connection is enough.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.Printf("Warning: failed to set %s: %v", pragma, err)
		}
	}

	logger.Printf("Connected to SQLite database: %s", cfg.DatabasePath)
	return &Store{
		conn:      conn,
		tables:    cfg.Tables,
		backupDir: cfg.BackupDir,
		logger:    logger,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying handle, for tests and seed tooling.
func (s *Store) Conn() *sqlx.DB {
	return s.conn
}

// EnsureSchema creates the tables if they don't exist, from the embedded
// schema.sql.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.logger.Println("Database schema ensured")
	return nil
}
