package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// Database configuration constants.
const (
	// driverName is the database/sql driver registered by go-sqlite3.
	driverName = "sqlite3"

	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second
)

// DB is the process-wide handle on the gateway's SQLite file.
//
// It never keeps idle connections: every Session opens a fresh SQLite
// connection and closes it on release, so no two requests share a
// connection or its installed functions.
type DB struct {
	*sqlx.DB
	path string
}

// Config contains database configuration options.
// These map to the database section of the config file.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// The directory will be created if it doesn't exist.
	Path string

	// WALMode enables Write-Ahead Logging for better concurrent access.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	// Concurrent requests rely on it instead of any locking in the gateway.
	BusyTimeout int
}

// Open prepares the database handle with the specified configuration.
//
// It performs the following setup:
//  1. Creates the database directory if it doesn't exist
//  2. Opens the database file (creates if not present)
//  3. Configures WAL mode, busy timeout and foreign keys in the DSN
//  4. Disables connection reuse (scoped sessions only)
//  5. Verifies the connection with a ping and sets file permissions (0600)
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlxDB, err := sqlx.Open(driverName, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Sessions are scoped to one request; nothing is pooled between them.
	sqlxDB.SetMaxIdleConns(0)

	db := &DB{
		DB:   sqlxDB,
		path: cfg.Path,
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		sqlxDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // File may be created lazily by SQLite

	return db, nil
}

// DSN builds the go-sqlite3 connection string for cfg.
// See: https://github.com/mattn/go-sqlite3#connection-string
func DSN(cfg Config) string {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return dsn
}

// Close closes the database handle.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the database file.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck verifies the database is accessible and functioning.
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Stats returns database connection statistics.
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// Session is one scoped SQLite connection.
// It must be closed on every exit path; closing discards the connection.
type Session struct {
	*sqlx.Conn
}

// Session acquires a fresh dedicated connection to the database file.
func (db *DB) Session(ctx context.Context) (*Session, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return &Session{Conn: conn}, nil
}

// WithDriverConn runs fn against the underlying go-sqlite3 connection.
// It is how per-session state such as SQL functions is installed.
func (s *Session) WithDriverConn(fn func(conn *sqlite3.SQLiteConn) error) error {
	return s.Raw(func(driverConn any) error {
		conn, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("%w: got %T", ErrNotSQLite, driverConn)
		}
		return fn(conn)
	})
}

// Close releases the connection.
func (s *Session) Close() error {
	if err := s.Conn.Close(); err != nil {
		return fmt.Errorf("releasing connection: %w", err)
	}
	return nil
}
