// Package database provides SQLite-backed zone storage for TrieDNS.
//
// The database holds the records served by the authoritative store, one row
// per (name, type). The schema is managed with versioned migrations embedded
// in the binary and applied on Open.
//
// Zone Version Tracking:
// Every modification to zone_records increments a global version counter
// via SQLite triggers. The API reports it so clients can tell whether the
// stored zone changed since they last looked.
package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps a SQLite database connection with thread-safe operations.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex // Protects zone reads/writes
}

// Open opens or creates a SQLite database at the given path and brings its
// schema up to date.
func Open(path string) (*DB, error) {
	// WAL lets the API read while an import writes
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	if err := migrateUp(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// GetVersion returns the current zone version.
// This version increments on every modification (via triggers).
func (db *DB) GetVersion() (int64, error) {
	var version int64
	err := db.conn.QueryRow("SELECT version FROM zone_version WHERE id = 1").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get zone version: %w", err)
	}
	return version, nil
}

// Health checks database connectivity.
func (db *DB) Health() error {
	return db.conn.Ping()
}
