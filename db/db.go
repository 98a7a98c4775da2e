package db

import (
	"database/sql"
	"errors"
	"log"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotInitialized is returned when the catalog database is used before Init
var ErrNotInitialized = errors.New("catalog database not initialized")

var (
	mu   sync.RWMutex
	conn *sql.DB
)

// Init opens the sqlite catalog database. Calling it again after a
// successful open is a no-op.
func Init(databaseURL string) error {
	mu.Lock()
	defer mu.Unlock()

	if conn != nil {
		return nil
	}

	d, err := sql.Open("sqlite3", databaseURL)
	if err != nil {
		log.Printf("[db] Failed to open catalog database %s: %v", databaseURL, err)
		return err
	}
	if err := d.Ping(); err != nil {
		log.Printf("[db] Failed to ping catalog database %s: %v", databaseURL, err)
		d.Close()
		return err
	}

	conn = d
	log.Printf("[db] Catalog database ready: %s", databaseURL)
	return nil
}

// Get returns the open connection or ErrNotInitialized
func Get() (*sql.DB, error) {
	mu.RLock()
	defer mu.RUnlock()
	if conn == nil {
		return nil, ErrNotInitialized
	}
	return conn, nil
}

// SetForTesting swaps the connection, typically for a sqlmock handle
func SetForTesting(database *sql.DB) {
	mu.Lock()
	defer mu.Unlock()
	conn = database
}

// Close closes the connection if one is open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	conn = nil
	return err
}

// Query executes a query that returns rows
func Query(query string, args ...any) (*sql.Rows, error) {
	d, err := Get()
	if err != nil {
		return nil, err
	}
	return d.Query(query, args...)
}

// Exec executes a statement that doesn't return rows
func Exec(query string, args ...any) (sql.Result, error) {
	d, err := Get()
	if err != nil {
		return nil, err
	}
	return d.Exec(query, args...)
}

// Begin starts a new transaction
func Begin() (*sql.Tx, error) {
	d, err := Get()
	if err != nil {
		return nil, err
	}
	return d.Begin()
}
