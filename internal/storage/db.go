package storage

import (
	"database/sql"
	_ "embed"

	"github.com/zheng/callscope/internal/graph"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// DB wraps the SQLite call-graph cache
type DB struct {
	conn *sql.DB
}

// Open opens or creates a SQLite graph cache at the given path
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, err
	}

	// Initialize schema
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Clear removes all data from the cache
func (db *DB) Clear() error {
	_, err := db.conn.Exec("DELETE FROM call_sites; DELETE FROM calls; DELETE FROM functions;")
	return err
}

// Conn returns the underlying database connection for advanced queries
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func init() {
	graph.RegisterSQLiteLoader(func(path string) (*graph.Graph, error) {
		db, err := Open(path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.LoadGraph()
	})
}
