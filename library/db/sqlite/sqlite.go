// Package sqlite opens the backing sqlite database.
package sqlite

import (
	"database/sql"

	errors "github.com/Laisky/errors/v2"
	_ "github.com/mattn/go-sqlite3"
)

// Open opens (or creates) the sqlite database at dbPath.
//
// sqlite serializes writers internally; a single connection avoids
// SQLITE_BUSY under concurrent relay and API writes.
func Open(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		return nil, errors.New("db path cannot be empty")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite db `%s`", dbPath)
	}
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping sqlite db `%s`", dbPath)
	}

	return db, nil
}
