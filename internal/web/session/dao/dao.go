// Package dao implements the session store on sqlite.
package dao

import (
	"context"
	"database/sql"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-collab/library/db/sqlite"
	"github.com/Laisky/laisky-collab/library/log"
)

var Instance *Store

func Initialize(ctx context.Context) {
	db, err := sqlite.Open(gconfig.Shared.GetString("settings.db.path"))
	if err != nil {
		log.Logger.Panic("open store db", zap.Error(err))
	}

	if Instance, err = NewStore(db); err != nil {
		log.Logger.Panic("setup store", zap.Error(err))
	}
}

// Store persists sessions and files. Presence is deliberately not here,
// it is connection-lifetime state owned by the service layer.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	s := &Store{db: db}
	if err := s.setup(); err != nil {
		return nil, errors.Wrap(err, "setup store")
	}

	return s, nil
}

func (s *Store) setup() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  last_activity TIMESTAMP NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS files (
  session_id TEXT NOT NULL,
  path TEXT NOT NULL,
  content TEXT NOT NULL,
  last_modified TIMESTAMP NOT NULL,
  PRIMARY KEY (session_id, path)
)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_last_activity
  ON sessions (last_activity DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "create table")
		}
	}

	return nil
}
