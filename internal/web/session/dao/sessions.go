package dao

import (
	"context"
	"database/sql"
	"time"

	errors "github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-collab/internal/web/session/model"
)

// CreateSession inserts the session row. Returns false without error when
// another row already holds the same id, so the caller can retry with a
// fresh token.
func (s *Store) CreateSession(ctx context.Context, session *model.Session) (inserted bool, err error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, name, created_at, last_activity)
		 VALUES (?, ?, ?, ?)`,
		session.ID, session.Name, session.CreatedAt, session.LastActivity)
	if err != nil {
		return false, errors.Wrapf(err, "insert session `%s`", session.ID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}

	return n > 0, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*model.Session, error) {
	session := new(model.Session)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, last_activity FROM sessions WHERE id = ?`, id).
		Scan(&session.ID, &session.Name, &session.CreatedAt, &session.LastActivity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.WithStack(model.ErrSessionNotFound)
		}
		return nil, errors.Wrapf(err, "query session `%s`", id)
	}

	return session, nil
}

func (s *Store) SessionExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrapf(err, "query session `%s`", id)
	}

	return true, nil
}

func (s *Store) ListSessions(ctx context.Context, limit int) (sessions []*model.Session, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, last_activity FROM sessions
		 ORDER BY last_activity DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query sessions")
	}
	defer rows.Close()

	for rows.Next() {
		session := new(model.Session)
		if err = rows.Scan(&session.ID, &session.Name,
			&session.CreatedAt, &session.LastActivity); err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate sessions")
	}

	return sessions, nil
}

// DeleteSession removes the session row and all of its file rows in one
// transaction, so a crash cannot leave files without an owning session.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM files WHERE session_id = ?`, id); err != nil {
		return errors.Wrapf(err, "delete files of session `%s`", id)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "delete session `%s`", id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.WithStack(model.ErrSessionNotFound)
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit delete")
	}

	return nil
}

func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity = ? WHERE id = ?`, at, id)
	if err != nil {
		return errors.Wrapf(err, "touch session `%s`", id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.WithStack(model.ErrSessionNotFound)
	}

	return nil
}
