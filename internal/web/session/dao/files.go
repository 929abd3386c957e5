package dao

import (
	"context"
	"database/sql"
	"time"

	errors "github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-collab/internal/web/session/model"
)

// UpsertFile inserts or overwrites the file row keyed by (session id,
// path). The session-existence guard is part of the same statement, so a
// session delete racing the write cannot leave an orphan file row; a write
// that loses that race fails with ErrSessionNotFound. Single statement, so
// the durable winner between racing writers is whichever statement
// executes last.
func (s *Store) UpsertFile(ctx context.Context,
	sessionID, path, content string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO files (session_id, path, content, last_modified)
		 SELECT ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ?)
		 ON CONFLICT (session_id, path) DO UPDATE SET
		   content = excluded.content,
		   last_modified = excluded.last_modified`,
		sessionID, path, content, at, sessionID)
	if err != nil {
		return errors.Wrapf(err, "upsert file `%s` of session `%s`", path, sessionID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrapf(model.ErrSessionNotFound, "session `%s`", sessionID)
	}

	return nil
}

func (s *Store) GetFile(ctx context.Context, sessionID, path string) (*model.File, error) {
	file := &model.File{
		SessionID: sessionID,
		Path:      path,
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT content, last_modified FROM files
		 WHERE session_id = ? AND path = ?`, sessionID, path).
		Scan(&file.Content, &file.LastModified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.WithStack(model.ErrFileNotFound)
		}
		return nil, errors.Wrapf(err, "query file `%s` of session `%s`", path, sessionID)
	}

	return file, nil
}

func (s *Store) ListFiles(ctx context.Context, sessionID string) (files []*model.FileInfo, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, last_modified FROM files
		 WHERE session_id = ? ORDER BY path`, sessionID)
	if err != nil {
		return nil, errors.Wrapf(err, "query files of session `%s`", sessionID)
	}
	defer rows.Close()

	for rows.Next() {
		info := new(model.FileInfo)
		if err = rows.Scan(&info.Path, &info.LastModified); err != nil {
			return nil, errors.Wrap(err, "scan file")
		}
		files = append(files, info)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate files")
	}

	return files, nil
}
