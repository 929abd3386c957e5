package service

import (
	"context"
	"strings"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-collab/internal/web/session/dto"
	"github.com/Laisky/laisky-collab/internal/web/session/model"
	"github.com/Laisky/laisky-collab/library/log"
)

func validateFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.Wrap(model.ErrInvalidInput, "path is required")
	}
	if strings.ContainsRune(path, '\x00') {
		return errors.Wrap(model.ErrInvalidInput, "path contains NUL")
	}

	return nil
}

// PutFile upserts the file keyed by (session id, path). Last write wins:
// there is no merge and no conflict signal, the durable content is that of
// whichever writer's statement completes last. The dao guards the write on
// session existence atomically, so a concurrent session delete yields
// ErrSessionNotFound instead of an orphan row.
func (s *Type) PutFile(ctx context.Context, sessionID, path, content string) error {
	if err := validateFilePath(path); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	if err := s.store.UpsertFile(ctx, sessionID, path, content, now); err != nil {
		return wrapStore(err)
	}

	// write already has the ctx in hand, bump activity inline
	if err := s.store.TouchSession(ctx, sessionID, now); err != nil {
		log.Logger.Warn("touch session after file write",
			zap.Error(err), zap.String("session", sessionID))
	}

	return nil
}

func (s *Type) GetFile(ctx context.Context, sessionID, path string) (*dto.FileResp, error) {
	if err := validateFilePath(path); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	file, err := s.store.GetFile(ctx, sessionID, path)
	if err != nil {
		return nil, wrapStore(err)
	}
	s.Touch(sessionID)

	return &dto.FileResp{
		Path:         file.Path,
		Content:      file.Content,
		LastModified: file.LastModified,
	}, nil
}

// ListFiles returns the session's files ordered by path. An existing
// session with no files yields an empty list, a missing session an error.
func (s *Type) ListFiles(ctx context.Context, sessionID string) (files []*dto.FileInfoResp, err error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.store.SessionExists(ctx, sessionID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if !exists {
		return nil, errors.Wrapf(model.ErrSessionNotFound, "session `%s`", sessionID)
	}

	records, err := s.store.ListFiles(ctx, sessionID)
	if err != nil {
		return nil, wrapStore(err)
	}

	files = make([]*dto.FileInfoResp, 0, len(records))
	for _, record := range records {
		files = append(files, &dto.FileInfoResp{
			Path:         record.Path,
			LastModified: record.LastModified,
		})
	}

	return files, nil
}
