// Package service implements the session registry, file table and presence
// operations shared by the API and the sync relay.
package service

import (
	"context"
	"strings"
	"time"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/Laisky/laisky-collab/internal/web/session/dao"
	"github.com/Laisky/laisky-collab/internal/web/session/dto"
	"github.com/Laisky/laisky-collab/internal/web/session/model"
	"github.com/Laisky/laisky-collab/library/log"
)

const (
	defaultListLimit    = 20
	defaultStoreTimeout = 5 * time.Second

	// id generation retries before giving up on collisions
	maxIDRetries = 3
)

var Instance *Type

func Initialize(ctx context.Context) {
	dao.Initialize(ctx)

	var opts []Option
	if d := gconfig.Shared.GetDuration("settings.db.timeout"); d > 0 {
		opts = append(opts, WithStoreTimeout(d))
	}
	if n := gconfig.Shared.GetInt("settings.session.default_limit"); n > 0 {
		opts = append(opts, WithDefaultListLimit(n))
	}

	Instance = New(dao.Instance, NewPresence(), opts...)
}

type Type struct {
	store    *dao.Store
	presence *Presence

	storeTimeout time.Duration
	listLimit    int
}

// Option configures the service.
type Option func(*Type)

// WithStoreTimeout bounds every store call; on expiry the operation fails
// with ErrStoreUnavailable instead of hanging the caller.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Type) { s.storeTimeout = d }
}

// WithDefaultListLimit sets the session list bound used when the caller
// passes none.
func WithDefaultListLimit(n int) Option {
	return func(s *Type) { s.listLimit = n }
}

func New(store *dao.Store, presence *Presence, opts ...Option) *Type {
	s := &Type{
		store:        store,
		presence:     presence,
		storeTimeout: defaultStoreTimeout,
		listLimit:    defaultListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Presence exposes the shared membership structure for the relay.
func (s *Type) Presence() *Presence {
	return s.presence
}

func (s *Type) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// wrapStore passes domain sentinels through untouched and converts store
// timeouts into ErrStoreUnavailable.
func wrapStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, model.ErrFileNotFound):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(model.ErrStoreUnavailable, err.Error())
	default:
		return err
	}
}

func newSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func toSessionResp(session *model.Session) (*dto.SessionResp, error) {
	resp := new(dto.SessionResp)
	if err := copier.Copy(resp, session); err != nil {
		return nil, errors.Wrap(err, "copy session")
	}

	return resp, nil
}

// CreateSession generates a fresh unique id and persists the record.
// Collisions are retried internally, never surfaced.
func (s *Type) CreateSession(ctx context.Context, name string) (*dto.SessionResp, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Wrap(model.ErrInvalidInput, "name is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	for i := 0; i < maxIDRetries; i++ {
		now := time.Now().UTC()
		session := &model.Session{
			ID:           newSessionID(),
			Name:         name,
			CreatedAt:    now,
			LastActivity: now,
		}

		inserted, err := s.store.CreateSession(ctx, session)
		if err != nil {
			return nil, wrapStore(err)
		}
		if !inserted {
			log.Logger.Warn("session id collision, retrying",
				zap.String("id", session.ID))
			continue
		}

		return toSessionResp(session)
	}

	return nil, errors.Errorf("session id collided %d times", maxIDRetries)
}

func (s *Type) GetSession(ctx context.Context, id string) (*dto.SessionResp, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, wrapStore(err)
	}
	s.Touch(id)

	return toSessionResp(session)
}

func (s *Type) ListSessions(ctx context.Context, limit int) (sessions []*dto.SessionResp, err error) {
	if limit <= 0 {
		limit = s.listLimit
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	records, err := s.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, wrapStore(err)
	}

	for _, record := range records {
		resp, err := toSessionResp(record)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, resp)
	}

	return sessions, nil
}

// DeleteSession removes the session with its files, then drops every
// presence entry scoped to it. The presence tombstone is set before the
// members are removed, so a join racing the delete either completes first
// and is dropped here, or observes the tombstone and fails.
func (s *Type) DeleteSession(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.store.DeleteSession(ctx, id); err != nil {
		return wrapStore(err)
	}

	if dropped := s.presence.DropSession(id); len(dropped) > 0 {
		log.Logger.Info("dropped presence of deleted session",
			zap.String("session", id),
			zap.Int("members", len(dropped)))
	}

	return nil
}

// JoinSession verifies the session exists, then registers the connection's
// presence. Returns the other current members for the joiner to render.
func (s *Type) JoinSession(ctx context.Context, sessionID, connID, userName string) ([]model.Member, error) {
	if strings.TrimSpace(userName) == "" {
		return nil, errors.Wrap(model.ErrInvalidInput, "user name is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.store.SessionExists(ctx, sessionID)
	if err != nil {
		return nil, wrapStore(err)
	}
	if !exists {
		return nil, errors.Wrapf(model.ErrSessionNotFound, "session `%s`", sessionID)
	}

	others, err := s.presence.Join(sessionID, connID, userName)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.Touch(sessionID)

	return others, nil
}

// Touch bumps the session's last activity in the background. It is a side
// effect of unrelated operations, so failures are logged, never surfaced.
func (s *Type) Touch(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
		defer cancel()

		if err := s.store.TouchSession(ctx, id, time.Now().UTC()); err != nil {
			log.Logger.Warn("touch session",
				zap.Error(err), zap.String("session", id))
		}
	}()
}
