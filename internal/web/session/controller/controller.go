// Package controller exposes the session API and the sync relay.
package controller

import (
	"context"
	"net/http"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-collab/internal/web/session/model"
	"github.com/Laisky/laisky-collab/internal/web/session/service"
	"github.com/Laisky/laisky-collab/library/log"
)

var Instance *Type

func Initialize(ctx context.Context) {
	service.Initialize(ctx)

	var opts []RelayOption
	if n := gconfig.Shared.GetInt("settings.relay.send_buffer"); n > 0 {
		opts = append(opts, WithSendBuffer(n))
	}

	Instance = New(service.Instance, opts...)
}

type Type struct {
	svc   *service.Type
	Relay *Relay
}

func New(svc *service.Type, relayOpts ...RelayOption) *Type {
	return &Type{
		svc:   svc,
		Relay: NewRelay(svc, relayOpts...),
	}
}

// abortErr maps domain sentinels onto HTTP statuses. Store failures
// surface as a generic 500, details stay in the log.
func abortErr(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, model.ErrFileNotFound):
		ctx.AbortWithStatusJSON(http.StatusNotFound,
			gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidInput):
		ctx.AbortWithStatusJSON(http.StatusBadRequest,
			gin.H{"error": err.Error()})
	default:
		log.Logger.Error("session api",
			zap.Error(err), zap.String("path", ctx.FullPath()))
		ctx.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "internal error"})
	}
}
