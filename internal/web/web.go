package web

import (
	"context"

	"github.com/Laisky/laisky-collab/internal/web/session/controller"
)

type Controllor struct{}

func NewControllor() *Controllor {
	return &Controllor{}
}

func (c *Controllor) Run(ctx context.Context, addr string) {
	controller.Initialize(ctx)

	RunServer(addr, controller.Instance)
}
