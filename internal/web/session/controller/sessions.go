package controller

import (
	"net/http"
	"strconv"

	errors "github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-collab/internal/web/session/dto"
	"github.com/Laisky/laisky-collab/internal/web/session/model"
)

func (c *Type) CreateSession(ctx *gin.Context) {
	req := new(dto.CreateSessionReq)
	if err := ctx.ShouldBindJSON(req); err != nil {
		abortErr(ctx, errors.Wrap(model.ErrInvalidInput, err.Error()))
		return
	}

	session, err := c.svc.CreateSession(ctx.Request.Context(), req.Name)
	if err != nil {
		abortErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, session)
}

func (c *Type) GetSession(ctx *gin.Context) {
	session, err := c.svc.GetSession(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		abortErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, session)
}

func (c *Type) ListSessions(ctx *gin.Context) {
	var limit int
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortErr(ctx, errors.Wrapf(model.ErrInvalidInput,
				"invalid limit `%s`", raw))
			return
		}
		limit = n
	}

	sessions, err := c.svc.ListSessions(ctx.Request.Context(), limit)
	if err != nil {
		abortErr(ctx, err)
		return
	}
	if sessions == nil {
		sessions = []*dto.SessionResp{}
	}

	ctx.JSON(http.StatusOK, sessions)
}

func (c *Type) DeleteSession(ctx *gin.Context) {
	if err := c.svc.DeleteSession(ctx.Request.Context(), ctx.Param("id")); err != nil {
		abortErr(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (c *Type) PutFile(ctx *gin.Context) {
	req := new(dto.PutFileReq)
	if err := ctx.ShouldBindJSON(req); err != nil {
		abortErr(ctx, errors.Wrap(model.ErrInvalidInput, err.Error()))
		return
	}

	err := c.svc.PutFile(ctx.Request.Context(),
		ctx.Param("id"), req.Path, req.Content)
	if err != nil {
		abortErr(ctx, err)
		return
	}

	ctx.Status(http.StatusOK)
}

func (c *Type) GetFile(ctx *gin.Context) {
	file, err := c.svc.GetFile(ctx.Request.Context(),
		ctx.Param("id"), ctx.Query("path"))
	if err != nil {
		abortErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, file)
}

func (c *Type) ListFiles(ctx *gin.Context) {
	files, err := c.svc.ListFiles(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		abortErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, files)
}
