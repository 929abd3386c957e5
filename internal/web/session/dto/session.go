// Package dto defines the request/response shapes of the session API.
package dto

import "time"

type CreateSessionReq struct {
	Name string `json:"name" binding:"required"`
}

type SessionResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

type PutFileReq struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

type FileResp struct {
	Path         string    `json:"path"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"last_modified"`
}

type FileInfoResp struct {
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified"`
}
