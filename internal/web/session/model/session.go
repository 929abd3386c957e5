// Package model defines the session domain records.
package model

import "time"

// Session is a named collaborative workspace owning zero or more files.
type Session struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// File is one stored file row, keyed by (session id, path).
type File struct {
	SessionID    string    `json:"session_id"`
	Path         string    `json:"path"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"last_modified"`
}

// FileInfo is the listing projection of a file, without content.
type FileInfo struct {
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified"`
}

// Member is one live connection's membership within a session.
type Member struct {
	ConnID   string `json:"conn_id"`
	UserName string `json:"user_name"`
}
