package dto

import "encoding/json"

// Inbound relay event names.
const (
	EventJoinSession  = "join-session"
	EventCodeChange   = "code-change"
	EventCursorChange = "cursor-change"
)

// Outbound relay event names.
const (
	EventCurrentUsers = "current-users"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventCodeUpdate   = "code-update"
	EventCursorUpdate = "cursor-update"
)

// Envelope is the wire frame of every relay event; Data holds the
// event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinSessionData struct {
	SessionID string `json:"sessionId"`
	UserName  string `json:"userName"`
}

type CodeChangeData struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Content   string `json:"content"`
}

type CursorChangeData struct {
	SessionID string          `json:"sessionId"`
	Position  json.RawMessage `json:"position"`
}

type UserData struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type CurrentUsersData struct {
	SessionID string     `json:"sessionId"`
	Users     []UserData `json:"users"`
}

type CodeUpdateData struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

type CursorUpdateData struct {
	UserID   string          `json:"userId"`
	UserName string          `json:"userName"`
	Position json.RawMessage `json:"position"`
}
