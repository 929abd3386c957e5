package model

import errors "github.com/Laisky/errors/v2"

// Sentinel errors shared by the dao/service/controller layers,
// compared with errors.Is.
var (
	// ErrSessionNotFound means no session row matches the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrFileNotFound means no file row matches (session id, path).
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidInput means a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable means the backing store timed out or failed.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrAlreadyJoined means the connection is already a member of
	// another session.
	ErrAlreadyJoined = errors.New("connection already joined a session")
)
