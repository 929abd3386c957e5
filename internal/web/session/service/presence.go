package service

import (
	"sync"

	errors "github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-collab/internal/web/session/model"
)

// Presence tracks which live connections belong to which session. It is
// process-local by design: membership reconstructs itself as clients
// reconnect after a restart.
//
// One mutex guards all three maps so that a join snapshot, a leave and a
// session cascade-delete are mutually atomic.
type Presence struct {
	mu sync.Mutex
	// rooms: session id -> conn id -> member
	rooms map[string]map[string]model.Member
	// conns: conn id -> session id, at most one entry per connection
	conns map[string]string
	// deleted: tombstones of cascade-deleted session ids; set before the
	// members are dropped so a racing join cannot re-populate the room.
	// Ids are random tokens and never reused, so this only grows with
	// actual deletes.
	deleted map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{
		rooms:   make(map[string]map[string]model.Member),
		conns:   make(map[string]string),
		deleted: make(map[string]struct{}),
	}
}

// Join adds the connection to the session's member set and returns the
// other current members, snapshotted after the insert. Re-joining the same
// session is idempotent (the display name is refreshed); joining a second
// session without leaving fails with ErrAlreadyJoined.
func (p *Presence) Join(sessionID, connID, userName string) ([]model.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.deleted[sessionID]; ok {
		return nil, errors.Wrapf(model.ErrSessionNotFound,
			"session `%s` deleted", sessionID)
	}

	if prior, ok := p.conns[connID]; ok && prior != sessionID {
		return nil, errors.Wrapf(model.ErrAlreadyJoined,
			"conn `%s` already in session `%s`", connID, prior)
	}

	room := p.rooms[sessionID]
	if room == nil {
		room = make(map[string]model.Member)
		p.rooms[sessionID] = room
	}
	room[connID] = model.Member{ConnID: connID, UserName: userName}
	p.conns[connID] = sessionID

	others := make([]model.Member, 0, len(room)-1)
	for id, m := range room {
		if id == connID {
			continue
		}
		others = append(others, m)
	}

	return others, nil
}

// Leave removes the connection from whichever session it belonged to and
// reports the prior membership. No-op when the connection never joined.
func (p *Presence) Leave(connID string) (member model.Member, sessionID string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sessionID, ok = p.conns[connID]
	if !ok {
		return member, "", false
	}

	member = p.rooms[sessionID][connID]
	delete(p.rooms[sessionID], connID)
	if len(p.rooms[sessionID]) == 0 {
		delete(p.rooms, sessionID)
	}
	delete(p.conns, connID)

	return member, sessionID, true
}

// Lookup resolves the connection's current membership without mutating it.
func (p *Presence) Lookup(connID string) (member model.Member, sessionID string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sessionID, ok = p.conns[connID]
	if !ok {
		return member, "", false
	}

	return p.rooms[sessionID][connID], sessionID, true
}

func (p *Presence) MembersOf(sessionID string) []model.Member {
	p.mu.Lock()
	defer p.mu.Unlock()

	members := make([]model.Member, 0, len(p.rooms[sessionID]))
	for _, m := range p.rooms[sessionID] {
		members = append(members, m)
	}

	return members
}

// DropSession tombstones the session and removes all of its members,
// returning them so the caller can tear down their broadcast state.
func (p *Presence) DropSession(sessionID string) []model.Member {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.deleted[sessionID] = struct{}{}

	room := p.rooms[sessionID]
	members := make([]model.Member, 0, len(room))
	for connID, m := range room {
		members = append(members, m)
		delete(p.conns, connID)
	}
	delete(p.rooms, sessionID)

	return members
}
