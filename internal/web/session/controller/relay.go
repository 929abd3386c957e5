package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	errors "github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Laisky/laisky-collab/internal/web/session/dto"
	"github.com/Laisky/laisky-collab/internal/web/session/service"
	"github.com/Laisky/laisky-collab/library/log"
)

const defaultSendBuffer = 64

// Relay fans edit/presence events out between the live connections of a
// session. Event failures are logged and dropped; they never terminate the
// connection or the broadcast group.
type Relay struct {
	svc        *service.Type
	upgrader   websocket.Upgrader
	sendBuffer int

	mu      sync.Mutex
	clients map[string]*client
}

// RelayOption configures the relay.
type RelayOption func(*Relay)

// WithSendBuffer sets the per-connection outbound queue length. A consumer
// that falls further behind loses messages instead of blocking the group.
func WithSendBuffer(n int) RelayOption {
	return func(r *Relay) { r.sendBuffer = n }
}

func NewRelay(svc *service.Type, opts ...RelayOption) *Relay {
	r := &Relay{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// sessions carry no auth, any origin may connect
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sendBuffer: defaultSendBuffer,
		clients:    make(map[string]*client),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// HandleWS upgrades the request and serves the connection until the peer
// goes away. One goroutine reads (this handler), one drains the send queue.
func (r *Relay) HandleWS(ctx *gin.Context) {
	conn, err := r.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Logger.Warn("upgrade websocket", zap.Error(err))
		return
	}

	c := newClient(uuid.NewString(), conn, r.sendBuffer)
	r.register(c)
	go c.writePump()

	defer func() {
		r.disconnect(c)
		c.close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Logger.Debug("read websocket",
					zap.Error(err), zap.String("conn", c.id))
			}
			return
		}

		r.dispatch(c, raw)
	}
}

func (r *Relay) register(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.id] = c
}

func (r *Relay) unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, connID)
}

func (r *Relay) client(connID string) (*client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[connID]
	return c, ok
}

// dispatch routes one inbound frame. Every failure degrades to a no-op for
// that event.
func (r *Relay) dispatch(c *client, raw []byte) {
	envelope := new(dto.Envelope)
	if err := json.Unmarshal(raw, envelope); err != nil {
		log.Logger.Warn("malformed relay frame",
			zap.Error(err), zap.String("conn", c.id))
		return
	}

	var err error
	switch envelope.Event {
	case dto.EventJoinSession:
		err = r.handleJoin(c, envelope.Data)
	case dto.EventCodeChange:
		err = r.handleCodeChange(c, envelope.Data)
	case dto.EventCursorChange:
		err = r.handleCursorChange(c, envelope.Data)
	default:
		log.Logger.Warn("unknown relay event",
			zap.String("event", envelope.Event), zap.String("conn", c.id))
		return
	}

	if err != nil {
		log.Logger.Warn("relay event",
			zap.Error(err),
			zap.String("event", envelope.Event),
			zap.String("conn", c.id))
	}
}

func (r *Relay) handleJoin(c *client, raw json.RawMessage) error {
	data := new(dto.JoinSessionData)
	if err := json.Unmarshal(raw, data); err != nil {
		return errors.Wrap(err, "unmarshal join-session")
	}

	others, err := r.svc.JoinSession(context.Background(),
		data.SessionID, c.id, data.UserName)
	if err != nil {
		return errors.WithStack(err)
	}

	users := make([]dto.UserData, 0, len(others))
	for _, m := range others {
		users = append(users, dto.UserData{
			UserID:   m.ConnID,
			UserName: m.UserName,
		})
	}
	r.send(c, dto.EventCurrentUsers, &dto.CurrentUsersData{
		SessionID: data.SessionID,
		Users:     users,
	})

	r.broadcast(data.SessionID, c.id, dto.EventUserJoined, &dto.UserData{
		UserID:   c.id,
		UserName: data.UserName,
	})

	return nil
}

func (r *Relay) handleCodeChange(c *client, raw json.RawMessage) error {
	data := new(dto.CodeChangeData)
	if err := json.Unmarshal(raw, data); err != nil {
		return errors.Wrap(err, "unmarshal code-change")
	}

	// best-effort persistence: the broadcast proceeds even when the write
	// fails, the sender gets no ack either way
	if err := r.svc.PutFile(context.Background(),
		data.SessionID, data.Path, data.Content); err != nil {
		log.Logger.Warn("persist code-change",
			zap.Error(err),
			zap.String("session", data.SessionID),
			zap.String("path", data.Path))
	}

	r.broadcast(data.SessionID, c.id, dto.EventCodeUpdate, &dto.CodeUpdateData{
		Path:    data.Path,
		Content: data.Content,
		Sender:  c.id,
	})

	return nil
}

func (r *Relay) handleCursorChange(c *client, raw json.RawMessage) error {
	data := new(dto.CursorChangeData)
	if err := json.Unmarshal(raw, data); err != nil {
		return errors.Wrap(err, "unmarshal cursor-change")
	}

	member, sessionID, ok := r.svc.Presence().Lookup(c.id)
	if !ok {
		return errors.Errorf("conn `%s` sent cursor before joining", c.id)
	}
	if data.SessionID != sessionID {
		log.Logger.Warn("cursor-change claims foreign session",
			zap.String("conn", c.id),
			zap.String("claimed", data.SessionID),
			zap.String("actual", sessionID))
	}

	// fan out into the group the sender actually belongs to, never the
	// one the payload claims
	r.broadcast(sessionID, c.id, dto.EventCursorUpdate, &dto.CursorUpdateData{
		UserID:   c.id,
		UserName: member.UserName,
		Position: data.Position,
	})

	return nil
}

// disconnect notifies the rest of the group, then removes the presence
// entry. Idempotent: a connection that never joined is a no-op.
func (r *Relay) disconnect(c *client) {
	defer r.unregister(c.id)

	member, sessionID, ok := r.svc.Presence().Leave(c.id)
	if !ok {
		return
	}

	r.broadcast(sessionID, c.id, dto.EventUserLeft, &dto.UserData{
		UserID:   c.id,
		UserName: member.UserName,
	})
}

// broadcast fans the event out to every member of the session except the
// sender. Sends are independent: a slow or closed member never blocks the
// others.
func (r *Relay) broadcast(sessionID, exceptConnID, event string, data any) {
	msg, err := marshalEnvelope(event, data)
	if err != nil {
		log.Logger.Error("marshal broadcast", zap.Error(err),
			zap.String("event", event))
		return
	}

	for _, m := range r.svc.Presence().MembersOf(sessionID) {
		if m.ConnID == exceptConnID {
			continue
		}

		c, ok := r.client(m.ConnID)
		if !ok {
			continue
		}
		if !c.enqueue(msg) {
			log.Logger.Warn("drop message to slow consumer",
				zap.String("conn", m.ConnID),
				zap.String("event", event))
		}
	}
}

func (r *Relay) send(c *client, event string, data any) {
	msg, err := marshalEnvelope(event, data)
	if err != nil {
		log.Logger.Error("marshal reply", zap.Error(err),
			zap.String("event", event))
		return
	}
	if !c.enqueue(msg) {
		log.Logger.Warn("drop reply to slow consumer",
			zap.String("conn", c.id), zap.String("event", event))
	}
}

func marshalEnvelope(event string, data any) ([]byte, error) {
	rawData, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s data", event)
	}

	msg, err := json.Marshal(&dto.Envelope{Event: event, Data: rawData})
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s envelope", event)
	}

	return msg, nil
}
