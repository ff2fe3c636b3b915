package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"meetgate/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"
)

const (
	clientAbandonedTimeout = 40 * time.Second
	cleanupInterval        = 20 * time.Second
	writeTimeout           = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type PresenceMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count,omitempty"`
}

type presenceClient struct {
	conn       *websocket.Conn
	ID         string
	SessionID  string
	Room       string
	lastSeen   atomic.Int64
	writeMutex sync.Mutex
}

func (pc *presenceClient) send(data []byte) error {
	pc.writeMutex.Lock()
	defer pc.writeMutex.Unlock()
	pc.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return pc.conn.WriteMessage(websocket.TextMessage, data)
}

// Presence tracks the verified visitors currently on the meeting page and
// pushes the participant count to each of them
type Presence struct {
	clients cmap.ConcurrentMap[string, *presenceClient]
	now     func() time.Time
	log     *zap.Logger
}

func NewPresence(log *zap.Logger) *Presence {
	return &Presence{
		clients: cmap.New[*presenceClient](),
		now:     time.Now,
		log:     log,
	}
}

func (p *Presence) WithClock(now func() time.Time) *Presence {
	p.now = now
	return p
}

func (p *Presence) Count() int {
	return p.clients.Count()
}

func (p *Presence) add(pc *presenceClient) {
	pc.lastSeen.Store(p.now().UnixNano())
	p.clients.Set(pc.ID, pc)
	p.broadcast()
}

// remove reports whether the client was still registered
func (p *Presence) remove(id string) bool {
	removed := p.clients.RemoveCb(id, func(_ string, pc *presenceClient, exists bool) bool {
		if exists {
			pc.conn.Close()
		}
		return exists
	})
	if removed {
		p.broadcast()
	}
	return removed
}

func (p *Presence) broadcast() {
	data, _ := json.Marshal(PresenceMessage{Type: "presence", Count: p.clients.Count()})
	for _, pc := range p.clients.Items() {
		if err := pc.send(data); err != nil {
			p.log.Debug("presence send failed", zap.String("client", pc.ID), zap.Error(err))
		}
	}
}

// CheckAbandoned drops clients that have not pinged within the timeout and
// returns their IDs
func (p *Presence) CheckAbandoned() []string {
	cutoff := p.now().Add(-clientAbandonedTimeout).UnixNano()
	abandoned := []string{}
	for id, pc := range p.clients.Items() {
		if pc.lastSeen.Load() < cutoff && p.remove(id) {
			abandoned = append(abandoned, id)
			p.log.Info("client abandoned meeting", zap.String("client", id), zap.String("room", pc.Room))
		}
	}
	return abandoned
}

// CloseSession disconnects every socket opened by the given session. It is
// wired to the guard so logout and idle expiry end the presence too.
func (p *Presence) CloseSession(sessionID string) {
	if sessionID == "" {
		return
	}
	for id, pc := range p.clients.Items() {
		if pc.SessionID == sessionID && p.remove(id) {
			p.log.Debug("presence closed with its session", zap.String("client", id))
		}
	}
}

// Run checks for abandoned clients until ctx is done
func (p *Presence) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.CheckAbandoned()
		}
	}
}

func (p *Presence) WebSocket(c *gin.Context, session *auth.Session) {
	room, sessionID := "", ""
	if session != nil && session.Initialize() {
		room, sessionID = session.CurrentRoom(), session.ID()
	}
	p.serve(c, room, sessionID)
}

func (p *Presence) serve(c *gin.Context, room, sessionID string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		p.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	pc := &presenceClient{conn: conn, ID: uuid.NewString(), SessionID: sessionID, Room: room}
	p.add(pc)
	defer p.remove(pc.ID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			p.log.Debug("websocket closed", zap.String("client", pc.ID), zap.Error(err))
			break
		}
		msg := PresenceMessage{}
		if err = json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "ping":
			pc.lastSeen.Store(p.now().UnixNano())
			data, _ := json.Marshal(PresenceMessage{Type: "pong"})
			pc.send(data)
		case "leave":
			return
		}
	}
}
