package wsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/dambrete/internal/msgcat"
	"github.com/park285/dambrete/internal/obslog"
	"github.com/park285/dambrete/internal/results"
	"github.com/park285/dambrete/internal/room"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// IdentityHeader carries the player identity on the handshake. The "user"
// query parameter is accepted when the header is absent.
const IdentityHeader = "X-User-Id"

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	pingInterval = 15 * time.Second
	cmdTimeout   = 10 * time.Second
)

type Deps struct {
	Manager *room.Manager
	Bot     *room.BotOpponent
	Grace   *room.DisconnectPolicy
	Results results.Repository
	Catalog *msgcat.Catalog
	// AllowedOrigins are host patterns for the origin check; empty accepts any.
	AllowedOrigins []string
}

type client struct {
	id       string
	identity string
	conn     *websocket.Conn
	send     chan []byte
}

// Hub owns every live connection and turns room events into frames.
type Hub struct {
	deps Deps

	mu         sync.RWMutex
	clients    map[*client]struct{}
	byIdentity map[string]map[*client]struct{}
}

// NewHub subscribes to the manager. Create it before attaching the bot so a
// human move is pushed before the bot's reply.
func NewHub(d Deps) *Hub {
	h := &Hub{
		deps:       d,
		clients:    make(map[*client]struct{}),
		byIdentity: make(map[string]map[*client]struct{}),
	}
	d.Manager.Subscribe(h.onEvent)
	return h
}

func identityOf(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(IdentityHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get("user"))
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := identityOf(r)
	if identity == "" {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	opts := &websocket.AcceptOptions{OriginPatterns: h.deps.AllowedOrigins}
	if len(h.deps.AllowedOrigins) == 0 {
		opts.InsecureSkipVerify = true
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.String("identity", identity), zap.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), identity: identity, conn: conn, send: make(chan []byte, sendBuffer)}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.register(c)
	obslog.L().Info("ws_connect", zap.String("conn_id", c.id), zap.String("identity", identity))

	go h.writeLoop(ctx, cancel, c)
	h.welcome(ctx, c)
	h.readLoop(ctx, c)

	last := h.unregister(c)
	obslog.L().Info("ws_disconnect", zap.String("conn_id", c.id), zap.String("identity", identity), zap.Bool("last", last))
	h.broadcast(EvOnline, h.Online())
	if last {
		h.disconnected(identity)
	}
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	set, ok := h.byIdentity[c.identity]
	if !ok {
		set = make(map[*client]struct{})
		h.byIdentity[c.identity] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// unregister reports whether c was the identity's last connection.
func (h *Hub) unregister(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	set := h.byIdentity[c.identity]
	delete(set, c)
	if len(set) == 0 {
		delete(h.byIdentity, c.identity)
		return true
	}
	return false
}

// Online is the number of open connections.
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) writeLoop(ctx context.Context, cancel context.CancelFunc, c *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			wcancel()
			if err != nil {
				return
			}
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			pcancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.reject(c, "", room.ErrInvalidArgs)
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, cmdTimeout)
		h.dispatch(cctx, c, env)
		cancel()
	}
}

// push queues one frame; a full buffer drops the frame.
func (c *client) push(typ string, payload any) {
	raw, err := json.Marshal(outbound{Type: typ, Payload: payload})
	if err != nil {
		obslog.L().Error("ws_marshal_error", zap.String("type", typ), zap.Error(err))
		return
	}
	select {
	case c.send <- raw:
	default:
		obslog.L().Warn("ws_send_dropped", zap.String("conn_id", c.id), zap.String("type", typ))
	}
}

func (h *Hub) sendTo(identity, typ string, payload any) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.byIdentity[identity]))
	for c := range h.byIdentity[identity] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.push(typ, payload)
	}
}

func (h *Hub) broadcast(typ string, payload any) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.push(typ, payload)
	}
}

// welcome sends the lobby data and resumes any room the identity sits in.
func (h *Hub) welcome(ctx context.Context, c *client) {
	h.broadcast(EvOnline, h.Online())
	c.push(EvList, h.roomList(ctx))
	c.push(EvLeaderboard, h.leaderboard(ctx))

	ids, err := h.deps.Manager.RoomsOf(ctx, c.identity)
	if err != nil {
		obslog.L().Warn("ws_rooms_of_error", zap.String("identity", c.identity), zap.Error(err))
		return
	}
	for _, id := range ids {
		if h.deps.Grace != nil && h.deps.Grace.Reconnect(id, c.identity) {
			obslog.L().Info("ws_grace_cancelled", zap.String("room_id", id), zap.String("identity", c.identity))
		}
		s, err := h.deps.Manager.Session(ctx, id)
		if err != nil {
			continue
		}
		h.pushRoom(c, s)
	}
}

// disconnected applies the leave policy to every room of identity.
func (h *Hub) disconnected(identity string) {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()
	ids, err := h.deps.Manager.RoomsOf(ctx, identity)
	if err != nil {
		obslog.L().Warn("ws_rooms_of_error", zap.String("identity", identity), zap.Error(err))
		return
	}
	for _, id := range ids {
		if h.deps.Grace != nil {
			err = h.deps.Grace.Disconnect(ctx, id, identity)
		} else {
			_, err = h.deps.Manager.Leave(ctx, id, identity)
		}
		if err != nil {
			obslog.L().Info("ws_leave_skipped", zap.String("room_id", id), zap.String("identity", identity), zap.Error(err))
		}
	}
}
