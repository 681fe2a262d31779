package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/service/chat"
	"syncspace-backend/pkg/logger"
	"syncspace-backend/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Membership gates websocket subscriptions to channels the user belongs to
type Membership interface {
	CanAccess(ctx context.Context, target domain.Target, userID uuid.UUID) (bool, error)
}

// EventsHub fans chat events published on Redis out to websocket clients.
// One Redis subscription is held per target with at least one client.
type EventsHub struct {
	redisClient *redis.Client
	membership  Membership

	mu      sync.RWMutex
	targets map[domain.Target]map[*Client]bool
	subs    map[domain.Target]*redis.PubSub

	register   chan *Client
	unregister chan *Client
	broadcast  chan *outbound
}

// Client is one websocket connection subscribed to a single target
type Client struct {
	hub    *EventsHub
	conn   *websocket.Conn
	send   chan []byte
	userID uuid.UUID
	target domain.Target
}

// ClientEvent is the only message shape clients may send upstream.
// Typing indicators are relayed to the target's other subscribers without
// touching storage.
type ClientEvent struct {
	Type string `json:"type"`
}

// TypingEvent is fanned out when a subscriber reports typing activity
type TypingEvent struct {
	Type      string        `json:"type"`
	Target    domain.Target `json:"target"`
	UserID    uuid.UUID     `json:"user_id"`
	Timestamp time.Time     `json:"timestamp"`
}

const eventTyping = "typing"

type outbound struct {
	target  domain.Target
	payload []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the gateway
	},
}

// NewEventsHub creates the hub and starts its dispatch loop
func NewEventsHub(redisClient *redis.Client, membership Membership) *EventsHub {
	hub := &EventsHub{
		redisClient: redisClient,
		membership:  membership,
		targets:     make(map[domain.Target]map[*Client]bool),
		subs:        make(map[domain.Target]*redis.PubSub),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *outbound, 256),
	}

	go hub.run()

	return hub
}

func (h *EventsHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.targets[client.target] == nil {
				h.targets[client.target] = make(map[*Client]bool)
				h.subscribe(client.target)
			}
			h.targets[client.target][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.targets[client.target]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
				}
				if len(clients) == 0 {
					delete(h.targets, client.target)
					if sub, ok := h.subs[client.target]; ok {
						sub.Close()
						delete(h.subs, client.target)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			clients := h.targets[msg.target]
			for client := range clients {
				select {
				case client.send <- msg.payload:
				default:
					close(client.send)
					delete(clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// subscribe opens the Redis subscription for a target and pumps its events
// into the broadcast loop. Caller holds the lock.
func (h *EventsHub) subscribe(target domain.Target) {
	sub := h.redisClient.Subscribe(context.Background(), chat.ChannelFor(target))
	h.subs[target] = sub

	go func() {
		for msg := range sub.Channel() {
			event, err := chat.DecodeEvent([]byte(msg.Payload))
			if err != nil {
				logger.Warn("Dropping malformed chat event",
					zap.String("channel", msg.Channel),
					zap.Error(err))
				continue
			}
			payload, err := event.Encode()
			if err != nil {
				continue
			}
			h.broadcast <- &outbound{target: target, payload: payload}
		}
	}()
}

// ServeWS upgrades the request and subscribes the caller to a target's
// live events
// GET /v1/ws?target_kind=...&target_id=...
func (h *EventsHub) ServeWS(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	targetID, err := uuid.Parse(c.Query("target_id"))
	if err != nil {
		response.ValidationError(c, "Invalid target ID")
		return
	}
	target := domain.Target{Kind: domain.TargetKind(c.Query("target_kind")), ID: targetID}
	if err := target.Validate(); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	allowed, err := h.membership.CanAccess(c.Request.Context(), target, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !allowed {
		response.Forbidden(c, "You are not a member of this channel")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		target: target,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("Websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		var event ClientEvent
		if err := json.Unmarshal(raw, &event); err != nil || event.Type != eventTyping {
			continue
		}

		payload, err := json.Marshal(&TypingEvent{
			Type:      eventTyping,
			Target:    c.target,
			UserID:    c.userID,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			continue
		}
		c.hub.broadcast <- &outbound{target: c.target, payload: payload}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
