package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type liveClient struct {
	conn     *websocket.Conn
	send     chan []byte
	raffleID uint
}

// LiveHandler streams raffle events to websocket subscribers. It implements
// the service Notifier: Publish never blocks, events are dropped when the
// hub falls behind.
type LiveHandler struct {
	raffles    RaffleService
	upgrader   websocket.Upgrader
	clients    map[uint]map[*liveClient]struct{}
	clientsMu  sync.RWMutex
	events     chan domain.RaffleEvent
	broadcast  chan outbound
	register   chan *liveClient
	unregister chan *liveClient
	done       chan struct{}
}

type outbound struct {
	raffleID uint
	message  []byte
}

func NewLiveHandler(raffles RaffleService, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{
		raffles: raffles,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		clients:    make(map[uint]map[*liveClient]struct{}),
		events:     make(chan domain.RaffleEvent, 256),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		done:       make(chan struct{}),
	}
}

func (h *LiveHandler) Publish(event domain.RaffleEvent) {
	select {
	case h.events <- event:
	default:
		zap.L().Warn("live feed is full, dropping event", zap.Uint("raffle_id", event.RaffleID), zap.String("type", string(event.Type)))
	}
}

// Run serves the hub until ctx is done.
func (h *LiveHandler) Run(ctx context.Context) {
	go h.encodeEvents(ctx)

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.clientsMu.Lock()
			for _, subscribers := range h.clients {
				for client := range subscribers {
					close(client.send)
				}
			}
			h.clients = make(map[uint]map[*liveClient]struct{})
			h.clientsMu.Unlock()

			return
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.raffleID] == nil {
				h.clients[client.raffleID] = make(map[*liveClient]struct{})
			}
			h.clients[client.raffleID][client] = struct{}{}
			h.clientsMu.Unlock()
		case client := <-h.unregister:
			h.clientsMu.Lock()
			h.remove(client)
			h.clientsMu.Unlock()
		case msg := <-h.broadcast:
			h.clientsMu.Lock()
			for client := range h.clients[msg.raffleID] {
				select {
				case client.send <- msg.message:
				default:
					h.remove(client)
				}
			}
			h.clientsMu.Unlock()
		}
	}
}

// remove must be called with clientsMu held.
func (h *LiveHandler) remove(client *liveClient) {
	subscribers := h.clients[client.raffleID]
	if _, ok := subscribers[client]; !ok {
		return
	}

	delete(subscribers, client)
	close(client.send)
	if len(subscribers) == 0 {
		delete(h.clients, client.raffleID)
	}
}

func (h *LiveHandler) subscribers(raffleID uint) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	return len(h.clients[raffleID])
}

// encodeEvents attaches fresh stats to stats_changed events and serializes
// them off the hub goroutine, since that needs a query.
func (h *LiveHandler) encodeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-h.events:
			if h.subscribers(event.RaffleID) == 0 {
				continue
			}

			if event.Type == domain.EventStatsChanged && event.Payload == nil {
				event.Payload = h.currentStats(ctx, event.RaffleID)
			}

			message, err := json.Marshal(event)
			if err != nil {
				zap.L().Error("failed to encode live event", zap.Error(err))
				continue
			}

			select {
			case h.broadcast <- outbound{raffleID: event.RaffleID, message: message}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *LiveHandler) currentStats(ctx context.Context, raffleID uint) any {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	raffle, err := h.raffles.Get(ctx, raffleID)
	if err != nil {
		zap.L().Warn("cannot load raffle for live stats", zap.Uint("raffle_id", raffleID), zap.Error(err))
		return nil
	}

	stats, err := h.raffles.StatsFor(ctx, raffle)
	if err != nil {
		zap.L().Warn("cannot compute live stats", zap.Uint("raffle_id", raffleID), zap.Error(err))
		return nil
	}

	return stats
}

// HandleLiveFeed godoc
// @Summary      Subscribe to a raffle's live events
// @Description  Upgrades to a websocket. The first message carries the current stats; later ones report availability changes, winners, rollovers and revocations.
// @Tags         raffles
// @Produce      json
// @Param        slug  path      string  true  "Raffle slug"
// @Success      101   {string}  string  "Switching Protocols to WebSocket"
// @Failure      404   {object}  response.Err
// @Router       /raffles/{slug}/live [get]
func (h *LiveHandler) HandleLiveFeed(ctx *gin.Context) {
	slug := ctx.Param("slug")

	raffle, err := h.raffles.Detail(ctx.Request.Context(), slug)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleLiveFeed -> h.raffles.Detail", err, "slug", slug)
		return
	}

	stats, err := h.raffles.StatsFor(ctx.Request.Context(), raffle)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleLiveFeed -> h.raffles.StatsFor", err, "slug", slug)
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Info("websocket upgrade failed", zap.String("slug", slug), zap.Error(err))
		return
	}

	client := &liveClient{
		conn:     conn,
		send:     make(chan []byte, 16),
		raffleID: raffle.ID,
	}

	hello, _ := json.Marshal(domain.RaffleEvent{RaffleID: raffle.ID, Type: domain.EventStatsChanged, Payload: stats})
	client.send <- hello

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the peer going away; clients do not send data.
func (c *liveClient) readPump(h *LiveHandler) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Info("live feed connection closed", zap.Uint("raffle_id", c.raffleID), zap.Error(err))
			}

			return
		}
	}
}
