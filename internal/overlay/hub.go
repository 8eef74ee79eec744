package overlay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"village-planner/internal/geom"
	"village-planner/internal/navmesh"
)

// MessageType of every navmesh update.
const MessageType = "NAVMESH"

// Message is what overlay clients receive after every rebuild: the edges to
// draw as dirt paths and the obstacles they avoid.
type Message struct {
	Type      string                 `json:"type"`
	Version   uint64                 `json:"version"`
	World     geom.Rect              `json:"world"`
	Lines     [][2]geom.Point        `json:"lines"`
	Obstacles []navmesh.ObstacleRect `json:"obstacles"`
}

type client struct {
	id  uint64
	out chan []byte
}

// Hub pushes navmesh snapshots to websocket clients. It implements
// navmesh.ChangeListener.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]*client
	latest  []byte
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: make(map[uint64]*client),
	}
}

// OnNavmeshChange encodes the snapshot once and queues it for every client.
// Slow clients lose intermediate versions, never the latest one.
func (h *Hub) OnNavmeshChange(s navmesh.Snapshot) {
	msg := Message{
		Type:      MessageType,
		Version:   s.Version,
		World:     s.World,
		Lines:     s.Lines(),
		Obstacles: s.Obstacles,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encode navmesh message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = b
	for _, c := range h.clients {
		offer(c.out, b)
	}
}

// offer queues b, dropping the oldest queued message when the buffer is full.
func offer(out chan []byte, b []byte) {
	for {
		select {
		case out <- b:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) join() *client {
	c := &client{id: h.nextID.Add(1), out: make(chan []byte, 4)}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	if h.latest != nil {
		c.out <- h.latest
	}
	return c
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
}

// Handler upgrades the request and streams navmesh messages until the
// client disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := h.join()
		defer h.leave(c)
		h.log.Debug("overlay client joined", zap.Uint64("client", c.id), zap.String("remote", r.RemoteAddr))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: clients send nothing, but reading notices the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		h.log.Debug("overlay client left", zap.Uint64("client", c.id))
	}
}
