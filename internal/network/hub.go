package network

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
	"github.com/MRamiBalles/heatcity/internal/platform/metrics"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// Hub maintains the set of active clients and broadcasts resolved events to
// them. It is an engine.EventSink.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	recent     *events.Log
	maxClients int
	logger     *logger.Logger
	metrics    *metrics.Collector
}

// HubOptions sizes a hub. Zero values pick defaults.
type HubOptions struct {
	BroadcastBuffer int
	MaxClients      int
	Recent          *events.Log // replayed to clients as they connect
}

// NewHub initializes a new WebSocket Hub.
func NewHub(opts HubOptions, log *logger.Logger, m *metrics.Collector) *Hub {
	if opts.BroadcastBuffer <= 0 {
		opts.BroadcastBuffer = 256
	}
	if m == nil {
		m = metrics.Get()
	}
	return &Hub{
		broadcast:  make(chan []byte, opts.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		recent:     opts.Recent,
		maxClients: opts.MaxClients,
		logger:     log,
		metrics:    m,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.maxClients > 0 && len(h.clients) >= h.maxClients {
				h.mu.Unlock()
				h.logger.Warn("WebSocket client refused: hub is full")
				close(client.send)
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("WebSocket client connected, session " + client.session)
			h.catchUp(client)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected, session " + client.session)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer.
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordWSConnection(-1)
					h.metrics.RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

// catchUp sends the retained history to a fresh client.
func (h *Hub) catchUp(c *Client) {
	if h.recent == nil || h.recent.Len() == 0 {
		return
	}
	raw, err := json.Marshal(Reply{Type: ReplyEvents, Events: h.recent.Replay()})
	if err != nil {
		h.logger.Error(fmt.Sprintf("encode catch-up: %v", err))
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

// Record broadcasts one tick. It never blocks the simulation: when the
// broadcast buffer is full the tick is dropped for WebSocket clients and an
// error is returned for the logs.
func (h *Hub) Record(ctx context.Context, envs []events.Envelope, _ []rng.Draw) error {
	if h.recent != nil {
		if err := h.recent.Append(envs...); err != nil {
			h.logger.Warn(fmt.Sprintf("recent events persist: %v", err))
		}
	}
	if len(envs) == 0 {
		return nil
	}
	raw, err := json.Marshal(Reply{Type: ReplyEvents, Tick: envs[0].Tick, Events: envs})
	if err != nil {
		return fmt.Errorf("encode broadcast: %w", err)
	}
	select {
	case h.broadcast <- raw:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		h.metrics.RecordWSError()
		return fmt.Errorf("broadcast buffer full, tick %d not sent", envs[0].Tick)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
