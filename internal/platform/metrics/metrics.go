// Package metrics provides observability for the simulation server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers simulation and transport counters.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickAborts     int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Resolution metrics
	EventsResolved int64
	EventsDropped  int64
	Denials        int64
	Draws          int64

	// Checkpoint metrics
	Checkpoints       int64
	CheckpointErrors  int64
	CheckpointLatSum  int64
	CheckpointLastLen int64 // bytes of the most recent checkpoint

	// Audit sink metrics
	AuditWrites      int64
	AuditWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// New creates an independent collector. Servers use Get; tests may use New.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a completed tick.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordTickAbort records a tick that was rolled back.
func (c *Collector) RecordTickAbort() {
	atomic.AddInt64(&c.TickAborts, 1)
}

// RecordResolution records events applied and dropped in one tick.
func (c *Collector) RecordResolution(applied, dropped int) {
	atomic.AddInt64(&c.EventsResolved, int64(applied))
	atomic.AddInt64(&c.EventsDropped, int64(dropped))
}

func (c *Collector) RecordDenial() {
	atomic.AddInt64(&c.Denials, 1)
}

func (c *Collector) RecordDraws(n int) {
	atomic.AddInt64(&c.Draws, int64(n))
}

// RecordCheckpoint records a checkpoint attempt.
func (c *Collector) RecordCheckpoint(latency time.Duration, bytes int64, err error) {
	if err != nil {
		atomic.AddInt64(&c.CheckpointErrors, 1)
		return
	}
	atomic.AddInt64(&c.Checkpoints, 1)
	atomic.AddInt64(&c.CheckpointLatSum, int64(latency))
	atomic.StoreInt64(&c.CheckpointLastLen, bytes)
}

// RecordAuditWrite records an audit sink write.
func (c *Collector) RecordAuditWrite(err error) {
	atomic.AddInt64(&c.AuditWrites, 1)
	if err != nil {
		atomic.AddInt64(&c.AuditWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	checkpoints := atomic.LoadInt64(&c.Checkpoints)

	var tickAvg, checkpointAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if checkpoints > 0 {
		checkpointAvg = float64(atomic.LoadInt64(&c.CheckpointLatSum)) / float64(checkpoints) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"aborts":         atomic.LoadInt64(&c.TickAborts),
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"events": map[string]interface{}{
			"resolved": atomic.LoadInt64(&c.EventsResolved),
			"dropped":  atomic.LoadInt64(&c.EventsDropped),
			"denials":  atomic.LoadInt64(&c.Denials),
			"draws":    atomic.LoadInt64(&c.Draws),
		},

		"checkpoint": map[string]interface{}{
			"count":          checkpoints,
			"errors":         atomic.LoadInt64(&c.CheckpointErrors),
			"avg_latency_ms": checkpointAvg,
			"last_bytes":     atomic.LoadInt64(&c.CheckpointLastLen),
		},

		"audit": map[string]interface{}{
			"writes": atomic.LoadInt64(&c.AuditWrites),
			"errors": atomic.LoadInt64(&c.AuditWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector
		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP heatcity_%s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE heatcity_%s counter\n", name)
			fmt.Fprintf(w, "heatcity_%s %d\n\n", name, v)
		}

		counter("tick_count", "Total ticks completed", atomic.LoadInt64(&c.TickCount))
		counter("tick_aborts", "Ticks rolled back", atomic.LoadInt64(&c.TickAborts))

		fmt.Fprintf(w, "# HELP heatcity_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE heatcity_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "heatcity_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		counter("events_resolved", "Events applied by the resolver", atomic.LoadInt64(&c.EventsResolved))
		counter("events_dropped", "Events dropped on a late invariant failure", atomic.LoadInt64(&c.EventsDropped))
		counter("denials", "Rules gateway denials", atomic.LoadInt64(&c.Denials))
		counter("rng_draws", "Random draws recorded", atomic.LoadInt64(&c.Draws))
		counter("checkpoints", "Successful checkpoints", atomic.LoadInt64(&c.Checkpoints))
		counter("checkpoint_errors", "Failed checkpoints", atomic.LoadInt64(&c.CheckpointErrors))
		counter("audit_write_errors", "Failed audit sink writes", atomic.LoadInt64(&c.AuditWriteErrors))

		fmt.Fprintf(w, "# HELP heatcity_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE heatcity_ws_connections gauge\n")
		fmt.Fprintf(w, "heatcity_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP heatcity_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE heatcity_ws_messages_total counter\n")
		fmt.Fprintf(w, "heatcity_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "heatcity_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
