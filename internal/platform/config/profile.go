package config

import "runtime"

// Tuning holds transport and storage sizing for a deployment profile.
type Tuning struct {
	// Channel buffer sizes
	BroadcastChannelBuffer int
	ClientSendBuffer       int

	// SQLite pool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// In-memory history kept for the replay endpoint
	RecentEventCapacity int

	// Rate limiting
	MaxMessagesPerSecond int
	MaxClients           int
}

// TuningFor returns the named profile, falling back to the default.
func TuningFor(profile string) *Tuning {
	switch profile {
	case "stress":
		return StressTuning()
	case "low":
		return LowResourceTuning()
	default:
		return DefaultTuning()
	}
}

// DefaultTuning returns sensible defaults for production.
func DefaultTuning() *Tuning {
	numCPU := runtime.NumCPU()

	return &Tuning{
		BroadcastChannelBuffer: 256,
		ClientSendBuffer:       64,

		// SQLite serialises writers; extra connections only help readers
		DBMaxOpenConns: numCPU,
		DBMaxIdleConns: 2,

		RecentEventCapacity: 4096,

		MaxMessagesPerSecond: 20,
		MaxClients:           200,
	}
}

// StressTuning returns aggressive settings for load testing with sim-bot.
func StressTuning() *Tuning {
	numCPU := runtime.NumCPU()

	return &Tuning{
		BroadcastChannelBuffer: 1024,
		ClientSendBuffer:       256,

		DBMaxOpenConns: numCPU * 2,
		DBMaxIdleConns: numCPU,

		RecentEventCapacity: 16384,

		MaxMessagesPerSecond: 200,
		MaxClients:           1000,
	}
}

// LowResourceTuning returns minimal settings for development.
func LowResourceTuning() *Tuning {
	return &Tuning{
		BroadcastChannelBuffer: 16,
		ClientSendBuffer:       8,

		DBMaxOpenConns: 2,
		DBMaxIdleConns: 1,

		RecentEventCapacity: 256,

		MaxMessagesPerSecond: 5,
		MaxClients:           10,
	}
}

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	IncreaseBroadcastBuffer bool
	IncreaseDBConnections   bool
	LengthenTickInterval    bool
	Notes                   []string
}

// Analyze examines a metrics snapshot and returns tuning recommendations.
func Analyze(metrics map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	if tick, ok := metrics["tick"].(map[string]interface{}); ok {
		if maxLat, ok := tick["max_latency_ms"].(float64); ok && maxLat > 250 {
			rec.LengthenTickInterval = true
			rec.Notes = append(rec.Notes, "Tick latency exceeds 250ms - lengthen the tick interval")
		}
	}

	if cp, ok := metrics["checkpoint"].(map[string]interface{}); ok {
		if errs, ok := cp["errors"].(int64); ok && errs > 0 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Checkpoint failures detected - check the world store")
		}
	}

	if ws, ok := metrics["websocket"].(map[string]interface{}); ok {
		if errs, ok := ws["errors"].(int64); ok && errs > 0 {
			rec.IncreaseBroadcastBuffer = true
			rec.Notes = append(rec.Notes, "WebSocket errors detected - increase client send buffer")
		}
	}

	return rec
}

// ApplyRecommendations modifies tuning based on recommendations.
func ApplyRecommendations(t *Tuning, rec *Recommendations) *Tuning {
	if rec.IncreaseBroadcastBuffer {
		t.BroadcastChannelBuffer *= 2
		t.ClientSendBuffer *= 2
	}
	if rec.IncreaseDBConnections {
		t.DBMaxOpenConns = int(float64(t.DBMaxOpenConns) * 1.5)
		t.DBMaxIdleConns = int(float64(t.DBMaxIdleConns) * 1.5)
	}
	return t
}
