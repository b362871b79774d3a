package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MRamiBalles/heatcity/internal/events"
)

// JSONLEventWriter appends envelopes to a newline-delimited JSON file. It is
// the audit trail of the file store and plugs into events.Log as its Persister.
type JSONLEventWriter struct {
	mu   sync.Mutex
	path string
}

func NewJSONLEventWriter(path string) *JSONLEventWriter {
	return &JSONLEventWriter{path: path}
}

func (w *JSONLEventWriter) AppendEnvelopes(envs []events.Envelope) error {
	if len(envs) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create event log dir: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	enc := json.NewEncoder(f)
	for _, env := range envs {
		if err := enc.Encode(env); err != nil {
			f.Close()
			return fmt.Errorf("append envelope %d/%d: %w", env.Tick, env.Seq, err)
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsync event log: %w", err)
	}
	return f.Close()
}

// ReadJSONLEvents loads every envelope written by a JSONLEventWriter.
func ReadJSONLEvents(path string) ([]events.Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []events.Envelope
	dec := json.NewDecoder(f)
	for dec.More() {
		var env events.Envelope
		if err := dec.Decode(&env); err != nil {
			return out, fmt.Errorf("decode envelope %d: %w", len(out), err)
		}
		out = append(out, env)
	}
	return out, nil
}
