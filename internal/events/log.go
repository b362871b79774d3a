package events

import "sync"

// Persister durably stores resolved envelopes.
type Persister interface {
	AppendEnvelopes(envs []Envelope) error
}

// Log is an in-memory append-only history of resolved envelopes, bounded to
// the most recent capacity entries. It is an observer: the simulation never
// reads it back.
type Log struct {
	mu        sync.RWMutex
	envelopes []Envelope
	capacity  int
	persister Persister
}

// NewLog creates a log. capacity <= 0 keeps everything.
func NewLog(capacity int, persister Persister) *Log {
	return &Log{
		envelopes: make([]Envelope, 0),
		capacity:  capacity,
		persister: persister,
	}
}

// Append records envelopes in order and writes them through to the persister.
func (l *Log) Append(envs ...Envelope) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.envelopes = append(l.envelopes, envs...)
	if l.capacity > 0 && len(l.envelopes) > l.capacity {
		l.envelopes = append([]Envelope(nil), l.envelopes[len(l.envelopes)-l.capacity:]...)
	}
	if l.persister != nil {
		return l.persister.AppendEnvelopes(envs)
	}
	return nil
}

// GetByTick returns the envelopes resolved during a tick.
func (l *Log) GetByTick(tick uint64) []Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Envelope
	for _, e := range l.envelopes {
		if e.Tick == tick {
			result = append(result, e)
		}
	}
	return result
}

// GetByKind returns the envelopes of one kind.
func (l *Log) GetByKind(kind Kind) []Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Envelope
	for _, e := range l.envelopes {
		if e.Kind() == kind {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the retained history in application order.
func (l *Log) Replay() []Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Envelope(nil), l.envelopes...)
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.envelopes)
}
