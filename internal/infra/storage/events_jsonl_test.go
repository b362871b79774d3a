package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
)

func TestJSONLWriterBacksTheInMemoryLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "events.jsonl")
	log := events.NewLog(2, NewJSONLEventWriter(path))

	for tick := uint64(1); tick <= 3; tick++ {
		require.NoError(t, log.Append(events.Envelope{
			Tick: tick, Phase: "Decay", Source: "heat",
			Event: events.FactionEvent{Action: events.FactionHeatDecay, LocationID: world.LocMarket, HeatDelta: -1},
		}))
	}

	got, err := ReadJSONLEvents(path)
	require.NoError(t, err)
	assert.Len(t, got, 3, "the file keeps what the ring buffer drops")
	assert.Equal(t, 2, log.Len())
	assert.Equal(t, uint64(3), got[2].Tick)
	assert.Equal(t, events.KindFaction, got[0].Kind())
}
