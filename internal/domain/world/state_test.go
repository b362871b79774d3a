package world

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
)

func TestCloneIsIndependent(t *testing.T) {
	orig := NewCity(7)
	digest := orig.Digest()

	c := orig.Clone()
	require.Equal(t, digest, c.Digest(), "clone must encode identically")

	c.Heat.Locations[LocDocks] = 90
	c.Factions.Roster[FactionPolice].Influence[LocMarket] = 50
	stack := c.Personas.Actors[PlayerActor]
	stack.Unlocked["exp.extra"] = true
	c.Evidence.Records[LocDocks] = append(c.Evidence.Records[LocDocks], EvidenceRecord{ID: "ev-1"})
	c.Story.Flags["curfew"] = true

	assert.Equal(t, digest, orig.Digest(), "mutating the clone leaked into the original")
}

func TestNormalizeDefaultsMissingFields(t *testing.T) {
	var s State
	require.NoError(t, json.Unmarshal([]byte(`{"seed":3,"time":{"tick":4,"day":1,"hour":12,"week":1,"month":1}}`), &s))
	s.Normalize()

	assert.NotNil(t, s.Heat.Locations)
	assert.NotNil(t, s.Story.Flags)
	assert.Len(t, s.Story.Pressure, len(content.AllAxes))
	assert.Equal(t, uint64(4), s.Time.Tick)
}

func TestTimeAdvanceRollsOver(t *testing.T) {
	tm := NewTime()
	for i := 0; i < 16; i++ {
		tm = tm.Advance()
	}
	assert.Equal(t, 2, tm.Day)
	assert.Equal(t, 0, tm.Hour)
	assert.False(t, tm.IsDay())

	for i := 0; i < 24*6; i++ {
		tm = tm.Advance()
	}
	assert.Equal(t, 8, tm.Day)
	assert.Equal(t, 2, tm.Week)
}

func TestMilestones(t *testing.T) {
	m, target := MilestoneFor(61)
	assert.Equal(t, MilestoneOperations, m)
	assert.Equal(t, TargetKnownMasked, target)

	m, _ = MilestoneFor(100)
	assert.Equal(t, MilestoneConvergence, m)
}

func TestHottestPrefersLowestIDOnTie(t *testing.T) {
	h := Heat{Locations: map[ids.LocationID]int{LocMarket: 40, LocDocks: 40, LocHeights: 10}}
	loc, ok := h.Hottest()
	require.True(t, ok)
	assert.Equal(t, LocDocks, loc)

	_, ok = Heat{Locations: map[ids.LocationID]int{LocDocks: 0}}.Hottest()
	assert.False(t, ok)
}
