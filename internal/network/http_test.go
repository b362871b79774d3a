package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/engine"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/infra/storage"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
	"github.com/MRamiBalles/heatcity/internal/platform/metrics"
)

func auditedRun(t *testing.T, ticks int) *storage.SQLiteAuditRepository {
	t.Helper()
	db, err := storage.InitSQLite(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	audit := storage.NewSQLiteAuditRepository(db, engine.SystemClock{}, metrics.New())
	sim := newTestOrchestrator(audit)
	for i := 0; i < ticks; i++ {
		_, err := sim.Tick(context.Background())
		require.NoError(t, err)
	}
	return audit
}

func TestReplayFiltersByRangeAndKind(t *testing.T) {
	// Setup
	h := NewReplayHandler(auditedRun(t, 6), nil, logger.Discard())

	// Act
	rec := httptest.NewRecorder()
	h.HandleReplay(rec, httptest.NewRequest(http.MethodGet, "/api/replay?from=2&to=4&kind=INCIDENT", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ReplayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "audit", resp.Source)
	assert.Equal(t, len(resp.Events), resp.TotalEvents)
	require.NotEmpty(t, resp.Events, "every tick opens an incident")
	for _, env := range resp.Events {
		assert.Equal(t, events.KindIncident, env.Kind())
		assert.GreaterOrEqual(t, env.Tick, uint64(2))
		assert.LessOrEqual(t, env.Tick, uint64(4))
	}
}

func TestReplayFallsBackToRecentLog(t *testing.T) {
	recent := events.NewLog(0, nil)
	require.NoError(t, recent.Append(
		events.Envelope{Tick: 1, Source: "heat", Event: events.FactionEvent{Action: events.FactionHeatDecay}},
		events.Envelope{Tick: 9, Source: "story", Event: events.StoryEvent{Action: events.StoryPressure}},
	))
	h := NewReplayHandler(nil, recent, logger.Discard())

	rec := httptest.NewRecorder()
	h.HandleReplay(rec, httptest.NewRequest(http.MethodGet, "/api/replay?from=5", nil))

	var resp ReplayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "recent", resp.Source)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, uint64(9), resp.Events[0].Tick)
}

func TestReplayRejectsBadRange(t *testing.T) {
	h := NewReplayHandler(nil, nil, logger.Discard())
	for _, q := range []string{"from=x", "from=5&to=2", "to=-1"} {
		rec := httptest.NewRecorder()
		h.HandleReplay(rec, httptest.NewRequest(http.MethodGet, "/api/replay?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}

	rec := httptest.NewRecorder()
	h.HandleReplay(rec, httptest.NewRequest(http.MethodPost, "/api/replay", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecapListsNotableEventsOnly(t *testing.T) {
	h := NewReplayHandler(auditedRun(t, 5), nil, logger.Discard())

	rec := httptest.NewRecorder()
	h.HandleRecap(rec, httptest.NewRequest(http.MethodGet, "/api/recap?since=0&actor="+string(world.PlayerActor), nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var recap []storage.RecapEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recap))
	require.NotEmpty(t, recap)
	for _, line := range recap {
		assert.NotEmpty(t, line.Summary)
		assert.NotEqual(t, events.KindEvidence, line.Kind, "evidence bookkeeping is not notable")
	}
}

func TestRecapNeedsAuditTrail(t *testing.T) {
	h := NewReplayHandler(nil, events.NewLog(4, nil), logger.Discard())
	rec := httptest.NewRecorder()
	h.HandleRecap(rec, httptest.NewRequest(http.MethodGet, "/api/recap", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommandEndpoint(t *testing.T) {
	// Setup
	h := NewCommandHandler(NewRouter(newTestOrchestrator(nil), false, logger.Discard()), logger.Discard())
	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.HandleCommand(rec, httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader(body)))
		return rec
	}

	// Act
	denied := post(`{"type":"CAN_USE","persona":"` + string(world.PersonaMask) + `","power":"` + string(content.PowerKinetic) + `","use":{"contact":true}}`)
	inject := post(`{"type":"INJECT","kind":"STORY","event":{}}`)
	broken := post(`{"type":`)

	// Assert
	require.Equal(t, http.StatusOK, denied.Code, denied.Body.String())
	var reply Reply
	require.NoError(t, json.Unmarshal(denied.Body.Bytes(), &reply))
	require.NotNil(t, reply.Decision)
	assert.False(t, reply.Decision.Allowed)

	assert.Equal(t, http.StatusForbidden, inject.Code)
	assert.Equal(t, http.StatusBadRequest, broken.Code)
}

func TestStatusEndpoint(t *testing.T) {
	sim := newTestOrchestrator(nil)
	h := NewCommandHandler(NewRouter(sim, false, logger.Discard()), logger.Discard())

	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var reply Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.NotNil(t, reply.Status)
	assert.Equal(t, sim.Snapshot().Digest(), reply.Status.Digest)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
