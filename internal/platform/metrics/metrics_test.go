package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSnapshotCountsResolution(t *testing.T) {
	c := New()
	c.RecordTick(4 * time.Millisecond)
	c.RecordResolution(7, 1)
	c.RecordDenial()
	c.RecordCheckpoint(time.Millisecond, 2048, nil)
	c.RecordCheckpoint(time.Millisecond, 0, errors.New("disk full"))

	snap := c.Snapshot()
	ev := snap["events"].(map[string]interface{})
	if ev["resolved"].(int64) != 7 || ev["dropped"].(int64) != 1 || ev["denials"].(int64) != 1 {
		t.Errorf("unexpected event counters: %v", ev)
	}
	cp := snap["checkpoint"].(map[string]interface{})
	if cp["count"].(int64) != 1 || cp["errors"].(int64) != 1 || cp["last_bytes"].(int64) != 2048 {
		t.Errorf("unexpected checkpoint counters: %v", cp)
	}
}

func TestPrometheusHandlerUsesPrefix(t *testing.T) {
	rec := httptest.NewRecorder()
	PrometheusHandler()(rec, httptest.NewRequest("GET", "/metrics/prom", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "heatcity_tick_count") || !strings.Contains(body, "heatcity_events_dropped") {
		t.Errorf("missing heatcity counters:\n%s", body)
	}
}
