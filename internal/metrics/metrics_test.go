package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"pkt.systems/tabstack/schema"
)

func TestOnNavEventCounts(t *testing.T) {
	m := New()
	m.OnNavEvent(schema.NavEvent{Type: schema.NavEventSelected})
	m.OnNavEvent(schema.NavEvent{Type: schema.NavEventBack, Outcome: schema.BackSwitchedTab})
	m.OnNavEvent(schema.NavEvent{Type: schema.NavEventBack, Outcome: schema.BackDelegated})
	m.OnNavEvent(schema.NavEvent{Type: schema.NavEventBack, Outcome: schema.BackDelegated})
	m.OnNavEvent(schema.NavEvent{Type: schema.NavEventInvariant})
	m.OnNavEvent(schema.NavEvent{Type: schema.NavEventHistory, HistoryLen: 3})

	if got := testutil.ToFloat64(m.events.WithLabelValues("back")); got != 3 {
		t.Fatalf("expected 3 back events, got %v", got)
	}
	if got := testutil.ToFloat64(m.backs.WithLabelValues("delegated")); got != 2 {
		t.Fatalf("expected 2 delegated backs, got %v", got)
	}
	if got := testutil.ToFloat64(m.invariants); got != 1 {
		t.Fatalf("expected 1 invariant violation, got %v", got)
	}
	if got := testutil.CollectAndCount(m.historyLength); got != 1 {
		t.Fatalf("expected history histogram collected, got %d", got)
	}
}

func TestSessionAndSaveMetrics(t *testing.T) {
	m := New()
	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()
	m.SnapshotSaved(nil)
	m.SnapshotSaved(errors.New("disk full"))
	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Fatalf("expected 1 active session, got %v", got)
	}
	if got := testutil.ToFloat64(m.snapshotSaves.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed save, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.OnNavEvent(schema.NavEvent{Type: schema.NavEventClaim})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `tabstack_nav_events_total{type="claim"} 1`) {
		t.Fatalf("expected claim counter in exposition, got:\n%s", body)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.OnNavEvent(schema.NavEvent{Type: schema.NavEventSelected})
	m.SessionStarted()
	m.SessionEnded()
	m.SnapshotSaved(nil)
}
