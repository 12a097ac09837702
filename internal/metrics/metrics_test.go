package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.AddRecordsLoaded(3)
	m.IncRecordsSkipped("light")
	m.IncRuns("sequential", "ok")
	m.ObserveStage("merge", 0.1)
	m.SetDistribution(2, 1, []int{3})
	m.SetHoursRanked(1)
}

func TestMetricsRecord(t *testing.T) {
	m := New("")

	m.AddRecordsLoaded(5)
	m.IncRecordsSkipped("light")
	m.IncRecordsSkipped("light")
	m.IncRuns("distributed", "ok")
	m.SetDistribution(4, 2, []int{6, 3})
	m.SetHoursRanked(7)

	if got := testutil.ToFloat64(m.RecordsLoaded); got != 5 {
		t.Errorf("RecordsLoaded = %v", got)
	}
	if got := testutil.ToFloat64(m.RecordsSkipped.WithLabelValues("light")); got != 2 {
		t.Errorf("RecordsSkipped = %v", got)
	}
	if got := testutil.ToFloat64(m.TuplesGathered.WithLabelValues("1")); got != 3 {
		t.Errorf("TuplesGathered[1] = %v", got)
	}
	if got := testutil.ToFloat64(m.PaddingSlots); got != 2 {
		t.Errorf("PaddingSlots = %v", got)
	}

	// a second registry must not collide with the first
	New("")
}

func TestHandler(t *testing.T) {
	m := New("test")
	m.IncRuns("sequential", "ok")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `test_runs_total{mode="sequential",outcome="ok"} 1`) {
		t.Errorf("metrics output missing runs counter:\n%s", body)
	}

	health, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", health.StatusCode)
	}
}
