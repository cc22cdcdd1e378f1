package monitor

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
)

func sampleResult() *genetic.Result {
	return &genetic.Result{
		InitialGeneration: genetic.Generation{Index: 1},
		Generations:       make([]genetic.Generation, 5),
		Crossovers:        make([]genetic.CrossoverEvent, 2),
		Mutations:         make([]genetic.MutationEvent, 1),
		Best:              &genetic.BestIndividual{Fitness: 15},
	}
}

func TestNewMetricsCollector(t *testing.T) {
	collector := NewMetricsCollector()
	if collector == nil {
		t.Fatal("NewMetricsCollector returned nil")
	}
	if collector.errorCount == nil {
		t.Error("errorCount map should be initialized")
	}
	if collector.startTime.IsZero() {
		t.Error("startTime should be set")
	}
	if collector.Registry() == nil {
		t.Error("registry should be set")
	}
}

func TestRecordSuccessfulRun(t *testing.T) {
	collector := NewMetricsCollector()

	collector.StartRun()
	if got := testutil.ToFloat64(collector.activeRunsGauge); got != 1 {
		t.Errorf("active runs = %v, want 1", got)
	}
	collector.EndRun(sampleResult(), 10*time.Millisecond, "")

	if collector.GetRunCount() != 1 {
		t.Errorf("RunCount = %d, want 1", collector.GetRunCount())
	}
	if got := testutil.ToFloat64(collector.runsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.generationsTotal); got != 6 {
		t.Errorf("generations = %v, want 6", got)
	}
	if got := testutil.ToFloat64(collector.crossoversTotal); got != 2 {
		t.Errorf("crossovers = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.mutationsTotal); got != 1 {
		t.Errorf("mutations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.activeRunsGauge); got != 0 {
		t.Errorf("active runs = %v, want 0", got)
	}
}

func TestRecordFailedRun(t *testing.T) {
	collector := NewMetricsCollector()

	collector.StartRun()
	collector.EndRun(nil, time.Millisecond, "DEGENERATE_POPULATION")
	collector.StartRun()
	collector.EndRun(sampleResult(), time.Millisecond, "")

	if collector.GetErrorCount("DEGENERATE_POPULATION") != 1 {
		t.Errorf("error count = %d, want 1", collector.GetErrorCount("DEGENERATE_POPULATION"))
	}
	if got := testutil.ToFloat64(collector.runsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
	if rate := collector.GetSuccessRate(); rate != 50 {
		t.Errorf("success rate = %v, want 50", rate)
	}
}

func TestGetSnapshot(t *testing.T) {
	collector := NewMetricsCollector()
	if collector.GetSuccessRate() != 0 {
		t.Error("empty collector should report a zero success rate")
	}

	collector.StartRun()
	collector.EndRun(sampleResult(), 20*time.Millisecond, "")
	collector.StartRun()
	collector.EndRun(nil, 40*time.Millisecond, "CANCELED")

	snapshot := collector.GetSnapshot()
	if snapshot.RunCount != 2 || snapshot.RunSuccess != 1 || snapshot.RunError != 1 {
		t.Errorf("unexpected counts %+v", snapshot)
	}
	if snapshot.AvgDuration != 30*time.Millisecond {
		t.Errorf("AvgDuration = %v, want 30ms", snapshot.AvgDuration)
	}
	if snapshot.BestFitness != 15 {
		t.Errorf("BestFitness = %v, want 15", snapshot.BestFitness)
	}
	if snapshot.ActiveRuns != 0 {
		t.Errorf("ActiveRuns = %d, want 0", snapshot.ActiveRuns)
	}

	snapshot.ErrorCount["CANCELED"] = 99
	if collector.GetErrorCount("CANCELED") != 1 {
		t.Error("snapshot should not alias the collector's error map")
	}
}

func TestHandler(t *testing.T) {
	collector := NewMetricsCollector()
	collector.StartRun()
	collector.EndRun(sampleResult(), time.Millisecond, "")

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, name := range []string{
		`knapsack_runs_total{status="success"} 1`,
		"knapsack_mutation_events_total 1",
		"knapsack_run_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %q", name)
		}
	}
}

func TestCollectorsAreIsolated(t *testing.T) {
	a := NewMetricsCollector()
	b := NewMetricsCollector()
	a.StartRun()
	a.EndRun(sampleResult(), time.Millisecond, "")

	if n := testutil.CollectAndCount(b.runsTotal); n != 0 {
		t.Errorf("second collector saw %d run series", n)
	}
}
