package monitor

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kasuganosora/knapsackga/pkg/optimizer/genetic"
)

const namespace = "knapsack"

// MetricsCollector 监控指标收集器. Every run is counted twice: in the in-memory
// snapshot and in a private Prometheus registry served by Handler.
type MetricsCollector struct {
	mu            sync.RWMutex
	runCount      int64
	runSuccess    int64
	runError      int64
	totalDuration time.Duration
	activeRuns    int64
	errorCount    map[string]int64
	bestFitness   float64
	startTime     time.Time

	registry           *prometheus.Registry
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	activeRunsGauge    prometheus.Gauge
	generationsTotal   prometheus.Counter
	crossoversTotal    prometheus.Counter
	mutationsTotal     prometheus.Counter
	bestFitnessSummary prometheus.Histogram
}

// NewMetricsCollector 创建监控指标收集器
func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &MetricsCollector{
		errorCount: make(map[string]int64),
		startTime:  time.Now(),
		registry:   registry,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Genetic algorithm runs by outcome.",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one genetic algorithm run.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		activeRunsGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Runs currently in progress.",
		}),
		generationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_recorded_total",
			Help:      "Generation records produced, including initial generations.",
		}),
		crossoversTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crossover_events_total",
			Help:      "Crossover events logged.",
		}),
		mutationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutation_events_total",
			Help:      "Mutation events logged.",
		}),
		bestFitnessSummary: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Best fitness found per successful run.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
	}
}

// StartRun 开始求解
func (m *MetricsCollector) StartRun() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activeRuns++
	m.activeRunsGauge.Inc()
}

// EndRun 结束求解. res may be nil when the run failed; errCode is empty on success.
func (m *MetricsCollector) EndRun(res *genetic.Result, duration time.Duration, errCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeRuns > 0 {
		m.activeRuns--
		m.activeRunsGauge.Dec()
	}
	m.runCount++
	m.totalDuration += duration
	m.runDuration.Observe(duration.Seconds())

	if errCode != "" {
		m.runError++
		m.errorCount[errCode]++
		m.runsTotal.WithLabelValues("error").Inc()
		return
	}

	m.runSuccess++
	m.runsTotal.WithLabelValues("success").Inc()
	if res == nil {
		return
	}
	m.generationsTotal.Add(float64(res.RecordCount()))
	m.crossoversTotal.Add(float64(len(res.Crossovers)))
	m.mutationsTotal.Add(float64(len(res.Mutations)))
	if res.Best != nil {
		m.bestFitnessSummary.Observe(res.Best.Fitness)
		if res.Best.Fitness > m.bestFitness {
			m.bestFitness = res.Best.Fitness
		}
	}
}

// Registry exposes the Prometheus registry for tests and custom exporters.
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GetRunCount 获取求解总数
func (m *MetricsCollector) GetRunCount() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runCount
}

// GetSuccessRate 获取成功率
func (m *MetricsCollector) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.runCount == 0 {
		return 0
	}
	return float64(m.runSuccess) / float64(m.runCount) * 100
}

// GetErrorCount 获取错误统计
func (m *MetricsCollector) GetErrorCount(code string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorCount[code]
}

// RunMetrics 求解指标快照
type RunMetrics struct {
	RunCount    int64            `json:"runCount"`
	RunSuccess  int64            `json:"runSuccess"`
	RunError    int64            `json:"runError"`
	SuccessRate float64          `json:"successRate"`
	AvgDuration time.Duration    `json:"avgDuration"`
	ActiveRuns  int64            `json:"activeRuns"`
	ErrorCount  map[string]int64 `json:"errorCount"`
	BestFitness float64          `json:"bestFitness"`
	Uptime      time.Duration    `json:"uptime"`
}

// GetSnapshot 获取指标快照
func (m *MetricsCollector) GetSnapshot() *RunMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var successRate float64
	var avgDuration time.Duration
	if m.runCount > 0 {
		successRate = float64(m.runSuccess) / float64(m.runCount) * 100
		avgDuration = m.totalDuration / time.Duration(m.runCount)
	}

	errorsCopy := make(map[string]int64, len(m.errorCount))
	for k, v := range m.errorCount {
		errorsCopy[k] = v
	}

	return &RunMetrics{
		RunCount:    m.runCount,
		RunSuccess:  m.runSuccess,
		RunError:    m.runError,
		SuccessRate: successRate,
		AvgDuration: avgDuration,
		ActiveRuns:  m.activeRuns,
		ErrorCount:  errorsCopy,
		BestFitness: m.bestFitness,
		Uptime:      time.Since(m.startTime),
	}
}
