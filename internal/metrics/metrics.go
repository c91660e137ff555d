package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReconciliationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voterecon_reconciliations_total",
		Help: "Total reconciliation calls by outcome (ok, input_error, internal_error)",
	}, []string{"outcome"})
	ReconcileDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "voterecon_reconcile_duration_ms",
		Help:    "Successful reconciliation duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	CandidatesReconciledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "voterecon_candidates_reconciled_total",
		Help: "Total candidates processed by successful reconciliations",
	})
	ValidationFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voterecon_validation_failures_total",
		Help: "Rejected channels by error kind",
	}, []string{"kind"})
	StacksGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voterecon_stacks_generated_total",
		Help: "Total stacks projected by level",
	}, []string{"level"})
	ResultCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "voterecon_result_cache_hits_total",
		Help: "Total result cache hits",
	})
	ResultCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "voterecon_result_cache_misses_total",
		Help: "Total result cache misses",
	})
	StoreLoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "voterecon_store_load_duration_ms",
		Help:    "Channel snapshot load duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
)

func init() {
	prometheus.MustRegister(ReconciliationsTotal)
	prometheus.MustRegister(ReconcileDurationMs)
	prometheus.MustRegister(CandidatesReconciledTotal)
	prometheus.MustRegister(ValidationFailuresTotal)
	prometheus.MustRegister(StacksGeneratedTotal)
	prometheus.MustRegister(ResultCacheHitsTotal)
	prometheus.MustRegister(ResultCacheMissesTotal)
	prometheus.MustRegister(StoreLoadDurationMs)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
