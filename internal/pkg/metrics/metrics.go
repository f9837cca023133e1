// Package metrics 定義服務的 Prometheus 指標
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 指標名稱
const (
	MetricNameHTTPRequestsTotal   = "ulam_http_requests_total"
	MetricNameHTTPRequestDuration = "ulam_http_request_duration_seconds"
	MetricNameOracleCalls         = "ulam_oracle_calls_total"
	MetricNameOracleDuration      = "ulam_oracle_call_duration_seconds"
	MetricNameResultCacheOps      = "ulam_result_cache_operations_total"
	MetricNameImageResolutions    = "ulam_image_resolutions_total"
	MetricNameActiveSessions      = "ulam_active_sessions"
)

// 標籤名稱
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelKind     = "kind"
	LabelOutcome  = "outcome"
	LabelOp       = "op"
	LabelStrategy = "strategy"
)

// 常用標籤值
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeError   = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{LabelMethod, LabelPath},
	)

	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameOracleCalls,
			Help: "Generative oracle calls by kind and outcome",
		},
		[]string{LabelKind, LabelOutcome},
	)

	OracleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameOracleDuration,
			Help:    "Generative oracle call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{LabelKind},
	)

	ResultCacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameResultCacheOps,
			Help: "Local result cache operations by op and outcome",
		},
		[]string{LabelOp, LabelOutcome},
	)

	ImageResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameImageResolutions,
			Help: "Dish image resolutions by winning strategy",
		},
		[]string{LabelStrategy},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameActiveSessions,
			Help: "Number of live orchestrator sessions",
		},
	)
)
