package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter *prometheus.CounterVec
	TokenRefreshCounter *prometheus.CounterVec

	// Tier gating metrics
	QuotaRejectionsCounter *prometheus.CounterVec

	// Inventory metrics
	GinOperationsCounter *prometheus.CounterVec

	initOnce sync.Once
	enabled  atomic.Bool
)

// Init 注册指标，重复调用只生效一次
func Init(prefix string) {
	initOnce.Do(func() {
		if prefix == "" {
			prefix = "ginvault"
		}

		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		AuthAttemptsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Authentication attempts by kind and outcome",
			},
			[]string{"kind", "outcome"},
		)

		TokenRefreshCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_token_refresh_total",
				Help: "Refresh token rotations by outcome",
			},
			[]string{"outcome"},
		)

		QuotaRejectionsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_quota_rejections_total",
				Help: "Requests rejected by subscription tier limits",
			},
			[]string{"tier", "limit"},
		)

		GinOperationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_gin_operations_total",
				Help: "Total number of gin inventory operations",
			},
			[]string{"operation"},
		)

		enabled.Store(true)
	})
}

// Handler /metrics 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP 记录一次HTTP请求
func ObserveHTTP(method, path, status string, seconds float64) {
	if !enabled.Load() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

// RecordAuth 记录登录/注册结果，outcome 为 success 或 failure
func RecordAuth(kind, outcome string) {
	if !enabled.Load() {
		return
	}
	AuthAttemptsCounter.WithLabelValues(kind, outcome).Inc()
}

// RecordRefresh 记录刷新令牌轮换
func RecordRefresh(outcome string) {
	if !enabled.Load() {
		return
	}
	TokenRefreshCounter.WithLabelValues(outcome).Inc()
}

// RecordQuotaRejection 记录套餐限制拒绝
func RecordQuotaRejection(tier, limit string) {
	if !enabled.Load() {
		return
	}
	QuotaRejectionsCounter.WithLabelValues(tier, limit).Inc()
}

// RecordGinOperation 记录库存操作
func RecordGinOperation(operation string) {
	if !enabled.Load() {
		return
	}
	GinOperationsCounter.WithLabelValues(operation).Inc()
}
