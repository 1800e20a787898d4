// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン種別
const (
	LoginKindUser    = "user"
	LoginKindManager = "manager"
)

// ログイン結果
const (
	LoginResultSuccess = "success"
	LoginResultFailure = "failure"
)

// パスワードリセットの段階
const (
	ResetStageRequested = "requested"
	ResetStageVerified  = "verified"
	ResetStageCompleted = "completed"
	ResetStageRejected  = "rejected"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(statusCode int, duration time.Duration)
	RecordLogin(kind, result string)
	RecordPasswordReset(stage string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  prometheus.Histogram
	logins        *prometheus.CounterVec
	passwordReset *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodapi_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodapi_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodapi_login_total",
			Help: "ログイン試行の種別・結果別の合計数",
		}, []string{"kind", "result"}),
		passwordReset: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodapi_password_reset_total",
			Help: "パスワードリセットの段階別の合計数",
		}, []string{"stage"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.logins,
		c.passwordReset,
	)

	return c
}

// RecordHTTPRequest はレスポンスのステータスコードと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// RecordLogin はログイン試行を記録する。
func (c *Collector) RecordLogin(kind, result string) {
	c.logins.WithLabelValues(kind, result).Inc()
}

// RecordPasswordReset はパスワードリセットの進行を記録する。
func (c *Collector) RecordPasswordReset(stage string) {
	c.passwordReset.WithLabelValues(stage).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop は何も記録しないMetricsCollector。
// メトリクスが不要なコマンドやテストで使用する。
type Noop struct{}

func (Noop) RecordHTTPRequest(int, time.Duration) {}
func (Noop) RecordLogin(string, string)           {}
func (Noop) RecordPasswordReset(string)           {}
