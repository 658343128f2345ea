// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// アクセス判定の結果ラベル。
const (
	OutcomeAllowed  = "allowed"
	OutcomeDenied   = "denied"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// アクセス制御、権限管理、HTTP層、ワーカーから利用する。
type MetricsCollector interface {
	RecordAccessDecision(resource, outcome string)
	RecordUserCreated()
	RecordPermissionGranted(scope string)
	RecordPermissionsRevoked(count int64)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordDanglingPermissionsDeleted(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	accessDecisions    *prometheus.CounterVec
	usersCreated       prometheus.Counter
	permissionsGranted *prometheus.CounterVec
	permissionsRevoked prometheus.Counter
	httpStatus         *prometheus.CounterVec
	requestLatency     prometheus.Histogram
	danglingDeleted    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		accessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devfolio_access_decisions_total",
			Help: "アクセス判定の結果別の合計数",
		}, []string{"resource", "outcome"}),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devfolio_users_created_total",
			Help: "get-or-createで新規作成されたユーザーの合計数",
		}),
		permissionsGranted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devfolio_permissions_granted_total",
			Help: "付与された権限のスコープ別の合計数",
		}, []string{"scope"}),
		permissionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devfolio_permissions_revoked_total",
			Help: "取り消された権限の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devfolio_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "devfolio_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		danglingDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devfolio_dangling_permissions_deleted_total",
			Help: "クリーンアップで削除された参照先のない権限の合計数",
		}),
	}

	reg.MustRegister(
		c.accessDecisions,
		c.usersCreated,
		c.permissionsGranted,
		c.permissionsRevoked,
		c.httpStatus,
		c.requestLatency,
		c.danglingDeleted,
	)

	return c
}

// RecordAccessDecision はアクセス判定の結果を記録する。
func (c *Collector) RecordAccessDecision(resource, outcome string) {
	c.accessDecisions.WithLabelValues(resource, outcome).Inc()
}

// RecordUserCreated はユーザーの新規作成を記録する。
func (c *Collector) RecordUserCreated() {
	c.usersCreated.Inc()
}

// RecordPermissionGranted は権限の付与を記録する。
func (c *Collector) RecordPermissionGranted(scope string) {
	c.permissionsGranted.WithLabelValues(scope).Inc()
}

// RecordPermissionsRevoked は取り消された権限数を記録する。
func (c *Collector) RecordPermissionsRevoked(count int64) {
	c.permissionsRevoked.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordDanglingPermissionsDeleted はクリーンアップで削除した権限数を記録する。
func (c *Collector) RecordDanglingPermissionsDeleted(count int64) {
	c.danglingDeleted.Add(float64(count))
}

// Nop は何も記録しないMetricsCollector。CLIやテストで使う。
type Nop struct{}

func (Nop) RecordAccessDecision(string, string)    {}
func (Nop) RecordUserCreated()                     {}
func (Nop) RecordPermissionGranted(string)         {}
func (Nop) RecordPermissionsRevoked(int64)         {}
func (Nop) RecordHTTPStatus(int)                   {}
func (Nop) RecordRequestLatency(time.Duration)     {}
func (Nop) RecordDanglingPermissionsDeleted(int64) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
