// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーおよびストレージ層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordStorageLatency(operation string, duration time.Duration)
	RecordStorageFailure(operation string)
	RecordStreamStarted()
	RecordStreamTokens(count int)
	RecordStreamError()
	RecordStreamClientAbort()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus        *prometheus.CounterVec
	storageLatency    *prometheus.HistogramVec
	storageFail       *prometheus.CounterVec
	streamStarted     prometheus.Counter
	streamTokens      prometheus.Counter
	streamErrors      prometheus.Counter
	streamClientAbort prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workbench_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		storageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workbench_storage_latency_seconds",
			Help:    "ストレージ操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		storageFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workbench_storage_fail_total",
			Help: "ストレージ操作失敗の合計数",
		}, []string{"operation"}),
		streamStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workbench_stream_started_total",
			Help: "開始されたアシスタントストリームの合計数",
		}),
		streamTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workbench_stream_tokens_total",
			Help: "クライアントへ中継されたテキスト断片の合計数",
		}),
		streamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workbench_stream_errors_total",
			Help: "アップストリームエラーで終了したストリームの合計数",
		}),
		streamClientAbort: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workbench_stream_client_abort_total",
			Help: "クライアント切断で終了したストリームの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.storageLatency,
		c.storageFail,
		c.streamStarted,
		c.streamTokens,
		c.streamErrors,
		c.streamClientAbort,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordStorageLatency はストレージ操作のレイテンシを記録する。
func (c *Collector) RecordStorageLatency(operation string, duration time.Duration) {
	c.storageLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordStorageFailure はストレージ操作の失敗を記録する。
func (c *Collector) RecordStorageFailure(operation string) {
	c.storageFail.WithLabelValues(operation).Inc()
}

// RecordStreamStarted はストリーム開始を記録する。
func (c *Collector) RecordStreamStarted() {
	c.streamStarted.Inc()
}

// RecordStreamTokens は中継したテキスト断片数を記録する。
func (c *Collector) RecordStreamTokens(count int) {
	c.streamTokens.Add(float64(count))
}

// RecordStreamError はアップストリームエラーによるストリーム終了を記録する。
func (c *Collector) RecordStreamError() {
	c.streamErrors.Inc()
}

// RecordStreamClientAbort はクライアント切断によるストリーム終了を記録する。
func (c *Collector) RecordStreamClientAbort() {
	c.streamClientAbort.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
