package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectorはMetricsCollectorインターフェースを満たすことを検証
func TestCollector_ImplementsInterface(t *testing.T) {
	var _ MetricsCollector = (*Collector)(nil)
}

// NewCollectorが全メトリクスをレジストリに登録することを検証
func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordStorageLatency("project_create", 5*time.Millisecond)
	c.RecordStorageFailure("file_upsert")
	c.RecordStreamStarted()
	c.RecordStreamTokens(3)
	c.RecordStreamError()
	c.RecordStreamClientAbort()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	want := map[string]bool{
		"workbench_http_status_total":         false,
		"workbench_storage_latency_seconds":   false,
		"workbench_storage_fail_total":        false,
		"workbench_stream_started_total":      false,
		"workbench_stream_tokens_total":       false,
		"workbench_stream_errors_total":       false,
		"workbench_stream_client_abort_total": false,
	}
	for _, mf := range families {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("メトリクス %s が登録されていない", name)
		}
	}
}

// カウンターの値が記録回数を反映することを検証
func TestCollector_CounterValues(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordStreamTokens(5)
	c.RecordStreamTokens(2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != "workbench_stream_tokens_total" {
			continue
		}
		got := mf.GetMetric()[0].GetCounter().GetValue()
		if got != 7 {
			t.Errorf("workbench_stream_tokens_total = %v, want 7", got)
		}
		return
	}
	t.Fatal("workbench_stream_tokens_total が見つからない")
}

// /metricsハンドラーがPrometheus形式で出力することを検証
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(404)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "workbench_http_status_total") {
		t.Errorf("レスポンスに workbench_http_status_total が含まれていない: %s", body)
	}
	if !strings.Contains(body, `status_code="404"`) {
		t.Errorf("レスポンスに status_code ラベルが含まれていない")
	}
}
