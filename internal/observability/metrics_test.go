package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// value reads the current value of a counter or gauge.
func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	}
	t.Fatalf("metric is neither counter nor gauge")
	return 0
}

func TestRecordTrades(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordTrades(100, false)
	m.RecordTrades(40, true)

	if got := value(t, m.TradesExecuted); got != 140 {
		t.Errorf("TradesExecuted = %v, want 140", got)
	}
	if got := value(t, m.AccountsCrashed); got != 1 {
		t.Errorf("AccountsCrashed = %v, want 1", got)
	}
}

func TestRecordOperation(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordOperation("execute_trade", time.Now(), nil)
	m.RecordOperation("execute_trade", time.Now(), errors.New("boom"))
	m.RecordOperation("execute_trade", time.Now(), nil)

	if got := value(t, m.SessionOperations.WithLabelValues("execute_trade", "success")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := value(t, m.SessionOperations.WithLabelValues("execute_trade", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestRecordBatchRun(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordBatchRun("failed", 1.5, 0)
	if got := value(t, m.LastSuccessfulBatch); got != 0 {
		t.Errorf("failed batch must not update last success, got %v", got)
	}

	m.RecordBatchRun("completed", 2, 3)
	if got := value(t, m.AggregatesComputed); got != 3 {
		t.Errorf("AggregatesComputed = %v, want 3", got)
	}
	if got := value(t, m.LastSuccessfulBatch); got == 0 {
		t.Error("completed batch should set last success timestamp")
	}
}

func TestHandler(t *testing.T) {
	DefaultMetrics.TradesExecuted.Add(0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "rmultiple_lab_engine_trades_executed_total") {
		t.Error("default metrics missing from /metrics output")
	}
}
