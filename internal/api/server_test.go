package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmultiple-lab/internal/engine"
	"rmultiple-lab/internal/metrics"
	"rmultiple-lab/internal/service"
	"rmultiple-lab/internal/simulation"
	"rmultiple-lab/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer() *Server {
	cfg := engine.DefaultConfig()
	batches := memory.NewSimulationBatchStore()
	results := memory.NewSimulationResultStore()
	aggs := memory.NewStrategyAggregateStore()

	return NewServer(Options{
		Sessions: service.New(service.Options{Store: memory.NewSessionStore(), Engine: cfg}),
		Runner: simulation.NewRunner(simulation.RunnerOptions{
			BatchStore:  batches,
			ResultStore: results,
			Aggregator:  metrics.NewAggregator(results, aggs),
			Engine:      cfg,
			Workers:     2,
			BaseSeed:    42,
		}),
		Batches:    batches,
		Aggregates: aggs,
	})
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func startSession(t *testing.T, srv *Server, body string) string {
	t.Helper()
	rec, out := doJSON(t, srv, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, out["success"])
	id, ok := out["session_id"].(string)
	require.True(t, ok)
	return id
}

func TestHealth(t *testing.T) {
	srv := newTestServer()
	rec, out := doJSON(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestCatalogs(t *testing.T) {
	srv := newTestServer()

	rec, out := doJSON(t, srv, http.MethodGet, "/api/presets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	presets, ok := out["presets"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, presets)

	rec, out = doJSON(t, srv, http.MethodGet, "/api/strategies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	strategies, ok := out["strategies"].([]any)
	require.True(t, ok)
	assert.Len(t, strategies, 20)
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer()
	id := startSession(t, srv, `{"session_id":"s1","initial_capital":10000,"preset":"balanced","seed":7}`)
	assert.Equal(t, "s1", id)

	rec, out := doJSON(t, srv, http.MethodPost, "/api/sessions/s1/trades", `{"risk_percent":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	trade, ok := out["trade"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), trade["trade_number"])
	assert.Equal(t, false, out["account_crashed"])
	stats, ok := out["stats"].(map[string]any)
	require.True(t, ok, "trade response has no stats")
	assert.Equal(t, float64(1), stats["total_trades"])
	history := historyOf(t, out)
	require.Len(t, history, 1)
	assert.Equal(t, float64(1), history[0]["trade_number"])
	assert.Equal(t, trade["capital_after"], history[0]["capital_after"])

	rec, out = doJSON(t, srv, http.MethodPost, "/api/sessions/s1/batch", `{"risk_percent":1,"count":99}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(99), out["trades_executed"])
	assert.Equal(t, float64(100), out["stats"].(map[string]any)["total_trades"])
	history = historyOf(t, out)
	require.Len(t, history, 100)
	assert.Equal(t, float64(100), history[99]["trade_number"])
	assert.Equal(t, out["current_capital"], history[99]["capital_after"])

	rec, out = doJSON(t, srv, http.MethodPost, "/api/sessions/s1/strategy-batch", `{"strategy_key":"three_losses","count":20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, historyOf(t, out), 120)

	rec, out = doJSON(t, srv, http.MethodGet, "/api/sessions/s1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats = out["stats"].(map[string]any)
	assert.Equal(t, float64(120), stats["total_trades"])
	assert.NotNil(t, stats["averages"])
	history = historyOf(t, out)
	require.Len(t, history, 120)
	for i, p := range history {
		assert.Equal(t, float64(i+1), p["trade_number"])
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/sessions/s1/restart", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out = doJSON(t, srv, http.MethodGet, "/api/sessions/s1/stats", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, out["success"])

	rec, _ = doJSON(t, srv, http.MethodDelete, "/api/sessions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/sessions/s1/trades", `{"risk_percent":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// historyOf returns the history array of a response body.
func historyOf(t *testing.T, out map[string]any) []map[string]any {
	t.Helper()
	raw, ok := out["history"].([]any)
	require.True(t, ok, "response has no history: %v", out)
	points := make([]map[string]any, len(raw))
	for i, r := range raw {
		points[i], ok = r.(map[string]any)
		require.True(t, ok)
	}
	return points
}

func TestStartSession_Rejects(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name string
		body string
	}{
		{"capital below minimum", `{"initial_capital":10}`},
		{"unknown preset", `{"initial_capital":10000,"preset":"nope"}`},
		{"negative weights", `{"initial_capital":10000,"outcomes":{"1":-1}}`},
		{"malformed body", `{"initial_capital":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := doJSON(t, srv, http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, false, out["success"])
		})
	}
}

func TestExecuteTrade_Errors(t *testing.T) {
	srv := newTestServer()

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/sessions/missing/trades", `{"risk_percent":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	startSession(t, srv, `{"session_id":"s1","initial_capital":10000,"seed":1}`)
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/sessions/s1/trades", `{"risk_percent":150}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/sessions/s1/batch", `{"risk_percent":1,"count":100000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/sessions/s1/strategy-batch", `{"strategy_key":"nope","count":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCrashedAccount(t *testing.T) {
	srv := newTestServer()
	startSession(t, srv, `{"session_id":"s1","initial_capital":10000,"outcomes":{"-5":1},"seed":1}`)

	rec, out := doJSON(t, srv, http.MethodPost, "/api/sessions/s1/trades", `{"risk_percent":50}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["account_crashed"])
	assert.Equal(t, "0", out["current_capital"])

	rec, out = doJSON(t, srv, http.MethodPost, "/api/sessions/s1/trades", `{"risk_percent":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, out["success"])

	rec, out = doJSON(t, srv, http.MethodGet, "/api/sessions/s1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["account_crashed"])
}

func TestStrategyBatch_RoundsAverages(t *testing.T) {
	srv := newTestServer()
	startSession(t, srv, `{"session_id":"s1","initial_capital":10000,"preset":"balanced","seed":3}`)

	rec, out := doJSON(t, srv, http.MethodPost, "/api/sessions/s1/strategy-batch",
		`{"strategy_key":"drawdown_geometric","params":{"base_risk":1.7},"count":333}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stats := out["stats"].(map[string]any)
	avg, ok := stats["averages"].(map[string]any)
	require.True(t, ok)
	pct := avg["avg_risk_percent"].(float64)
	assert.InDelta(t, math.Round(pct*100), pct*100, 1e-6)
	assert.Regexp(t, `^-?\d+(\.\d{1,2})?$`, avg["avg_risk_amount"])
}

func dialStream(t *testing.T, ts *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStream(t *testing.T) {
	srv := newTestServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	startSession(t, srv, `{"session_id":"s1","initial_capital":10000,"preset":"balanced","seed":5}`)
	conn := dialStream(t, ts, "s1")

	require.NoError(t, conn.WriteJSON(streamRequest{RiskPercent: 1, Count: 250, Chunk: 100}))

	var executed []int
	var done streamFrame
	for {
		var f streamFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == "progress" {
			executed = append(executed, f.TradesExecuted)
			assert.Equal(t, 250, f.Total)
			require.NotNil(t, f.Stats)
			assert.Equal(t, f.TradesExecuted, f.Stats.TotalTrades)
			continue
		}
		done = f
		break
	}

	assert.Equal(t, []int{100, 200, 250}, executed)
	assert.Equal(t, "done", done.Type)
	assert.Equal(t, 250, done.TradesExecuted)
	require.Len(t, done.History, 250)
	assert.Equal(t, 250, done.History[249].TradeNumber)
	assert.True(t, done.History[249].CapitalAfter.Equal(done.Stats.CurrentCapital))

	rec, out := doJSON(t, srv, http.MethodGet, "/api/sessions/s1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(250), out["stats"].(map[string]any)["total_trades"])
}

func TestStream_CountAboveLimit(t *testing.T) {
	srv := newTestServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	startSession(t, srv, `{"session_id":"s1","initial_capital":10000,"seed":5}`)
	conn := dialStream(t, ts, "s1")
	require.NoError(t, conn.WriteJSON(streamRequest{RiskPercent: 1, Count: engine.DefaultConfig().MaxStreamCount + 1, Chunk: 100}))

	var f streamFrame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "error", f.Type)
	assert.Equal(t, http.StatusBadRequest, f.Status)
}

func TestStream_ClientGoneStopsRun(t *testing.T) {
	srv := newTestServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	startSession(t, srv, `{"session_id":"s1","initial_capital":10000,"preset":"balanced","seed":5}`)
	conn := dialStream(t, ts, "s1")
	require.NoError(t, conn.WriteJSON(streamRequest{RiskPercent: 0.5, Count: 500000, Chunk: 100}))

	var f streamFrame
	require.NoError(t, conn.ReadJSON(&f))
	require.Equal(t, "progress", f.Type)
	require.NoError(t, conn.Close())

	// The trade waits for the session lock held by the stream. The stream
	// is abandoned without saving, so this is the first trade.
	rec, out := doJSON(t, srv, http.MethodPost, "/api/sessions/s1/trades", `{"risk_percent":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), out["trade"].(map[string]any)["trade_number"])
}

func TestStream_UnknownSession(t *testing.T) {
	srv := newTestServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialStream(t, ts, "missing")
	require.NoError(t, conn.WriteJSON(streamRequest{RiskPercent: 1, Count: 10}))

	var f streamFrame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "error", f.Type)
	assert.Equal(t, http.StatusNotFound, f.Status)
}

func TestSimulationsAndReports(t *testing.T) {
	srv := newTestServer()

	rec, out := doJSON(t, srv, http.MethodPost, "/api/simulations", `{
		"batch_name": "api batch",
		"simulations": [
			{"strategy_key":"drawdown_linear","num_simulations":3,"num_trades":100,"initial_capital":10000},
			{"strategy_key":"win_streak","num_simulations":2,"num_trades":50,"initial_capital":5000,"preset":"aggressive"}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	batch := out["batch"].(map[string]any)
	assert.Equal(t, "completed", batch["status"])
	assert.Equal(t, float64(5), batch["total_simulations"])
	assert.Len(t, out["aggregates"], 2)
	batchID := batch["batch_id"].(string)

	rec, out = doJSON(t, srv, http.MethodGet, "/api/batches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["batches"], 1)

	rec, out = doJSON(t, srv, http.MethodGet, "/api/batches/"+batchID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	aggs := out["aggregates"].([]any)
	require.Len(t, aggs, 2)
	assert.Contains(t, aggs[0].(map[string]any), "performance_mean")

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/batches/"+batchID+"/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# Simulation Report: api batch")

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/batches/"+batchID+"/report?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "rank,unique_key"))

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/batches/"+batchID+"/report?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/batches/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunSimulations_Rejects(t *testing.T) {
	srv := newTestServer()

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/simulations", `{"simulations":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/simulations",
		`{"simulations":[{"strategy_key":"nope","num_simulations":1,"num_trades":10,"initial_capital":10000}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out := doJSON(t, srv, http.MethodGet, "/api/batches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, out["batches"])
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, errorStatus(service.ErrSessionNotFound))
	assert.Equal(t, http.StatusInternalServerError, errorStatus(assert.AnError))
}
