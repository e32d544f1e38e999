package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"takatrack/internal/core"
	"takatrack/internal/ledger"
	"takatrack/internal/log"
	"takatrack/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	led, err := ledger.New(context.Background(), storage.NewMemoryStore(), logger)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	srv := NewServer(":0", led, logger)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		led.Close()
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHandleState(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	snap := decodeBody[ledger.Snapshot](t, rec)
	if snap.CurrentMonth == "" {
		t.Fatal("expected a current month")
	}
	if !snap.ActiveMonth.IsOpen {
		t.Fatal("expected active month open")
	}
}

func TestIncomeEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPut, "/api/income", map[string]float64{"amount": 5000})
	if rec.Code != http.StatusOK {
		t.Fatalf("set income status = %d; want 200", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/income/adjust", map[string]float64{"delta": -1000})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust income status = %d; want 200", rec.Code)
	}
	got := decodeBody[map[string]float64](t, rec)
	if got["income"] != 4000 {
		t.Fatalf("income = %v; want 4000", got["income"])
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/income", map[string]float64{"amount": -1})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative income status = %d; want 422", rec.Code)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"amount":   120.5,
		"category": "Food",
		"note":     "weekly shop",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add expense status = %d; want 201: %s", rec.Code, rec.Body)
	}
	tx := decodeBody[core.Transaction](t, rec)
	if tx.ID == 0 {
		t.Fatal("expected a transaction id")
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", tx.ID), nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("delete status = %d; want 202", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/expenses/%d/restore", tx.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("restore status = %d; want 204", rec.Code)
	}

	// Second restore has nothing pending.
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/expenses/%d/restore", tx.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second restore status = %d; want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"amount":   10,
		"category": "not-a-category",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad category status = %d; want 422", rec.Code)
	}
}

func TestGoalEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/goals", map[string]any{
		"name":         "New laptop",
		"targetAmount": 1500.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add goal status = %d; want 201: %s", rec.Code, rec.Body)
	}
	goal := decodeBody[core.Goal](t, rec)

	if rec := doJSON(t, srv, http.MethodPut, "/api/income", map[string]float64{"amount": 3000}); rec.Code != http.StatusOK {
		t.Fatalf("set income status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/goals/"+goal.ID+"/contribute", map[string]any{
		"amount": 200.0,
		"source": "leftover",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("contribute status = %d; want 200: %s", rec.Code, rec.Body)
	}
	updated := decodeBody[core.Goal](t, rec)
	if updated.CollectedAmount != 200 {
		t.Fatalf("collected = %v; want 200", updated.CollectedAmount)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/goals/"+goal.ID+"/contribute", map[string]any{
		"amount": 200.0,
		"source": "piggy-bank",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad source status = %d; want 422", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/goals/"+goal.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete goal status = %d; want 204", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/goals/"+goal.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing goal status = %d; want 404", rec.Code)
	}
}

func TestSavingsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPut, "/api/savings", map[string]any{"value": 500.0, "note": "opening balance"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set savings status = %d; want 200", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/savings/borrow", map[string]any{"amount": 800.0, "note": "car repair"})
	if rec.Code != http.StatusOK {
		t.Fatalf("borrow status = %d; want 200", rec.Code)
	}
	got := decodeBody[savingsResponse](t, rec)
	if got.Balance != 0 {
		t.Fatalf("balance after over-borrow = %v; want 0", got.Balance)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/savings", map[string]any{"value": -5.0})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative set status = %d; want 422", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/savings", nil)
	history := decodeBody[savingsResponse](t, rec)
	if len(history.History) != 2 {
		t.Fatalf("history length = %d; want 2", len(history.History))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPut, "/api/income", map[string]float64{"amount": 2000})
	doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{"amount": 300.0, "category": "Bills"})

	rec := doJSON(t, srv, http.MethodGet, "/api/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d; want 200", rec.Code)
	}
	m := decodeBody[core.Metrics](t, rec)
	if m.Leftover != 1700 {
		t.Fatalf("leftover = %v; want 1700", m.Leftover)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/metrics?month=1999-01", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown month status = %d; want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/metrics?month=gibberish", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("malformed month status = %d; want 422", rec.Code)
	}
}

func TestCloseMonthEndpointCachesClosedMetrics(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPut, "/api/income", map[string]float64{"amount": 2000})
	doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{"amount": 500.0, "category": "Food"})

	rec := doJSON(t, srv, http.MethodPost, "/api/month/close", map[string]any{"carryover": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("close status = %d; want 200: %s", rec.Code, rec.Body)
	}
	res := decodeBody[ledger.CloseResult](t, rec)
	if res.ClosingLeftover != 1500 {
		t.Fatalf("closing leftover = %v; want 1500", res.ClosingLeftover)
	}

	// First read populates the cache, second is served from it.
	for i := 0; i < 2; i++ {
		rec = doJSON(t, srv, http.MethodGet, "/api/metrics?month="+string(res.ClosedMonth), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("closed month metrics status = %d; want 200", rec.Code)
		}
		m := decodeBody[core.Metrics](t, rec)
		if m.Leftover != 1500 {
			t.Fatalf("cached leftover = %v; want 1500", m.Leftover)
		}
	}
	if srv.metricsCache.Size() != 1 {
		t.Fatalf("cache size = %d; want 1", srv.metricsCache.Size())
	}
}

func TestThemeEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPut, "/api/theme", map[string]string{"theme": "dark"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set theme status = %d; want 200", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/theme/toggle", nil)
	got := decodeBody[map[string]core.Theme](t, rec)
	if got["theme"] != core.ThemeLight {
		t.Fatalf("theme after toggle = %v; want light", got["theme"])
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/theme", map[string]string{"theme": "sepia"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad theme status = %d; want 422", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d; want 200", path, rec.Code)
		}
	}
}
