package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"OsloScan/internal/domain/models"
	"OsloScan/internal/service/ratelimit"
	"OsloScan/internal/usecase"
	"OsloScan/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type fakeScreener struct {
	calls   int
	lastReq *models.ScreenerRequest
	err     error
}

func (f *fakeScreener) Scan(ctx context.Context, source string, req *models.ScreenerRequest, fn usecase.ProgressFunc) (*models.ScreenerReport, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	tickers := req.NormalizedTickers()
	for i, t := range tickers {
		if fn != nil {
			fn(models.ScanEvent{Ticker: t, Index: i, Status: models.StatusRejected, Done: i + 1, Total: len(tickers)})
		}
	}
	return &models.ScreenerReport{
		RequestID:    "req-1",
		Results:      []models.ScreenerMatch{},
		TotalScanned: len(tickers),
		Criteria:     req.ScreenerCriteria(),
		GeneratedAt:  time.Unix(0, 0).UTC(),
	}, nil
}

type fakeIndicators struct {
	snap *models.IndicatorSnapshot
	err  error
}

func (f *fakeIndicators) Snapshot(ctx context.Context, ticker string) (*models.IndicatorSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := *f.snap
	s.Ticker = ticker
	return &s, nil
}

func newTestEcho(s Screener, ind Indicators, l *ratelimit.Limiter) *echo.Echo {
	e := echo.New()
	h := NewHandler(logger.Nop(), s, ind, HealthInfo{TalibAvailable: true, Engine: "accelerated", Provider: "yahoo"}, l)
	h.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealth(t *testing.T) {
	e := newTestEcho(&fakeScreener{}, &fakeIndicators{}, nil)
	rec := do(e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m := decode(t, rec)
	if m["status"] != "healthy" || m["talib_available"] != true || m["engine"] != "accelerated" || m["provider"] != "yahoo" {
		t.Fatalf("unexpected health body %v", m)
	}
}

func TestIndicatorsNoDataIs404(t *testing.T) {
	e := newTestEcho(&fakeScreener{}, &fakeIndicators{err: fmt.Errorf("lookup: %w", models.ErrNoDataAvailable)}, nil)
	rec := do(e, http.MethodGet, "/indicators/NOPE", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	m := decode(t, rec)
	if m["error"] != "No data available" || m["code"] != "ERR_NO_DATA" {
		t.Fatalf("unexpected body %v", m)
	}
}

func TestIndicatorsUpstreamIs502(t *testing.T) {
	e := newTestEcho(&fakeScreener{}, &fakeIndicators{err: fmt.Errorf("%w: timeout", models.ErrUpstream)}, nil)
	rec := do(e, http.MethodGet, "/indicators/EQNR", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if m := decode(t, rec); m["code"] != "ERR_UPSTREAM" {
		t.Fatalf("unexpected body %v", m)
	}
}

func TestIndicatorsComputationFailureIsGeneric500(t *testing.T) {
	e := newTestEcho(&fakeScreener{}, &fakeIndicators{err: fmt.Errorf("%w: boom", models.ErrComputationFailure)}, nil)
	rec := do(e, http.MethodGet, "/indicators/EQNR", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestIndicatorsUndefinedValuesAreNull(t *testing.T) {
	e := newTestEcho(&fakeScreener{}, &fakeIndicators{snap: &models.IndicatorSnapshot{LatestPrice: 100, Bars: 5}}, nil)
	rec := do(e, http.MethodGet, "/indicators/EQNR", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"rsi":null`, `"macd":{"macd":null,"signal":null,"histogram":null}`, `"upper":null`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
	if strings.Contains(body, "NaN") {
		t.Fatalf("NaN leaked into %s", body)
	}
}

func TestScreenerBadBodyIs400(t *testing.T) {
	s := &fakeScreener{}
	e := newTestEcho(s, &fakeIndicators{}, nil)

	for _, body := range []string{`{`, `{"tickers":["EQNR"],"criteria":{"rsi_min":-5}}`, `{"tickers":["` + strings.Repeat("X", 33) + `"]}`} {
		rec := do(e, http.MethodPost, "/screener", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
		if m := decode(t, rec); m["code"] != "ERR_VALIDATION" {
			t.Fatalf("body %s: unexpected response %v", body, m)
		}
	}
	if s.calls != 0 {
		t.Fatalf("screener should not run on invalid input")
	}
}

func TestScreenerEmptyTickersGiveEmptyReport(t *testing.T) {
	for _, body := range []string{`{"tickers":[]}`, `{"tickers":["  "]}`, `{}`} {
		s := &fakeScreener{}
		e := newTestEcho(s, &fakeIndicators{}, nil)
		rec := do(e, http.MethodPost, "/screener", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("body %s: expected 200, got %d: %s", body, rec.Code, rec.Body.String())
		}
		m := decode(t, rec)
		results, ok := m["results"].([]interface{})
		if !ok || len(results) != 0 || m["total_scanned"] != float64(0) || m["matches"] != float64(0) {
			t.Fatalf("body %s: expected empty report, got %v", body, m)
		}
	}
}

func TestScreenerManyTickersAccepted(t *testing.T) {
	tickers := make([]string, 250)
	for i := range tickers {
		tickers[i] = fmt.Sprintf("T%d", i)
	}
	b, _ := json.Marshal(map[string]interface{}{"tickers": tickers})
	s := &fakeScreener{}
	rec := do(newTestEcho(s, &fakeIndicators{}, nil), http.MethodPost, "/screener", string(b))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if m := decode(t, rec); m["total_scanned"] != float64(250) {
		t.Fatalf("unexpected total_scanned %v", m["total_scanned"])
	}
}

func TestScreenerDefaultsCriteria(t *testing.T) {
	s := &fakeScreener{}
	e := newTestEcho(s, &fakeIndicators{}, nil)
	rec := do(e, http.MethodPost, "/screener", `{"tickers":["EQNR","DNB"],"criteria":{"rsi_max":60}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	m := decode(t, rec)
	if m["total_scanned"] != float64(2) {
		t.Fatalf("unexpected total_scanned %v", m["total_scanned"])
	}
	results, ok := m["results"].([]interface{})
	if !ok || len(results) != 0 {
		t.Fatalf("results should be an empty array, got %v", m["results"])
	}
	crit := m["criteria"].(map[string]interface{})
	if crit["rsi_min"] != float64(30) || crit["rsi_max"] != float64(60) || crit["volume_spike"] != 1.5 {
		t.Fatalf("unexpected criteria %v", crit)
	}
}

func TestScreenerFailureIs500(t *testing.T) {
	e := newTestEcho(&fakeScreener{err: errors.New("db down")}, &fakeIndicators{}, nil)
	rec := do(e, http.MethodPost, "/screener", `{"tickers":["EQNR"]}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestScreenerRateLimited(t *testing.T) {
	e := newTestEcho(&fakeScreener{}, &fakeIndicators{}, ratelimit.New(1, 0.01))

	if rec := do(e, http.MethodPost, "/screener", `{"tickers":["EQNR"]}`); rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}
	rec := do(e, http.MethodPost, "/screener", `{"tickers":["EQNR"]}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
	if m := decode(t, rec); m["code"] != "ERR_RATE_LIMITED" {
		t.Fatalf("unexpected body %v", m)
	}
	// health is not limited
	if rec := do(e, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health should not be rate limited, got %d", rec.Code)
	}
}

func TestScreenerWebSocketStreamsProgressAndReport(t *testing.T) {
	srv := httptest.NewServer(newTestEcho(&fakeScreener{}, &fakeIndicators{}, nil))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/screener", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]interface{}{"tickers": []string{"EQNR", "DNB", "NHY"}}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var progress int
	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var f wsFrame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read: %v", err)
		}
		if f.Type == frameProgress {
			progress++
			if f.Event == nil || f.Event.Done != progress || f.Event.Total != 3 {
				t.Fatalf("unexpected progress frame %+v", f.Event)
			}
			continue
		}
		if f.Type != frameReport || f.Report == nil {
			t.Fatalf("expected report frame, got %+v", f)
		}
		if f.Report.TotalScanned != 3 {
			t.Fatalf("unexpected total_scanned %d", f.Report.TotalScanned)
		}
		break
	}
	if progress != 3 {
		t.Fatalf("expected 3 progress frames, got %d", progress)
	}
}

func TestScreenerWebSocketInvalidRequest(t *testing.T) {
	s := &fakeScreener{}
	srv := httptest.NewServer(newTestEcho(s, &fakeIndicators{}, nil))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/screener", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]interface{}{"tickers": []string{"EQNR"}, "criteria": map[string]float64{"rsi_max": 101}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f wsFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Type != frameError || f.Code != "ERR_VALIDATION" {
		t.Fatalf("expected validation error frame, got %+v", f)
	}
	if s.calls != 0 {
		t.Fatalf("screener should not run")
	}
}
