package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/chart"
	"salesboard/internal/core"
	applog "salesboard/internal/log"
	"salesboard/internal/sales/memory"
	"salesboard/internal/services"
)

// now is 2025-06-30 late in the UTC day.
var now = time.Date(2025, 6, 30, 23, 30, 0, 0, time.UTC)

func today() core.Date { return core.DateOf(now) }

func mkSale(c core.Category, amount string, d core.Date, desc string) core.Sale {
	return core.Sale{Category: c, Amount: decimal.RequireFromString(amount), Date: d, Description: desc}
}

// scenarioStore holds the three-record scenario used throughout.
func scenarioStore() *memory.Store {
	return memory.New(
		mkSale(core.Electronics, "100.00", today(), "television"),
		mkSale(core.Electronics, "50.00", today().AddDays(-1), "headphones"),
		mkSale(core.Food, "10.00", today().AddDays(-40), "old groceries"),
	)
}

func newTestServer(t *testing.T, store *memory.Store, rateLimit int) *Server {
	t.Helper()
	logger := applog.New(applog.Config{Output: io.Discard})
	srv := NewServer(":0", Deps{
		Analytics:          services.NewAnalyticsService(store).WithClock(func() time.Time { return now }),
		Sales:              services.NewSaleService(store, nil),
		Store:              store,
		Logger:             logger,
		RateLimitPerMinute: rateLimit,
	})
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeChart(t *testing.T, rec *httptest.ResponseRecorder) chart.Data {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var data chart.Data
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	require.Len(t, data.Datasets, 1)
	return data
}

func TestScenario_CategoryChart(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), 60)

	data := decodeChart(t, do(srv, http.MethodGet, "/api/sales-by-category/", ""))
	assert.Equal(t, []string{"ELEC", "FOOD"}, data.Labels)
	assert.Equal(t, []float64{150, 10}, data.Datasets[0].Data)
	assert.Equal(t, chart.CategoryDatasetLabel, data.Datasets[0].Label)
	assert.Equal(t, chart.Palette[:2], data.Datasets[0].BackgroundColor)
}

func TestScenario_TrendChart(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), 60)

	for _, target := range []string{"/trend/?format=json", "/api/sales-trend/"} {
		t.Run(target, func(t *testing.T) {
			data := decodeChart(t, do(srv, http.MethodGet, target, ""))
			assert.Equal(t, []string{"2025-06-29", "2025-06-30"}, data.Labels)
			assert.Equal(t, []float64{50, 100}, data.Datasets[0].Data)
			assert.Equal(t, chart.TrendBorderColor, data.Datasets[0].BorderColor)
			require.NotNil(t, data.Datasets[0].Tension)
			assert.InDelta(t, 0.1, *data.Datasets[0].Tension, 1e-9)
		})
	}
}

func TestScenario_CategorySumMatchesSummary(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), 60)

	data := decodeChart(t, do(srv, http.MethodGet, "/api/sales-by-category/", ""))
	var sum float64
	for _, v := range data.Datasets[0].Data {
		sum += v
	}

	rec := do(srv, http.MethodGet, "/api/summary/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		TotalSales          int64  `json:"total_sales"`
		TotalRevenue        string `json:"total_revenue"`
		TotalRevenueDisplay string `json:"total_revenue_display"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, int64(3), summary.TotalSales)
	assert.Equal(t, "160.00", summary.TotalRevenue)
	assert.Equal(t, "€160.00", summary.TotalRevenueDisplay)
	assert.InDelta(t, 160.0, sum, 1e-9)
}

func TestDashboardPage(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), 60)

	rec := do(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `id="total-sales">3<`)
	assert.Contains(t, body, "€160.00")
	assert.Contains(t, body, "/api/sales-by-category/")
}

func TestTrendPageListsWindowAscending(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), 60)

	rec := do(srv, http.MethodGet, "/trend/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "2025-05-31")
	assert.NotContains(t, body, "old groceries")
	first := strings.Index(body, "headphones")
	second := strings.Index(body, "television")
	require.True(t, first > 0 && second > 0)
	assert.Less(t, first, second, "rows ascending by date")
	assert.Contains(t, body, "€150.00")
}

func TestEmptyStore(t *testing.T) {
	srv := newTestServer(t, memory.New(), 60)

	rec := do(srv, http.MethodGet, "/api/sales-by-category/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"labels":[]`)
	assert.Contains(t, rec.Body.String(), `"data":[]`)

	rec = do(srv, http.MethodGet, "/api/sales-trend/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"labels":[]`)

	rec = do(srv, http.MethodGet, "/trend/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No sales in this period.")

	rec = do(srv, http.MethodGet, "/api/sales/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateSale(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store, 60)

	rec := do(srv, http.MethodPost, "/api/sales/",
		`{"category":"book","amount":"12.50","date":"2025-06-29","description":"  novel  "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":"1","category":"BOOK","category_label":"Books","amount":"12.50","date":"2025-06-29","description":"novel"}`,
		rec.Body.String())

	rec = do(srv, http.MethodPost, "/api/sales/", `{"category":"CLOT","amount":3,"date":"2025-06-30"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, 2, store.Len())
}

func TestCreateSaleRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"category":`, http.StatusBadRequest},
		{"unknown field", `{"category":"ELEC","amount":"1.00","date":"2025-06-30","qty":2}`, http.StatusBadRequest},
		{"unknown category", `{"category":"TOYS","amount":"1.00","date":"2025-06-30"}`, http.StatusUnprocessableEntity},
		{"missing amount", `{"category":"ELEC","date":"2025-06-30"}`, http.StatusUnprocessableEntity},
		{"three decimals", `{"category":"ELEC","amount":"1.005","date":"2025-06-30"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"category":"ELEC","amount":-1,"date":"2025-06-30"}`, http.StatusUnprocessableEntity},
		{"impossible date", `{"category":"ELEC","amount":"1.00","date":"2025-02-30"}`, http.StatusUnprocessableEntity},
		{"long description", `{"category":"ELEC","amount":"1.00","date":"2025-06-30","description":"` + strings.Repeat("x", 101) + `"}`, http.StatusUnprocessableEntity},
	}

	store := memory.New()
	srv := newTestServer(t, store, 1000)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(srv, http.MethodPost, "/api/sales/", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Equal(t, 0, store.Len())
}

func TestListSalesNewestFirst(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), 60)

	rec := do(srv, http.MethodGet, "/api/sales/?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out []saleJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "television", out[0].Description)
	assert.Equal(t, "headphones", out[1].Description)

	rec = do(srv, http.MethodGet, "/api/sales/?limit=abc", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out, 3)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), 60)

	cases := []struct {
		method, target, allow string
	}{
		{http.MethodPost, "/api/summary/", "GET"},
		{http.MethodDelete, "/api/sales-by-category/", "GET"},
		{http.MethodPut, "/api/sales/", "GET, POST"},
		{http.MethodPost, "/trend/", "GET"},
		{http.MethodPost, "/", "GET"},
	}
	for _, tc := range cases {
		rec := do(srv, tc.method, tc.target, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.target)
		assert.Equal(t, tc.allow, rec.Header().Get("Allow"), "%s %s", tc.method, tc.target)
	}
}

func TestStorageFailure(t *testing.T) {
	store := scenarioStore()
	store.Err = errors.New("disk on fire")
	srv := newTestServer(t, store, 60)

	for _, target := range []string{"/api/sales-by-category/", "/api/sales-trend/", "/api/summary/", "/api/sales/"} {
		rec := do(srv, http.MethodGet, target, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code, target)
		assert.JSONEq(t, `{"error":"sales data is temporarily unavailable"}`, rec.Body.String(), target)
		assert.NotContains(t, rec.Body.String(), "disk on fire")
	}

	rec := do(srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = do(srv, http.MethodPost, "/api/sales/", `{"category":"ELEC","amount":"1.00","date":"2025-06-30"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthReadyAndStatic(t *testing.T) {
	srv := newTestServer(t, memory.New(), 60)

	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodGet, "/nope", "").Code)

	rec := do(srv, http.MethodGet, "/static/app.css", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestResponseHeaders(t *testing.T) {
	srv := newTestServer(t, memory.New(), 60)

	rec := do(srv, http.MethodGet, "/api/summary/", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://cdn.jsdelivr.net")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRateLimitAppliesToWritesOnly(t *testing.T) {
	srv := newTestServer(t, memory.New(), 1)
	body := `{"category":"FOOD","amount":"2.00","date":"2025-06-30"}`

	assert.Equal(t, http.StatusCreated, do(srv, http.MethodPost, "/api/sales/", body).Code)
	rec := do(srv, http.MethodPost, "/api/sales/", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/api/sales/", "").Code)
	}
	_, _, _, limited := srv.Stats()
	assert.Equal(t, int64(1), limited)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(errBadRequest))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(core.ErrInvalidAmount))
	assert.Equal(t, http.StatusInternalServerError, statusFor(services.ErrStorageUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("other")))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb", sanitizeInput("  a\tb\x00\x07 "))
}
