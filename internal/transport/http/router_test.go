package http

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	forecaster "github.com/aouyang1/chronos"
	"github.com/aouyang1/chronos/internal/config"
	apierrors "github.com/aouyang1/chronos/internal/errors"
	"github.com/aouyang1/chronos/internal/metrics"
	"github.com/aouyang1/chronos/internal/service"
	"github.com/aouyang1/chronos/timedataset"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func salesCSV(days int) string {
	var sb strings.Builder
	sb.WriteString("date,sales\n")
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, d := range timedataset.DailyRange(start, days) {
		v := 500 + 60*math.Sin(2*math.Pi*float64(i)/7) + float64((i*13)%7)
		fmt.Fprintf(&sb, "%s,%.1f\n", d.Format(time.DateOnly), v)
	}
	return sb.String()
}

func newTestRouter(t *testing.T, mutate func(c *config.Config)) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	reg := prometheus.NewRegistry()
	svc, err := service.NewForecastService(nil, metrics.New(reg), zerolog.Nop())
	require.Nil(t, err)

	return NewRouter(Deps{
		Config:   cfg,
		Service:  svc,
		Logger:   zerolog.Nop(),
		Gatherer: reg,
	})
}

func multipartRequest(t *testing.T, path, csv, horizon string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if csv != "" {
		fw, err := mw.CreateFormFile(fileField, "vendas.csv")
		require.Nil(t, err)
		_, err = io.WriteString(fw, csv)
		require.Nil(t, err)
	}
	if horizon != "" {
		require.Nil(t, mw.WriteField(horizonField, horizon))
	}
	require.Nil(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, path, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestIndex(t *testing.T) {
	h := newTestRouter(t, nil)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "Waiting for a CSV upload…")
	assert.Contains(t, body, `min="7" max="90" value="30"`)
}

func TestPages(t *testing.T) {
	testData := map[string]struct {
		path     string
		csv      string
		horizon  string
		status   int
		contains []string
		excludes []string
	}{
		"forecast": {
			path:    "/forecast",
			csv:     salesCSV(100),
			horizon: "14",
			status:  http.StatusOK,
			contains: []string{
				"Forecast complete!",
				"srcdoc=",
				"Sales forecast - next 14 days",
				"data:text/csv;charset=utf-8;base64,",
				`download="previsao_vendas.csv"`,
				"<td>2024-06-09</td>",
				"<td>2024-06-22</td>",
			},
			excludes: []string{"<td>2024-06-23</td>", "Waiting for a CSV upload"},
		},
		"preview": {
			path:     "/preview",
			csv:      salesCSV(20),
			status:   http.StatusOK,
			contains: []string{"Historical data", "20 days from 2024-03-01 to 2024-03-20"},
			excludes: []string{"outside the usual range"},
		},
		"preview with outlier": {
			path:     "/preview",
			csv:      "date,sales\n2024-03-01,10\n2024-03-02,11\n2024-03-03,10\n2024-03-04,12\n2024-03-05,95\n2024-03-06,11\n",
			status:   http.StatusOK,
			contains: []string{"1 day(s) fall outside the usual range", "2024-03-05 (95.00)"},
		},
		"invalid date": {
			path:   "/forecast",
			csv:    "date,sales\n2024-01-01,10\nyesterday,11\n",
			status: http.StatusUnprocessableEntity,
			contains: []string{
				"Error processing the file: row 3:",
				"Check that the CSV has valid dates and numbers.",
			},
			excludes: []string{"Forecast complete!"},
		},
		"too little data": {
			path:     "/forecast",
			csv:      salesCSV(9),
			status:   http.StatusUnprocessableEntity,
			contains: []string{"Unable to generate the forecast:"},
		},
		"missing file shows idle state": {
			path:     "/forecast",
			horizon:  "30",
			status:   http.StatusOK,
			contains: []string{"Waiting for a CSV upload…"},
			excludes: []string{`class="error"`, "Forecast complete!"},
		},
		"missing file on preview shows idle state": {
			path:     "/preview",
			status:   http.StatusOK,
			contains: []string{"Waiting for a CSV upload…"},
			excludes: []string{`class="error"`},
		},
		"horizon below range": {
			path:     "/forecast",
			csv:      salesCSV(60),
			horizon:  "6",
			status:   http.StatusBadRequest,
			contains: []string{"must be between 7 and 90 days"},
		},
		"horizon not a number": {
			path:     "/forecast",
			csv:      salesCSV(60),
			horizon:  "thirty",
			status:   http.StatusBadRequest,
			contains: []string{"is not a whole number of days"},
		},
	}

	h := newTestRouter(t, nil)
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			w := serve(h, multipartRequest(t, td.path, td.csv, td.horizon))
			assert.Equal(t, td.status, w.Code)
			body := w.Body.String()
			for _, s := range td.contains {
				assert.Contains(t, body, s)
			}
			for _, s := range td.excludes {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestForecastJSON(t *testing.T) {
	h := newTestRouter(t, nil)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/forecast?horizon=7", strings.NewReader(salesCSV(60)))
	r.Header.Set("Content-Type", "text/csv")
	w := serve(h, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var out struct {
		RunID    string           `json:"run_id"`
		Horizon  int              `json:"horizon"`
		Forecast []forecaster.Row `json:"forecast"`
		History  []service.Point  `json:"history"`
		Model    forecaster.Model `json:"model"`
	}
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, 7, out.Horizon)
	require.Len(t, out.Forecast, 7)
	assert.Len(t, out.History, 60)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), out.Forecast[0].Date)
	assert.Equal(t, "(1,1,1)(1,1,0,7)", out.Model.SARIMA.Order.String())
}

func TestForecastDefaultHorizon(t *testing.T) {
	h := newTestRouter(t, nil)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/forecast.csv", strings.NewReader(salesCSV(60)))
	w := serve(h, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="previsao_vendas.csv"`, w.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, w.Header().Get("X-Run-ID"))

	res, err := forecaster.ReadCSV(w.Body)
	require.Nil(t, err)
	assert.Equal(t, 30, res.Len())
}

func TestForecastXLSX(t *testing.T) {
	h := newTestRouter(t, nil)
	w := serve(h, multipartRequest(t, "/api/v1/forecast.xlsx", salesCSV(60), "10"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, forecaster.XLSXContentType, w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(w.Body)
	require.Nil(t, err)
	defer f.Close()
	rows, err := f.GetRows(forecaster.XLSXSheet)
	require.Nil(t, err)
	assert.Len(t, rows, 11)
}

func TestAPIErrors(t *testing.T) {
	testData := map[string]struct {
		path   string
		body   string
		status int
		code   string
	}{
		"invalid upload":  {path: "/api/v1/forecast", body: "date,sales\n2024-01-01,abc\n", status: http.StatusUnprocessableEntity, code: "INVALID_UPLOAD"},
		"empty body":      {path: "/api/v1/forecast", body: "", status: http.StatusBadRequest, code: "MISSING_FILE"},
		"bad horizon":     {path: "/api/v1/forecast?horizon=91", body: salesCSV(30), status: http.StatusBadRequest, code: "VALIDATION_FAILED"},
		"preview invalid": {path: "/api/v1/preview", body: "only,\n", status: http.StatusUnprocessableEntity, code: "INVALID_UPLOAD"},
		"too large":       {path: "/api/v1/forecast", body: salesCSV(400), status: http.StatusRequestEntityTooLarge, code: "PAYLOAD_TOO_LARGE"},
	}
	h := newTestRouter(t, func(c *config.Config) { c.Server.MaxUploadBytes = 4096 })
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			w := serve(h, httptest.NewRequest(http.MethodPost, td.path, strings.NewReader(td.body)))
			assert.Equal(t, td.status, w.Code)

			var apiErr apierrors.APIError
			require.Nil(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			assert.Equal(t, td.code, apiErr.ErrorCode)
			assert.Equal(t, td.status, apiErr.StatusCode)
		})
	}
}

func TestPreviewJSON(t *testing.T) {
	h := newTestRouter(t, nil)
	w := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/preview", strings.NewReader(salesCSV(15))))
	require.Equal(t, http.StatusOK, w.Code)

	var p service.Preview
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, 15, p.Days)
	assert.Equal(t, "2024-03-01", p.Start)
	assert.Len(t, p.History, 15)
}

func TestOperationalRoutes(t *testing.T) {
	h := newTestRouter(t, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/forecast", strings.NewReader("x,y\n")))
	w = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `chronos_requests_total{operation="forecast",outcome="invalid_upload"} 1`)

	w = serve(h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestRateLimitedRoutes(t *testing.T) {
	h := newTestRouter(t, func(c *config.Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.RPS = 0.001
		c.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	// health checks are not limited
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}
