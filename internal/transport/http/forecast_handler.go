package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	forecaster "github.com/aouyang1/chronos"
	"github.com/aouyang1/chronos/internal/config"
	apierrors "github.com/aouyang1/chronos/internal/errors"
	"github.com/aouyang1/chronos/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/hlog"
)

const (
	fileField    = "file"
	horizonField = "horizon"
)

// ForecastHandler serves the upload page and the forecast api
type ForecastHandler struct {
	service  *service.ForecastService
	cfg      config.ForecastConfig
	maxBytes int64
	validate *validator.Validate
}

func NewForecastHandler(svc *service.ForecastService, cfg config.ForecastConfig, maxBytes int64) *ForecastHandler {
	return &ForecastHandler{
		service:  svc,
		cfg:      cfg,
		maxBytes: maxBytes,
		validate: validator.New(),
	}
}

// Routes mounts the page and api endpoints
func (h *ForecastHandler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/preview", h.PreviewPage)
	r.Post("/forecast", h.ForecastPage)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/preview", h.PreviewJSON)
		r.Post("/forecast", h.ForecastJSON)
		r.Post("/forecast.csv", h.ForecastCSV)
		r.Post("/forecast.xlsx", h.ForecastXLSX)
	})
}

// upload is a parsed request: the csv body and the requested horizon
type upload struct {
	body    io.Reader
	horizon int
}

// readUpload accepts either a multipart form with a file field or a raw csv body. The horizon
// comes from the form or the query string and defaults to the configured horizon.
func (h *ForecastHandler) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	var body io.Reader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxBytes); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, err
			}
			return nil, apierrors.ErrMissingFile
		}
		file, _, err := r.FormFile(fileField)
		if err != nil {
			return nil, apierrors.ErrMissingFile
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	} else {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, apierrors.ErrMissingFile
		}
		body = bytes.NewReader(data)
	}

	horizon, err := h.horizon(r.FormValue(horizonField))
	if err != nil {
		return nil, err
	}
	return &upload{body: body, horizon: horizon}, nil
}

func (h *ForecastHandler) horizon(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.cfg.DefaultHorizon, nil
	}
	horizon, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.Validation(horizonField, fmt.Sprintf("%q is not a whole number of days", raw))
	}
	tag := fmt.Sprintf("min=%d,max=%d", h.cfg.MinHorizon, h.cfg.MaxHorizon)
	if err := h.validate.Var(horizon, tag); err != nil {
		return 0, apierrors.Validation(horizonField,
			fmt.Sprintf("must be between %d and %d days", h.cfg.MinHorizon, h.cfg.MaxHorizon))
	}
	return horizon, nil
}

// classify maps pipeline errors onto api errors
func classify(err error) *apierrors.APIError {
	var stageErr *service.StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case service.ErrPrepare:
			return apierrors.InvalidUpload(stageErr.Err)
		case service.ErrForecast:
			return apierrors.ForecastFailed(stageErr.Err)
		}
	}
	return apierrors.As(err)
}

func (h *ForecastHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := classify(err)
	logRequestError(r, apiErr, err)
	_ = render.Render(w, r, apiErr)
}

func logRequestError(r *http.Request, apiErr *apierrors.APIError, err error) {
	evt := hlog.FromRequest(r).Info()
	if apiErr.StatusCode >= http.StatusInternalServerError {
		evt = hlog.FromRequest(r).Error()
	}
	evt.Err(err).Str("error_code", apiErr.ErrorCode).Int("status", apiErr.StatusCode).Msg("request failed")
}

func (h *ForecastHandler) page() pageData {
	return pageData{
		Horizon:      h.cfg.DefaultHorizon,
		MinHorizon:   h.cfg.MinHorizon,
		MaxHorizon:   h.cfg.MaxHorizon,
		ShowHolidays: h.cfg.HolidayCountry != "",
	}
}

func (h *ForecastHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "layout", data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("unable to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *ForecastHandler) renderPageError(w http.ResponseWriter, r *http.Request, data pageData, err error) {
	// no upload yet is the idle state, not a failure
	if errors.Is(err, apierrors.ErrMissingFile) {
		h.renderPage(w, r, http.StatusOK, data)
		return
	}
	apiErr := classify(err)
	logRequestError(r, apiErr, err)
	data.Error = apiErr.Message
	h.renderPage(w, r, apiErr.StatusCode, data)
}

// Index handles GET /
func (h *ForecastHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, h.page())
}

// PreviewPage handles POST /preview
func (h *ForecastHandler) PreviewPage(w http.ResponseWriter, r *http.Request) {
	data := h.page()
	up, err := h.readUpload(w, r)
	if err != nil {
		h.renderPageError(w, r, data, err)
		return
	}
	data.Horizon = up.horizon

	p, err := h.service.Preview(r.Context(), up.body)
	if err != nil {
		h.renderPageError(w, r, data, err)
		return
	}
	data.Preview = p
	h.renderPage(w, r, http.StatusOK, data)
}

// ForecastPage handles POST /forecast
func (h *ForecastHandler) ForecastPage(w http.ResponseWriter, r *http.Request) {
	data := h.page()
	up, err := h.readUpload(w, r)
	if err != nil {
		h.renderPageError(w, r, data, err)
		return
	}
	data.Horizon = up.horizon

	out, err := h.service.Run(r.Context(), up.body, up.horizon)
	if err != nil {
		h.renderPageError(w, r, data, err)
		return
	}
	data.Output = out
	h.renderPage(w, r, http.StatusOK, data)
}

func (h *ForecastHandler) run(w http.ResponseWriter, r *http.Request) (*service.Output, bool) {
	up, err := h.readUpload(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return nil, false
	}
	out, err := h.service.Run(r.Context(), up.body, up.horizon)
	if err != nil {
		h.renderError(w, r, err)
		return nil, false
	}
	return out, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		_ = render.Render(w, r, apierrors.As(fmt.Errorf("unable to encode response, %w", err)))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// PreviewJSON handles POST /api/v1/preview
func (h *ForecastHandler) PreviewJSON(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	p, err := h.service.Preview(r.Context(), up.body)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, r, p)
}

// ForecastJSON handles POST /api/v1/forecast
func (h *ForecastHandler) ForecastJSON(w http.ResponseWriter, r *http.Request) {
	out, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, out)
}

// ForecastCSV handles POST /api/v1/forecast.csv
func (h *ForecastHandler) ForecastCSV(w http.ResponseWriter, r *http.Request) {
	out, ok := h.run(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", forecaster.ExportContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", forecaster.ExportFilename))
	w.Header().Set("X-Run-ID", out.RunID)
	_, _ = w.Write(out.CSV)
}

// ForecastXLSX handles POST /api/v1/forecast.xlsx
func (h *ForecastHandler) ForecastXLSX(w http.ResponseWriter, r *http.Request) {
	out, ok := h.run(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := out.WriteXLSX(&buf); err != nil {
		h.renderError(w, r, fmt.Errorf("unable to write spreadsheet, %w", err))
		return
	}
	w.Header().Set("Content-Type", forecaster.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", forecaster.XLSXFilename))
	w.Header().Set("X-Run-ID", out.RunID)
	_, _ = w.Write(buf.Bytes())
}
