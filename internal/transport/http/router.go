// Package http exposes the forecaster over HTTP: an upload page rendered on the server and a
// small JSON api returning the same results.
package http

import (
	"net/http"
	"time"

	"github.com/aouyang1/chronos/internal/config"
	apierrors "github.com/aouyang1/chronos/internal/errors"
	"github.com/aouyang1/chronos/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Deps are the collaborators the router needs
type Deps struct {
	Config   *config.Config
	Service  *service.ForecastService
	Logger   zerolog.Logger
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(d.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	h := NewForecastHandler(d.Service, d.Config.Forecast, d.Config.Server.MaxUploadBytes)
	r.Group(func(r chi.Router) {
		if d.Config.RateLimit.Enabled {
			r.Use(NewRateLimiter(d.Config.RateLimit.RPS, d.Config.RateLimit.Burst).Handler)
		}
		h.Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = render.Render(w, r, apierrors.ErrNotFound)
	})
	return r
}

// requestIDLogger adds the chi request id to every log line of the request
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Stringer("url", r.URL).
		Str("remote_addr", r.RemoteAddr).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
