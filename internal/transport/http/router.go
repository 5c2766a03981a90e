package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"huskelapp/internal/oppfolgingsoppgave/handler"
	"huskelapp/internal/platform/middleware"
)

// NewRouter wires all public endpoints. Note endpoints sit behind the
// NAVident middleware; probes and metrics do not.
func NewRouter(h *handler.Handler, registry *prometheus.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/isAlive", ok)
	r.Get("/isReady", ok)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/huskelapp", func(r chi.Router) {
		r.Use(middleware.RequireNavIdent(logger))
		h.Routes(r)
	})

	return r
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
