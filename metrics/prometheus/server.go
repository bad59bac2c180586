package prometheus

import (
	// Go Internal Packages
	"encoding/json"
	"net/http"

	// External Packages
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter serves /metrics from gatherer and /healthz from state.
// /healthz answers 503 while the push connection is not connected.
func NewRouter(gatherer prometheus.Gatherer, state func() string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		current := state()
		w.Header().Set("Content-Type", "application/json")
		if current != "connected" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"push": current})
	})
	return r
}
