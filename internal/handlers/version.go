package handlers

import (
	"net/http"

	"photo-library/internal/startup"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GetVersion reports the build metadata baked in at compile time.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}

// MetricsHandler serves the default Prometheus registry.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
