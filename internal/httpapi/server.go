package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"waphone/internal/observability"
)

type Server struct {
	Router *mux.Router
}

// New builds the API router with health endpoints and request middleware.
// Handlers are added with API.Register.
func New(readyTimeout time.Duration, checks ...ReadyzCheck) *Server {
	r := mux.NewRouter()
	r.Use(Logging, Metrics(observability.APIRequests))
	r.HandleFunc("/healthz", Healthz()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", Readyz(readyTimeout, checks...)).Methods(http.MethodGet)
	return &Server{Router: r}
}

// MetricsHandler serves the registry on its own listener.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return m
}
