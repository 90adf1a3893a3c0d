package notificationrelay

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tinywideclouds/go-notification-relay/internal/api"
)

type router interface {
	Handle(pattern string, handler http.Handler)
}

type routeDeps struct {
	tokenAPI    *api.TokenAPI
	retention   api.RetentionRunner
	httpTrigger bool
	cors        func(http.Handler) http.Handler
	auth        func(http.Handler) http.Handler
	registry    *prometheus.Registry
	logger      *slog.Logger
}

func registerRoutes(mux router, deps routeDeps) {
	protected := func(h http.HandlerFunc) http.Handler {
		return deps.cors(deps.auth(h))
	}

	mux.Handle("POST /api/v1/tokens", protected(deps.tokenAPI.RegisterToken))
	mux.Handle("POST /api/v1/tokens/delete", protected(deps.tokenAPI.UnregisterToken))

	// CORS preflight for the API namespace
	mux.Handle("OPTIONS /api/v1/", deps.cors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	// Retention deletes data, so the trigger needs the same JWT as the token API.
	if deps.httpTrigger {
		retentionAPI := api.NewRetentionAPI(deps.retention, deps.logger)
		mux.Handle("POST /tasks/retention", deps.auth(http.HandlerFunc(retentionAPI.TriggerRetention)))
	}

	mux.Handle("GET /metrics", promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{}))
}
