package notificationrelay

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/tinywideclouds/go-notification-relay/internal/api"
)

type countingRunner struct {
	calls int
}

func (r *countingRunner) Run(context.Context) (int, error) {
	r.calls++
	return 3, nil
}

// requireBearer stands in for the JWKS middleware.
func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func passthrough(next http.Handler) http.Handler { return next }

func newTestMux(runner *countingRunner, httpTrigger bool) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	registerRoutes(mux, routeDeps{
		tokenAPI:    api.NewTokenAPI(nil, logger),
		retention:   runner,
		httpTrigger: httpTrigger,
		cors:        passthrough,
		auth:        requireBearer,
		registry:    prometheus.NewRegistry(),
		logger:      logger,
	})
	return mux
}

func TestRetentionTriggerRoute(t *testing.T) {
	t.Run("Anonymous caller cannot start a run", func(t *testing.T) {
		runner := &countingRunner{}
		w := httptest.NewRecorder()

		newTestMux(runner, true).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks/retention", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 0, runner.calls)
	})

	t.Run("Authenticated caller starts a run", func(t *testing.T) {
		runner := &countingRunner{}
		req := httptest.NewRequest(http.MethodPost, "/tasks/retention", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()

		newTestMux(runner, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"deleted":3}`, w.Body.String())
		assert.Equal(t, 1, runner.calls)
	})

	t.Run("Not mounted unless enabled", func(t *testing.T) {
		runner := &countingRunner{}
		req := httptest.NewRequest(http.MethodPost, "/tasks/retention", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()

		newTestMux(runner, false).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, 0, runner.calls)
	})
}

func TestTokenRoutesRequireAuth(t *testing.T) {
	w := httptest.NewRecorder()

	newTestMux(&countingRunner{}, false).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tokens", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
