package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"
)

// RetentionRunner is the retention workflow as seen by the HTTP trigger.
type RetentionRunner interface {
	Run(ctx context.Context) (int, error)
}

// RetentionAPI lets an external scheduler trigger a retention run on demand.
type RetentionAPI struct {
	Runner RetentionRunner
	Logger *slog.Logger
}

func NewRetentionAPI(runner RetentionRunner, logger *slog.Logger) *RetentionAPI {
	return &RetentionAPI{
		Runner: runner,
		Logger: logger.With("component", "RetentionAPI"),
	}
}

type RetentionResponse struct {
	Deleted int `json:"deleted"`
}

func (api *RetentionAPI) TriggerRetention(w http.ResponseWriter, r *http.Request) {
	deleted, err := api.Runner.Run(r.Context())
	if err != nil {
		api.Logger.Error("retention run failed", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "retention failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(RetentionResponse{Deleted: deleted}); err != nil {
		api.Logger.Warn("failed to write retention response", "err", err)
	}
}
