package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

// TokenAPI lets an authenticated client register or remove its own device tokens.
type TokenAPI struct {
	Store  dispatch.TokenStore
	Logger *slog.Logger
}

func NewTokenAPI(store dispatch.TokenStore, logger *slog.Logger) *TokenAPI {
	return &TokenAPI{
		Store:  store,
		Logger: logger.With("component", "TokenAPI"),
	}
}

type TokenRequest struct {
	Token string `json:"token"`
}

func (api *TokenAPI) RegisterToken(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := api.decode(w, r)
	if !ok {
		return
	}

	err := api.Store.RegisterToken(r.Context(), userID, req.Token)
	if errors.Is(err, dispatch.ErrStaleCache) {
		api.Logger.Warn("token registered but cache not cleared", "user_id", userID, "err", err)
		err = nil
	}
	if err != nil {
		api.Logger.Error("failed to register token", "user_id", userID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Logger.Debug("Token registered", "user_id", userID)

	w.WriteHeader(http.StatusNoContent)
}

func (api *TokenAPI) UnregisterToken(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := api.decode(w, r)
	if !ok {
		return
	}

	if err := api.Store.DeleteTokens(r.Context(), userID, []string{req.Token}); err != nil {
		// Log but don't fail hard; idempotency is preferred for unregister
		api.Logger.Warn("failed to unregister token", "user_id", userID, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *TokenAPI) decode(w http.ResponseWriter, r *http.Request) (string, TokenRequest, bool) {
	var req TokenRequest

	userID, ok := middleware.GetUserHandleFromContext(r.Context())
	if !ok || userID == "" {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return "", req, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return "", req, false
	}
	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return "", req, false
	}
	return userID, req, true
}
