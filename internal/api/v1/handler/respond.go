package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"gymsubs/internal/api/v1/dto"
	"gymsubs/internal/service"

	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, v any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string, logger zerolog.Logger) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg}, logger)
}

// writeServiceError maps service errors onto HTTP statuses. A failed limit check
// wraps its cause, so ErrNoEntitlement is matched first.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	switch {
	case errors.Is(err, service.ErrInvalidResource):
		writeError(w, http.StatusBadRequest, err.Error(), logger)
	case errors.Is(err, service.ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "plan not found", logger)
	case errors.Is(err, service.ErrNoEntitlement):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "could not resolve subscription", LimitReached: true}, logger)
	case errors.Is(err, service.ErrConfiguration):
		logger.Error().Err(err).Msg("subscription configuration error")
		writeError(w, http.StatusInternalServerError, "subscription plans are not configured", logger)
	case errors.Is(err, service.ErrTransitionFailed):
		writeError(w, http.StatusInternalServerError, "failed to change plan", logger)
	default:
		logger.Error().Err(err).Msg("unexpected service error")
		writeError(w, http.StatusInternalServerError, "internal server error", logger)
	}
}
