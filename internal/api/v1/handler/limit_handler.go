package handler

import (
	"fmt"
	"net/http"

	"gymsubs/internal/api/v1/dto"
	"gymsubs/internal/middleware"
	"gymsubs/internal/model"
	"gymsubs/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// LimitHandler exposes plan usage and feature checks.
type LimitHandler struct {
	limits       service.LimitService
	entitlements service.EntitlementService
	logger       zerolog.Logger
}

func NewLimitHandler(limits service.LimitService, entitlements service.EntitlementService, logger zerolog.Logger) *LimitHandler {
	return &LimitHandler{limits: limits, entitlements: entitlements, logger: logger}
}

func (h *LimitHandler) RegisterRoutes(r chi.Router) {
	r.Get("/limits", h.ListLimits)
	r.Get("/limits/{resource}", h.GetLimit)
	r.Get("/limits/{resource}/allowed", h.GetAllowed)
	r.Get("/features/{feature}", h.GetFeature)
}

// ListLimits godoc
// @Summary Usage against every plan limit
// @Tags limits
// @Produce json
// @Success 200 {object} dto.LimitsResponse
// @Failure 403 {object} dto.ErrorResponse "entitlement could not be resolved"
// @Router /limits [get]
func (h *LimitHandler) ListLimits(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}
	reports, err := h.limits.CheckAll(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, dto.LimitsResponse{UserID: userID, Limits: reports}, h.logger)
}

// GetLimit godoc
// @Summary Usage against one plan limit
// @Tags limits
// @Produce json
// @Param resource path string true "workout or custom_exercise"
// @Success 200 {object} model.UsageReport
// @Failure 400 {object} dto.ErrorResponse "unknown resource"
// @Failure 403 {object} dto.ErrorResponse "entitlement could not be resolved"
// @Router /limits/{resource} [get]
func (h *LimitHandler) GetLimit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}
	report, err := h.limits.Check(r.Context(), userID, model.Resource(chi.URLParam(r, "resource")))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, report, h.logger)
}

// GetAllowed godoc
// @Summary Whether one more resource may be created
// @Description Fails closed: any error resolving the plan or counting usage answers false.
// @Tags limits
// @Produce json
// @Param resource path string true "workout or custom_exercise"
// @Success 200 {object} dto.AllowedResponse
// @Failure 400 {object} dto.ErrorResponse "unknown resource"
// @Router /limits/{resource}/allowed [get]
func (h *LimitHandler) GetAllowed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}
	resource, ok := model.ParseResource(chi.URLParam(r, "resource"))
	if !ok {
		writeServiceError(w, fmt.Errorf("%w: %q", service.ErrInvalidResource, chi.URLParam(r, "resource")), h.logger)
		return
	}
	allowed := h.limits.Allowed(r.Context(), userID, resource)
	writeJSON(w, http.StatusOK, dto.AllowedResponse{Resource: resource, Allowed: allowed}, h.logger)
}

// GetFeature godoc
// @Summary Whether the user's plan enables a feature
// @Tags limits
// @Produce json
// @Param feature path string true "advanced_stats, cloud_backup or no_ads"
// @Success 200 {object} dto.FeatureResponse
// @Router /features/{feature} [get]
func (h *LimitHandler) GetFeature(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}
	feature := model.Feature(chi.URLParam(r, "feature"))
	enabled, err := h.entitlements.HasFeature(r.Context(), userID, feature)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, dto.FeatureResponse{Feature: feature, Enabled: enabled}, h.logger)
}
