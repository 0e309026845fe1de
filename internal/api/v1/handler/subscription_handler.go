package handler

import (
	"encoding/json"
	"net/http"

	"gymsubs/internal/api/v1/dto"
	"gymsubs/internal/middleware"
	"gymsubs/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SubscriptionHandler handles subscription-related endpoints.
type SubscriptionHandler struct {
	entitlements service.EntitlementService
	plans        service.PlanService
	validate     *validator.Validate
	logger       zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(entitlements service.EntitlementService, plans service.PlanService, v *validator.Validate, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{entitlements: entitlements, plans: plans, validate: v, logger: logger}
}

// RegisterRoutes registers the subscription endpoints.
func (h *SubscriptionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/subscriptions/me", h.GetEntitlement)
	r.Get("/subscriptions/plans", h.ListPlans)
	r.Post("/subscriptions/change", h.ChangePlan)
}

// GetEntitlement godoc
// @Summary Current subscription of the authenticated user
// @Tags subscriptions
// @Produce json
// @Success 200 {object} dto.EntitlementResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {object} dto.ErrorResponse
// @Router /subscriptions/me [get]
func (h *SubscriptionHandler) GetEntitlement(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}
	ent, err := h.entitlements.Resolve(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, dto.EntitlementResponse{Entitlement: ent}, h.logger)
}

// ListPlans godoc
// @Summary List subscription plans
// @Tags subscriptions
// @Produce json
// @Success 200 {array} dto.PlanResponse
// @Router /subscriptions/plans [get]
func (h *SubscriptionHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListPlans(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPlanResponses(plans), h.logger)
}

// ChangePlan godoc
// @Summary Move the authenticated user to another plan
// @Description Cancels the active subscription and starts a one-month subscription on the target plan.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param body body dto.ChangePlanRequest true "Target plan"
// @Success 200 {object} dto.ChangePlanResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "plan not found"
// @Failure 500 {object} dto.ErrorResponse
// @Router /subscriptions/change [post]
func (h *SubscriptionHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}
	var req dto.ChangePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload", h.logger)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error(), h.logger)
		return
	}

	change, err := h.plans.ChangePlan(r.Context(), userID, req.PlanID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, dto.ChangePlanResponse{
		PlanID:         change.PlanID,
		PlanName:       change.PlanName,
		SubscriptionID: change.SubscriptionID,
		StartDate:      change.StartDate,
		EndDate:        change.EndDate,
	}, h.logger)
}
