package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"commtracker-backend/internal/middleware"
	"commtracker-backend/internal/model"
	"commtracker-backend/internal/service"
	"commtracker-backend/internal/utils"

	"go.uber.org/zap"
)

type DashboardHandler struct {
	DashboardService *service.DashboardService
	Logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{DashboardService: dashboardService, Logger: logger}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	summary, err := h.DashboardService.Summary(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, summary, "")
}

// AddSpending accepts the amount as a JSON number or string, e.g. 12.5 or "12.50".
func (h *DashboardHandler) AddSpending(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req struct {
		Amount      json.Number `json:"amount"`
		Description string      `json:"description"`
		Timestamp   *time.Time  `json:"timestamp"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	cents, err := model.ParseCents(req.Amount.String())
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	var at time.Time
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	entry, err := h.DashboardService.AddSpending(r.Context(), userID, cents, req.Description, at)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	utils.SuccessResponse(w, http.StatusCreated, entry, "Spending recorded")
}
