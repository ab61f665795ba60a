package handler

import (
	"net/http"

	"commtracker-backend/internal/middleware"
	"commtracker-backend/internal/model"
	"commtracker-backend/internal/service"
	"commtracker-backend/internal/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService *service.AuthService
	Logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{AuthService: authService, Logger: logger}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := h.AuthService.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	utils.SuccessResponse(w, http.StatusCreated, authResponse{Token: token, User: user}, "Account created")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := h.AuthService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, authResponse{Token: token, User: user}, "Login successful")
}

// Logout succeeds unconditionally; tokens are stateless and the client
// discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.SuccessResponse(w, http.StatusOK, nil, "Logout successful")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	user, err := h.AuthService.CurrentUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.Logger, r, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, user, "")
}
