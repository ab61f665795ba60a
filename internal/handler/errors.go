package handler

import (
	"errors"
	"net/http"

	"commtracker-backend/internal/service"
	"commtracker-backend/internal/storage"
	"commtracker-backend/internal/utils"

	"go.uber.org/zap"
)

// writeServiceError maps a service error onto a status code. Unexpected
// errors are logged and surfaced as 500.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	var (
		validation *service.ValidationError
		authn      *service.AuthenticationError
	)

	switch {
	case errors.Is(err, service.ErrConflict):
		utils.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.As(err, &validation):
		utils.ErrorResponse(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &authn):
		utils.ErrorResponse(w, http.StatusUnauthorized, authn.Error())
	case errors.Is(err, service.ErrNotFound):
		utils.ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrUnsupportedType):
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrTooLarge):
		utils.ErrorResponse(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		utils.ErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}
