package handlers

import (
	"errors"
	"net/http"

	"reactivate/api/internal/services"
	"reactivate/api/internal/utils"

	"go.uber.org/zap"
)

const msgInternal = "Internal server error"

// writeServiceError maps a service error kind onto a status code. Errors
// without a kind come from the store and are logged, not echoed.
func writeServiceError(writer http.ResponseWriter, logger *zap.Logger, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		switch {
		case errors.Is(err, services.ErrValidation):
			utils.JSONError(writer, http.StatusBadRequest, svcErr.Message)
			return
		case errors.Is(err, services.ErrNotFound):
			utils.JSONError(writer, http.StatusNotFound, svcErr.Message)
			return
		case errors.Is(err, services.ErrConflict):
			utils.JSONError(writer, http.StatusConflict, svcErr.Message)
			return
		}
	}
	logger.Error("request failed", zap.Error(err))
	utils.JSONError(writer, http.StatusInternalServerError, msgInternal)
}
