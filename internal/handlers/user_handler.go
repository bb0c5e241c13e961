package handlers

import (
	"context"
	"net/http"

	"reactivate/api/internal/models"
	"reactivate/api/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserService interface {
	CreateUser(ctx context.Context, userID string) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

func (handler *UserHandler) CreateUserHandler(writer http.ResponseWriter, request *http.Request) {
	var body models.CreateUserRequest
	if err := utils.DecodeJSON(request, &body); err != nil {
		// an unreadable body counts as a missing userId
		utils.JSONError(writer, http.StatusBadRequest, "userId is required")
		return
	}

	user, err := handler.service.CreateUser(request.Context(), body.UserID)
	if err != nil {
		writeServiceError(writer, handler.logger, err)
		return
	}
	utils.JSON(writer, http.StatusCreated, user.View())
}

func (handler *UserHandler) GetUserHandler(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.service.GetUser(request.Context(), chi.URLParam(request, "userId"))
	if err != nil {
		writeServiceError(writer, handler.logger, err)
		return
	}
	utils.JSON(writer, http.StatusOK, user.View())
}
