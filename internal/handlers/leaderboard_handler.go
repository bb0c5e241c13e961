package handlers

import (
	"context"
	"net/http"
	"strconv"

	"reactivate/api/internal/models"
	"reactivate/api/internal/utils"

	"go.uber.org/zap"
)

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, live bool) ([]models.LeaderboardEntry, error)
}

type LeaderboardHandler struct {
	service LeaderboardService
	logger  *zap.Logger
}

func NewLeaderboardHandler(service LeaderboardService, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{service: service, logger: logger}
}

func (handler *LeaderboardHandler) GetLeaderboardHandler(writer http.ResponseWriter, request *http.Request) {
	live := false
	if raw := request.URL.Query().Get("live"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			utils.JSONError(writer, http.StatusBadRequest, "live must be true or false")
			return
		}
		live = parsed
	}

	entries, err := handler.service.GetLeaderboard(request.Context(), live)
	if err != nil {
		writeServiceError(writer, handler.logger, err)
		return
	}
	utils.JSON(writer, http.StatusOK, entries)
}
