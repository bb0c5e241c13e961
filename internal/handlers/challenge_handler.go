package handlers

import (
	"context"
	"net/http"

	"reactivate/api/internal/models"
	"reactivate/api/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ChallengeService interface {
	ListChallenges(ctx context.Context, difficulty string) ([]models.ChallengeSummary, error)
	GetChallenge(ctx context.Context, id string) (*models.Challenge, error)
}

type CompletionService interface {
	CompleteChallenge(ctx context.Context, userID, challengeID string, score *int) (*models.User, error)
}

type ChallengeHandler struct {
	challenges  ChallengeService
	completions CompletionService
	logger      *zap.Logger
}

func NewChallengeHandler(challenges ChallengeService, completions CompletionService, logger *zap.Logger) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges, completions: completions, logger: logger}
}

// GET /api/challenges[?difficulty=easy|medium|hard]
func (handler *ChallengeHandler) ListChallengesHandler(writer http.ResponseWriter, request *http.Request) {
	list, err := handler.challenges.ListChallenges(request.Context(), request.URL.Query().Get("difficulty"))
	if err != nil {
		writeServiceError(writer, handler.logger, err)
		return
	}
	utils.JSON(writer, http.StatusOK, list)
}

func (handler *ChallengeHandler) GetChallengeHandler(writer http.ResponseWriter, request *http.Request) {
	challenge, err := handler.challenges.GetChallenge(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		writeServiceError(writer, handler.logger, err)
		return
	}
	utils.JSON(writer, http.StatusOK, challenge)
}

// POST /api/challenges/{id}/complete
func (handler *ChallengeHandler) CompleteChallengeHandler(writer http.ResponseWriter, request *http.Request) {
	var body models.CompleteChallengeRequest
	if err := utils.DecodeJSON(request, &body); err != nil {
		utils.JSONError(writer, http.StatusBadRequest, "userId and score are required")
		return
	}

	user, err := handler.completions.CompleteChallenge(request.Context(), body.UserID, chi.URLParam(request, "id"), body.Score)
	if err != nil {
		writeServiceError(writer, handler.logger, err)
		return
	}
	utils.JSON(writer, http.StatusOK, user.View())
}
