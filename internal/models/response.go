package models

// uniform error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// request body for POST /api/users
type CreateUserRequest struct {
	UserID string `json:"userId"`
}

// request body for POST /api/challenges/{id}/complete.
// Score is a pointer so a missing field can be told apart from zero.
type CompleteChallengeRequest struct {
	UserID string `json:"userId"`
	Score  *int   `json:"score"`
}

// CompletionEvent is published after a challenge completion is persisted.
type CompletionEvent struct {
	UserID      string     `json:"userId"`
	ChallengeID string     `json:"challengeId"`
	Difficulty  Difficulty `json:"difficulty"`
	Points      int        `json:"points"`
	Score       int        `json:"score"`
	Rank        int        `json:"rank"`
}
