package models

// User is a participant tracked by score and completed challenges.
// Rank is only refreshed for the user who last completed a challenge
// (or by the rank refresh job), so it can lag behind other users' scores.
type User struct {
	UserID              string   `bson:"userId" json:"userId" yaml:"userId"`
	Score               int      `bson:"score" json:"score" yaml:"score"`
	Rank                int      `bson:"rank" json:"rank" yaml:"rank"`
	CompletedChallenges []string `bson:"completedChallenges" json:"completedChallenges" yaml:"completedChallenges"`
}

// MaxUserIDLength matches the length limit of the users collection schema.
const MaxUserIDLength = 100

// View returns the user in its API shape. completedChallenges is never null.
func (u *User) View() UserView {
	completed := u.CompletedChallenges
	if completed == nil {
		completed = []string{}
	}
	return UserView{
		UserID:              u.UserID,
		Score:               u.Score,
		Rank:                u.Rank,
		CompletedChallenges: completed,
	}
}

type UserView struct {
	UserID              string   `json:"userId"`
	Score               int      `json:"score"`
	Rank                int      `json:"rank"`
	CompletedChallenges []string `json:"completedChallenges"`
}

// LeaderboardEntry is a single row of the leaderboard.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

// LeaderboardLimit caps the number of leaderboard rows.
const LeaderboardLimit = 100
