package models

import "strings"

type Challenge struct {
	ID          string     `bson:"_id" json:"id" yaml:"id"`
	Title       string     `bson:"title" json:"title" yaml:"title"`
	Description string     `bson:"description" json:"description" yaml:"description"`
	Difficulty  Difficulty `bson:"difficulty" json:"difficulty" yaml:"difficulty"`
	StarterCode string     `bson:"starterCode" json:"starterCode" yaml:"starterCode"`
	TestCases   []TestCase `bson:"testCases" json:"testCases" yaml:"testCases"`
}

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty accepts any casing of easy, medium or hard.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, true
	default:
		return "", false
	}
}

// single testcase; input holds the named arguments passed to the solution
type TestCase struct {
	Input          map[string]any `bson:"input" json:"input" yaml:"input"`
	ExpectedOutput any            `bson:"expectedOutput" json:"expectedOutput" yaml:"expectedOutput"`
	Description    string         `bson:"description" json:"description" yaml:"description"`
}

const (
	MaxChallengeIDLength    = 100
	MaxChallengeTitleLength = 200
)

// ChallengeSummary is the public view of a challenge. Test cases are hidden.
type ChallengeSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	StarterCode string     `json:"starterCode"`
}

func (c *Challenge) Summary() ChallengeSummary {
	return ChallengeSummary{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Difficulty:  c.Difficulty,
		StarterCode: c.StarterCode,
	}
}

// Detail is the full view including test cases. testCases is never null.
func (c *Challenge) Detail() Challenge {
	out := *c
	if out.TestCases == nil {
		out.TestCases = []TestCase{}
	}
	return out
}
