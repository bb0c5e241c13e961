package seed

import (
	"context"
	"embed"
	"fmt"

	"reactivate/api/internal/models"
	"reactivate/api/internal/repositories"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// sample challenges and users bundled into the binary
//
//go:embed data/*.yaml
var dataFS embed.FS

type Data struct {
	Challenges []models.Challenge
	Users      []models.User
}

// Load parses and validates the embedded data set.
func Load() (*Data, error) {
	d := &Data{}
	if err := readYAML("data/challenges.yaml", &d.Challenges); err != nil {
		return nil, err
	}
	if err := readYAML("data/users.yaml", &d.Users); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func readYAML(name string, out any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// Validate applies the same field rules the stores enforce, plus id uniqueness
// and that every completed challenge exists in the set.
func (d *Data) Validate() error {
	ids := make(map[string]bool, len(d.Challenges))
	for i, c := range d.Challenges {
		switch {
		case c.ID == "" || len(c.ID) > models.MaxChallengeIDLength:
			return fmt.Errorf("challenge %d: invalid id %q", i, c.ID)
		case c.Title == "" || len(c.Title) > models.MaxChallengeTitleLength:
			return fmt.Errorf("challenge %s: invalid title", c.ID)
		case c.Description == "":
			return fmt.Errorf("challenge %s: description is required", c.ID)
		case c.StarterCode == "":
			return fmt.Errorf("challenge %s: starterCode is required", c.ID)
		}
		if _, ok := models.ParseDifficulty(string(c.Difficulty)); !ok {
			return fmt.Errorf("challenge %s: invalid difficulty %q", c.ID, c.Difficulty)
		}
		if ids[c.ID] {
			return fmt.Errorf("duplicate challenge id %s", c.ID)
		}
		ids[c.ID] = true
	}

	users := make(map[string]bool, len(d.Users))
	for i, u := range d.Users {
		if u.UserID == "" || len(u.UserID) > models.MaxUserIDLength {
			return fmt.Errorf("user %d: invalid userId %q", i, u.UserID)
		}
		if u.Score < 0 || u.Rank < 0 {
			return fmt.Errorf("user %s: score and rank must not be negative", u.UserID)
		}
		if users[u.UserID] {
			return fmt.Errorf("duplicate userId %s", u.UserID)
		}
		users[u.UserID] = true
		seen := make(map[string]bool, len(u.CompletedChallenges))
		for _, id := range u.CompletedChallenges {
			if !ids[id] {
				return fmt.Errorf("user %s: unknown challenge %s", u.UserID, id)
			}
			if seen[id] {
				return fmt.Errorf("user %s: challenge %s listed twice", u.UserID, id)
			}
			seen[id] = true
		}
	}
	return nil
}

// Counts is a snapshot of collection sizes.
type Counts struct {
	Users      int64
	Challenges int64
}

type Result struct {
	DeletedUsers      int64
	DeletedChallenges int64
	Created           Counts
}

type Seeder struct {
	store  repositories.Store
	logger *zap.Logger
}

func NewSeeder(store repositories.Store, logger *zap.Logger) *Seeder {
	return &Seeder{store: store, logger: logger}
}

// Reset wipes both collections and loads d. Nothing is rolled back on failure.
func (s *Seeder) Reset(ctx context.Context, d *Data) (*Result, error) {
	res := &Result{}
	var err error

	if res.DeletedChallenges, err = s.store.Challenges().DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("clear challenges: %w", err)
	}
	for i := range d.Challenges {
		c := d.Challenges[i]
		if err := s.store.Challenges().Create(ctx, &c); err != nil {
			return nil, fmt.Errorf("create challenge %s: %w", c.ID, err)
		}
		res.Created.Challenges++
		s.logger.Info("created challenge", zap.String("id", c.ID), zap.String("title", c.Title))
	}

	if res.DeletedUsers, err = s.store.Users().DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("clear users: %w", err)
	}
	for i := range d.Users {
		u := d.Users[i]
		if err := s.store.Users().Create(ctx, &u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", u.UserID, err)
		}
		res.Created.Users++
		s.logger.Info("created user", zap.String("userId", u.UserID), zap.Int("score", u.Score))
	}
	return res, nil
}

// Check pings the store and reports how many documents it holds.
func (s *Seeder) Check(ctx context.Context) (*Counts, error) {
	if err := s.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store unreachable: %w", err)
	}
	users, err := s.store.Users().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	challenges, err := s.store.Challenges().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count challenges: %w", err)
	}
	return &Counts{Users: users, Challenges: challenges}, nil
}
