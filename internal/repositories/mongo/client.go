package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reactivate/api/internal/repositories"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	connectTimeout  = 10 * time.Second
	defaultDatabase = "reactivate"
)

// Client owns the driver connection and hands out repositories.
type Client struct {
	raw        *mongo.Client
	db         *mongo.Database
	users      *UserRepo
	challenges *ChallengeRepo
}

var _ repositories.Store = (*Client)(nil)

// NewClient connects, pings and makes sure the collection indexes exist.
// An empty dbName falls back to the database in the URI, then "reactivate".
func NewClient(ctx context.Context, uri, dbName string) (*Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	// nested documents in test cases decode to maps so they serialize as JSON objects
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	raw, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := raw.Ping(ctx, nil); err != nil {
		_ = raw.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	c := newClient(raw, raw.Database(dbName))
	if err := c.EnsureIndexes(ctx); err != nil {
		_ = raw.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

func newClient(raw *mongo.Client, db *mongo.Database) *Client {
	return &Client{
		raw:        raw,
		db:         db,
		users:      NewUserRepo(db),
		challenges: NewChallengeRepo(db),
	}
}

// EnsureIndexes creates the unique and secondary indexes both collections rely on.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	if err := c.users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := c.challenges.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("challenges indexes: %w", err)
	}
	return nil
}

func (c *Client) Users() repositories.UserRepository           { return c.users }
func (c *Client) Challenges() repositories.ChallengeRepository { return c.challenges }

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return errors.New("mongo client not initialized")
	}
	return c.raw.Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Disconnect(ctx)
}

func databaseFromURI(uri string) string {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil || cs.Database == "" {
		return defaultDatabase
	}
	return cs.Database
}
