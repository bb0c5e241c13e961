package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"reactivate/api/internal/repositories"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store is the relational backend. Both repositories share one *gorm.DB.
type Store struct {
	db         *gorm.DB
	users      *UserRepo
	challenges *ChallengeRepo
}

var _ repositories.Store = (*Store)(nil)

var gormOpen = func(dialector gorm.Dialector) (*gorm.DB, error) {
	// TranslateError maps unique violations to gorm.ErrDuplicatedKey on both drivers
	return gorm.Open(dialector, &gorm.Config{TranslateError: true})
}

// Open connects with the given driver and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver: %q", driver)
	}
	if dsn == "" {
		return nil, errors.New("database url is empty")
	}

	db, err := gormOpen(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// sqlite allows one writer; a second pooled connection fails with
		// "database table is locked" instead of waiting
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db)
}

// New wraps an already opened connection and runs AutoMigrate.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&userRow{}, &completionRow{}, &challengeRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{
		db:         db,
		users:      &UserRepo{DB: db},
		challenges: &ChallengeRepo{DB: db},
	}, nil
}

func (s *Store) Users() repositories.UserRepository           { return s.users }
func (s *Store) Challenges() repositories.ChallengeRepository { return s.challenges }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
