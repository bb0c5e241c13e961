package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	RankBackendStore = "store"
	RankBackendRedis = "redis"
)

// Config holds everything the server and seed commands read from the environment.
type Config struct {
	// store
	StoreDriver   string
	MongoURI      string
	MongoDatabase string // empty means the database named in MongoURI
	DatabaseURL   string

	// http
	Host        string
	Port        int
	Debug       bool
	CORSOrigins []string

	// redis; an empty address disables it
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RankBackend         string
	LiveLeaderboardRank bool
	RankRefreshEnabled  bool
	RankRefreshSchedule string
}

// loads .env when present, then the environment
func LoadConfig() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		StoreDriver:   strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverMongo)),
		MongoURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017/reactivate"),
		MongoDatabase: os.Getenv("MONGODB_DATABASE"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		Host:        getEnvOrDefault("API_HOST", "0.0.0.0"),
		Port:        getEnvInt("API_PORT", 5000),
		Debug:       getEnvBool("DEBUG", false),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RankBackend:         strings.ToLower(getEnvOrDefault("RANK_BACKEND", RankBackendStore)),
		LiveLeaderboardRank: getEnvBool("LEADERBOARD_LIVE_RANK", false),
		RankRefreshEnabled:  getEnvBool("RANK_REFRESH_ENABLED", false),
		RankRefreshSchedule: getEnvOrDefault("RANK_REFRESH_SCHEDULE", "@every 5m"),
	}
	if config.StoreDriver == DriverSQLite && config.DatabaseURL == "" {
		config.DatabaseURL = "file:reactivate.db?cache=shared"
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func validateConfig(config *Config) error {
	switch config.StoreDriver {
	case DriverMongo:
		if config.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo store")
		}
	case DriverPostgres:
		if config.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverSQLite:
	default:
		return errors.New("unsupported STORE_DRIVER: " + config.StoreDriver + ". Supported: mongo, postgres, sqlite")
	}

	switch config.RankBackend {
	case RankBackendStore:
	case RankBackendRedis:
		if !config.RedisEnabled() {
			return errors.New("RANK_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return errors.New("unsupported RANK_BACKEND: " + config.RankBackend + ". Supported: store, redis")
	}

	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid API_PORT: %d", config.Port)
	}
	if config.RedisDB < 0 {
		return errors.New("invalid REDIS_DB")
	}
	if config.RankRefreshEnabled && config.RankRefreshSchedule == "" {
		return errors.New("RANK_REFRESH_SCHEDULE is required when the rank refresh job is enabled")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// unparsable values become -1 so validateConfig rejects them
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
