package helper

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yishak-cs/food-recommender/internal/database"
	"github.com/yishak-cs/food-recommender/internal/services"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

const (
	StoreNeo4j  = "neo4j"
	StoreMemory = "memory"
	CacheGraph  = "graph"
	CacheRedis  = "redis"
)

// AppConfig is everything the server reads from the environment.
type AppConfig struct {
	Port         string
	LogMode      string
	StoreBackend string
	CacheBackend string
	Neo4j        database.Config
	RedisAddr    string
	RedisDB      int
	JWTSecret    string
	SeedDataURL  string
	Recommender  services.Config
}

// LoadConfigFromEnv reads the application configuration. Malformed numeric
// values fall back to their defaults and are logged through log.
func LoadConfigFromEnv(log *logger.Logger) AppConfig {
	env := envReader{log: log}
	rec := services.DefaultConfig()

	rec.Weights.Collaborative = env.floatValue("REC_WEIGHT_COLLABORATIVE", rec.Weights.Collaborative)
	rec.Weights.Content = env.floatValue("REC_WEIGHT_CONTENT", rec.Weights.Content)
	rec.Weights.Popularity = env.floatValue("REC_WEIGHT_POPULARITY", rec.Weights.Popularity)
	rec.MaxRecommendations = env.intValue("REC_MAX_RECOMMENDATIONS", rec.MaxRecommendations)
	rec.PopularityPoolSize = rec.MaxRecommendations
	rec.MinCachedPerKind = 2 * rec.MaxRecommendations
	rec.SimilarUsers = env.intValue("REC_SIMILAR_USERS", rec.SimilarUsers)
	rec.RetrainingThreshold = int64(env.intValue("REC_RETRAINING_THRESHOLD", int(rec.RetrainingThreshold)))
	rec.FreshnessWindow = env.durationValue("REC_FRESHNESS_WINDOW", rec.FreshnessWindow)
	rec.MinCachedPerKind = env.intValue("REC_MIN_CACHED_PER_KIND", rec.MinCachedPerKind)

	return AppConfig{
		Port:         getEnvOrDefault("APP_PORT", "8080"),
		LogMode:      getEnvOrDefault("LOG_MODE", "dev"),
		StoreBackend: strings.ToLower(getEnvOrDefault("STORE_BACKEND", StoreNeo4j)),
		CacheBackend: strings.ToLower(getEnvOrDefault("CACHE_BACKEND", CacheGraph)),
		Neo4j: database.Config{
			URI:      getEnvOrDefault("NEO4J_URI", ""),
			Username: getEnvOrDefault("NEO4J_USERNAME", "neo4j"),
			Password: getEnvOrDefault("NEO4J_PASSWORD", ""),
			Database: getEnvOrDefault("NEO4J_DATABASE", "neo4j"),
		},
		RedisAddr:   getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisDB:     env.intValue("REDIS_DB", 0),
		JWTSecret:   getEnvOrDefault("JWT_SECRET", ""),
		SeedDataURL: getEnvOrDefault("SEED_DATA_URL", ""),
		Recommender: rec,
	}
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

type envReader struct {
	log *logger.Logger
}

func (r envReader) intValue(key string, def int) int {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.log.Warn("Ignoring malformed integer setting", "key", key, "value", raw)
		return def
	}
	return v
}

func (r envReader) floatValue(key string, def float64) float64 {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.log.Warn("Ignoring malformed number setting", "key", key, "value", raw)
		return def
	}
	return v
}

func (r envReader) durationValue(key string, def time.Duration) time.Duration {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.log.Warn("Ignoring malformed duration setting", "key", key, "value", raw)
		return def
	}
	return v
}
