package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/yishak-cs/food-recommender/internal/models"
)

// Config tunes the recommendation engine. It is passed explicitly to the
// combiner, the cache and the retraining controller.
type Config struct {
	Weights models.HybridWeights

	// MaxRecommendations caps every ranked list, per item kind.
	MaxRecommendations int
	// SimilarUsers is K in the top-K similar user search.
	SimilarUsers int
	// PopularityPoolSize is how many top restaurants / foods feed the popularity signal.
	PopularityPoolSize int
	// FetchConcurrency bounds concurrent history lookups during similarity search.
	FetchConcurrency int

	// RetrainingThreshold is the number of completed orders that triggers a reset.
	// Zero disables the automatic reset.
	RetrainingThreshold int64
	// FreshnessWindow is the maximum age of a cached recommendation.
	FreshnessWindow time.Duration
	// MinCachedPerKind is how many fresh stored entries each item kind needs
	// before the cache may serve.
	MinCachedPerKind int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Weights: models.HybridWeights{
			Collaborative: 0.5,
			Content:       0.3,
			Popularity:    0.2,
		},
		MaxRecommendations:  5,
		SimilarUsers:        5,
		PopularityPoolSize:  5,
		FetchConcurrency:    8,
		RetrainingThreshold: 10,
		FreshnessWindow:     24 * time.Hour,
		MinCachedPerKind:    10,
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Weights.Collaborative < 0 || c.Weights.Content < 0 || c.Weights.Popularity < 0 {
		errs = append(errs, fmt.Errorf("weights must be non-negative: %+v", c.Weights))
	}
	if c.MaxRecommendations <= 0 {
		errs = append(errs, fmt.Errorf("max recommendations must be positive, got %d", c.MaxRecommendations))
	}
	if c.SimilarUsers <= 0 {
		errs = append(errs, fmt.Errorf("similar users must be positive, got %d", c.SimilarUsers))
	}
	if c.PopularityPoolSize <= 0 {
		errs = append(errs, fmt.Errorf("popularity pool size must be positive, got %d", c.PopularityPoolSize))
	}
	if c.FetchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("fetch concurrency must be positive, got %d", c.FetchConcurrency))
	}
	if c.RetrainingThreshold < 0 {
		errs = append(errs, fmt.Errorf("retraining threshold must not be negative, got %d", c.RetrainingThreshold))
	}
	if c.FreshnessWindow <= 0 {
		errs = append(errs, fmt.Errorf("freshness window must be positive, got %s", c.FreshnessWindow))
	}
	if c.MinCachedPerKind < c.MaxRecommendations {
		errs = append(errs, fmt.Errorf("min cached per kind (%d) must be at least max recommendations (%d)",
			c.MinCachedPerKind, c.MaxRecommendations))
	}
	return errors.Join(errs...)
}
