package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

// RecommendationCache serves a user's stored recommendations while they are
// fresh and complete. Rows stamped with an older model version than the
// counter's are never served, so a put that lands after a reset stays invisible.
type RecommendationCache struct {
	store     RecommendationStore
	catalog   Catalog
	counter   CounterStore
	window    time.Duration
	minStored int
	limit     int
	now       func() time.Time
	log       *logger.Logger
}

func NewRecommendationCache(store RecommendationStore, catalog Catalog, counter CounterStore, cfg Config, log *logger.Logger) *RecommendationCache {
	return &RecommendationCache{
		store:     store,
		catalog:   catalog,
		counter:   counter,
		window:    cfg.FreshnessWindow,
		minStored: cfg.MinCachedPerKind,
		limit:     cfg.MaxRecommendations,
		now:       time.Now,
		log:       log.Component("RecommendationCache"),
	}
}

// Get returns the cached set for userID. ok is false on a miss: too few fresh
// current-version entries for either kind, or too few still open / available
// items to fill both lists. Served rows are marked shown.
func (c *RecommendationCache) Get(ctx context.Context, userID string) (*models.RecommendationSet, bool, error) {
	counter, err := c.counter.OrderCounter(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get model version: %w", err)
	}
	cutoff := c.now().Add(-c.window)
	rows, err := c.store.RecommendationsSince(ctx, userID, cutoff)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached recommendations: %w", err)
	}

	byKind := make(map[models.ItemKind][]models.Recommendation, len(models.ItemKinds))
	stale := 0
	for _, row := range rows {
		if !row.CreatedAt.After(cutoff) {
			continue
		}
		if row.ModelVersion < counter.ModelVersion {
			stale++
			continue
		}
		byKind[row.Item.Kind] = append(byKind[row.Item.Kind], row)
	}
	if stale > 0 {
		c.log.Debug("Ignored recommendations from an earlier model version",
			"user_id", userID, "rows", stale, "model_version", counter.ModelVersion)
	}
	for _, kind := range models.ItemKinds {
		if len(byKind[kind]) < c.minStored {
			return nil, false, nil
		}
	}

	set := &models.RecommendationSet{IsFromCache: true}
	var served []string

	restaurantRows := newestPerItem(byKind[models.KindRestaurant])
	restaurants, err := c.catalog.RestaurantsByIDs(ctx, rowItemIDs(restaurantRows))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cached restaurants: %w", err)
	}
	byID := indexRestaurants(restaurants)
	for _, row := range restaurantRows {
		if len(set.Restaurants) == c.limit {
			break
		}
		r, ok := byID[row.Item.ID]
		if !ok || !r.Open {
			continue
		}
		set.Restaurants = append(set.Restaurants, models.RecommendedRestaurant{
			Restaurant: r, Score: row.Score, Confidence: row.Confidence, Reasons: row.Reasons,
		})
		served = append(served, row.ID)
	}

	foodRows := newestPerItem(byKind[models.KindFood])
	foods, err := c.catalog.FoodsByIDs(ctx, rowItemIDs(foodRows))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cached foods: %w", err)
	}
	foodByID := indexFoods(foods)
	for _, row := range foodRows {
		if len(set.Foods) == c.limit {
			break
		}
		f, ok := foodByID[row.Item.ID]
		if !ok || !f.Available {
			continue
		}
		set.Foods = append(set.Foods, models.RecommendedFood{
			Food: f, Score: row.Score, Confidence: row.Confidence, Reasons: row.Reasons,
		})
		served = append(served, row.ID)
	}

	if len(set.Restaurants) < c.limit || len(set.Foods) < c.limit {
		return nil, false, nil
	}

	if err := c.store.FlagRecommendations(ctx, userID, served, models.FeedbackShown); err != nil {
		c.log.Warn("Failed to mark cached recommendations as shown", "user_id", userID, "error", err)
	}
	return set, true, nil
}

// newestPerItem keeps each item's newest row and orders them by score
// descending, ties by item id.
func newestPerItem(rows []models.Recommendation) []models.Recommendation {
	latest := make(map[string]models.Recommendation, len(rows))
	for _, row := range rows {
		if prev, ok := latest[row.Item.ID]; !ok || row.CreatedAt.After(prev.CreatedAt) {
			latest[row.Item.ID] = row
		}
	}
	out := make([]models.Recommendation, 0, len(latest))
	for _, row := range latest {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

func rowItemIDs(rows []models.Recommendation) []string {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.Item.ID
	}
	return ids
}

// Put stores a freshly computed result, stamped with modelVersion.
func (c *RecommendationCache) Put(ctx context.Context, userID string, ranked Ranked, modelVersion int) error {
	now := c.now()
	rows := make([]models.Recommendation, 0, len(ranked.Restaurants)+len(ranked.Foods))
	for _, kind := range models.ItemKinds {
		for _, item := range ranked.For(kind) {
			rows = append(rows, models.Recommendation{
				ID:           uuid.NewString(),
				UserID:       userID,
				Item:         item.Item,
				Score:        item.Score,
				Confidence:   item.Confidence,
				Reasons:      item.Reasons,
				ModelVersion: modelVersion,
				CreatedAt:    now,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := c.store.SaveRecommendations(ctx, rows); err != nil {
		return fmt.Errorf("failed to store recommendations: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached recommendation for every user.
func (c *RecommendationCache) InvalidateAll(ctx context.Context) error {
	if err := c.store.DeleteAllRecommendations(ctx); err != nil {
		return fmt.Errorf("failed to invalidate recommendations: %w", err)
	}
	c.log.Info("Invalidated all cached recommendations")
	return nil
}
