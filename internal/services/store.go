package services

import (
	"context"
	"time"

	"github.com/yishak-cs/food-recommender/internal/models"
)

// HistoryProvider supplies order history and interaction events.
type HistoryProvider interface {
	// CustomerIDs returns every customer, in a stable order.
	CustomerIDs(ctx context.Context) ([]string, error)
	OrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	InteractionsByUser(ctx context.Context, userID string) ([]models.Interaction, error)
	AddInteraction(ctx context.Context, interaction models.Interaction) error
}

// Catalog supplies restaurants and foods.
type Catalog interface {
	OpenRestaurants(ctx context.Context) ([]models.Restaurant, error)
	// AvailableFoods returns available foods served by open restaurants.
	AvailableFoods(ctx context.Context) ([]models.Food, error)
	// RestaurantsByIDs and FoodsByIDs ignore the open / available flags.
	RestaurantsByIDs(ctx context.Context, ids []string) ([]models.Restaurant, error)
	FoodsByIDs(ctx context.Context, ids []string) ([]models.Food, error)
	// TopRatedRestaurants returns open restaurants by rating count, descending.
	TopRatedRestaurants(ctx context.Context, limit int) ([]models.Restaurant, error)
	// TopOrderedFoods returns available foods by order-line count, descending.
	TopOrderedFoods(ctx context.Context, limit int) ([]models.FoodOrderCount, error)
}

// RecommendationStore persists computed recommendations.
type RecommendationStore interface {
	SaveRecommendations(ctx context.Context, recs []models.Recommendation) error
	// RecommendationsSince returns the user's rows created after since.
	RecommendationsSince(ctx context.Context, userID string, since time.Time) ([]models.Recommendation, error)
	FlagRecommendations(ctx context.Context, userID string, ids []string, flag models.Feedback) error
	// FlagLatest sets flag on the user's newest row for item and reports whether one existed.
	FlagLatest(ctx context.Context, userID string, item models.ItemRef, flag models.Feedback) (bool, error)
	// DeleteAllRecommendations removes every row in one atomic step.
	DeleteAllRecommendations(ctx context.Context) error
}

// CounterStore holds the global order counter. Both mutations must be atomic.
type CounterStore interface {
	OrderCounter(ctx context.Context) (models.OrderCounter, error)
	IncrementOrderCounter(ctx context.Context) (models.OrderCounter, error)
	// ResetOrderCounter zeroes the counter, stamps at and bumps the model version.
	ResetOrderCounter(ctx context.Context, at time.Time) (models.OrderCounter, error)
}
