package services

import (
	"context"
	"fmt"

	"github.com/yishak-cs/food-recommender/internal/models"
)

// PopularityScorer ranks restaurants by rating count and foods by order count,
// independent of the requesting user.
type PopularityScorer struct {
	catalog  Catalog
	poolSize int
}

func NewPopularityScorer(catalog Catalog, poolSize int) *PopularityScorer {
	return &PopularityScorer{catalog: catalog, poolSize: poolSize}
}

// Score fetches the most popular open restaurants and available foods and
// normalizes each kind against its maximum.
func (p *PopularityScorer) Score(ctx context.Context) (KindScores, error) {
	restaurants, err := p.catalog.TopRatedRestaurants(ctx, p.poolSize)
	if err != nil {
		return KindScores{}, fmt.Errorf("failed to get top rated restaurants: %w", err)
	}
	foods, err := p.catalog.TopOrderedFoods(ctx, p.poolSize)
	if err != nil {
		return KindScores{}, fmt.Errorf("failed to get top ordered foods: %w", err)
	}
	return PopularityScores(restaurants, foods), nil
}

// PopularityScores normalizes rating counts and order counts to 0-100.
func PopularityScores(restaurants []models.Restaurant, foods []models.FoodOrderCount) KindScores {
	ratings := make(map[string]float64, len(restaurants))
	for _, r := range restaurants {
		if r.Open {
			ratings[r.ID] = float64(r.NumRating)
		}
	}
	orders := make(map[string]float64, len(foods))
	for _, f := range foods {
		if f.Food.Available {
			orders[f.Food.ID] = float64(f.Count)
		}
	}
	return KindScores{
		Restaurants: NormalizeByMax(ratings),
		Foods:       NormalizeByMax(orders),
	}
}

// NormalizeByMax scales values linearly so the maximum maps to exactly 100.
// Non-positive values carry no signal and are dropped.
func NormalizeByMax(values map[string]float64) ScoreMap {
	maxValue := 0.0
	for _, v := range values {
		if v > maxValue {
			maxValue = v
		}
	}
	out := make(ScoreMap, len(values))
	if maxValue <= 0 {
		return out
	}
	for id, v := range values {
		if v <= 0 {
			continue
		}
		if v == maxValue {
			out[id] = 100
			continue
		}
		out[id] = v / maxValue * 100
	}
	return out
}
