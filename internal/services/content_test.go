package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/internal/services"
)

func TestFoodContentScore(t *testing.T) {
	profile := models.UserProfile{
		CuisineTypes:     []string{"Italian"},
		FoodCategories:   []string{"Pasta"},
		IsVegetarian:     true,
		HasDietarySignal: true,
	}

	tests := []struct {
		name string
		food models.Food
		want float64
	}{
		{"all features match", models.Food{Category: "Pasta", IsVegetarian: true}, 100},
		{"category misses", models.Food{Category: "Curry", IsVegetarian: true}, 200.0 / 3},
		{"only seasonal matches", models.Food{Category: "Curry"}, 100.0 / 3},
		{"nothing matches", models.Food{Category: "Curry", IsSeasonal: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, services.FoodContentScore(profile, tt.food), 1e-9)
		})
	}
}

func TestContentScoreSkipsFeaturesWithoutSignal(t *testing.T) {
	noDiet := models.UserProfile{FoodCategories: []string{"Pasta"}}
	assert.Equal(t, 100.0, services.FoodContentScore(noDiet, models.Food{Category: "Pasta", IsSeasonal: true}))

	empty := models.UserProfile{}
	assert.Equal(t, 0.0, services.FoodContentScore(empty, models.Food{Category: "Pasta"}))
	assert.Equal(t, 0.0, services.RestaurantContentScore(empty, models.Restaurant{CuisineType: "Thai"}))

	thai := models.UserProfile{CuisineTypes: []string{"Thai", "Indian"}}
	assert.Equal(t, 100.0, services.RestaurantContentScore(thai, models.Restaurant{CuisineType: "Thai"}))
	assert.Equal(t, 0.0, services.RestaurantContentScore(thai, models.Restaurant{CuisineType: "Greek"}))
}

func TestContentScores(t *testing.T) {
	profile := models.UserProfile{CuisineTypes: []string{"Thai"}}
	restaurants := []models.Restaurant{
		{ID: "r1", CuisineType: "Thai", Open: true},
		{ID: "r2", CuisineType: "Greek", Open: true},
		{ID: "r3", CuisineType: "Thai", Open: false},
	}
	foods := []models.Food{
		{ID: "f1", Available: true},
		{ID: "f2", Available: false},
	}

	scores := services.ContentScores(profile, restaurants, foods, 5)
	assert.Equal(t, services.ScoreMap{"r1": 100, "r2": 0}, scores.Restaurants)
	assert.Equal(t, services.ScoreMap{"f1": 0}, scores.Foods)

	capped := services.ContentScores(profile, restaurants, foods, 1)
	assert.Equal(t, services.ScoreMap{"r1": 100}, capped.Restaurants)
}
