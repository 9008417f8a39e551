package services

import (
	"slices"

	"github.com/yishak-cs/food-recommender/internal/models"
)

// RestaurantContentScore is the share of applicable profile features the
// restaurant matches, scaled to 0-100. The only restaurant feature is cuisine,
// and it applies only when the profile has preferred cuisines.
func RestaurantContentScore(profile models.UserProfile, r models.Restaurant) float64 {
	var matched, applicable int
	if len(profile.CuisineTypes) > 0 {
		applicable++
		if slices.Contains(profile.CuisineTypes, r.CuisineType) {
			matched++
		}
	}
	return featureScore(matched, applicable)
}

// FoodContentScore scores category, vegetarian and seasonal agreement. The two
// dietary features apply only when the profile carries dietary signal.
func FoodContentScore(profile models.UserProfile, f models.Food) float64 {
	var matched, applicable int
	if len(profile.FoodCategories) > 0 {
		applicable++
		if slices.Contains(profile.FoodCategories, f.Category) {
			matched++
		}
	}
	if profile.HasDietarySignal {
		applicable += 2
		if f.IsVegetarian == profile.IsVegetarian {
			matched++
		}
		if f.IsSeasonal == profile.IsSeasonal {
			matched++
		}
	}
	return featureScore(matched, applicable)
}

func featureScore(matched, applicable int) float64 {
	if applicable == 0 {
		return 0
	}
	return float64(matched) / float64(applicable) * 100
}

// ContentScores scores every open restaurant and available food against the
// profile and keeps the top limit per kind. Zero scores are kept.
func ContentScores(profile models.UserProfile, restaurants []models.Restaurant, foods []models.Food, limit int) KindScores {
	scores := newKindScores()
	for _, r := range restaurants {
		if r.Open {
			scores.Restaurants[r.ID] = RestaurantContentScore(profile, r)
		}
	}
	for _, f := range foods {
		if f.Available {
			scores.Foods[f.ID] = FoodContentScore(profile, f)
		}
	}
	return KindScores{
		Restaurants: scores.Restaurants.Top(limit),
		Foods:       scores.Foods.Top(limit),
	}
}
