package services

import (
	"github.com/yishak-cs/food-recommender/internal/models"
)

// CollaborativeScores sums each neighbor's similarity onto the restaurants and
// foods of their orders, skipping anything the target already ordered and
// anything outside eligible. The raw sums are capped to the top limit per kind.
func CollaborativeScores(target []models.Order, neighbors []Neighbor, eligible Eligibility, limit int) KindScores {
	orderedRestaurants := make(map[string]struct{})
	for _, order := range target {
		orderedRestaurants[order.RestaurantID] = struct{}{}
	}
	orderedFoods := FoodSet(target)

	scores := newKindScores()
	for _, neighbor := range neighbors {
		if neighbor.Similarity <= 0 {
			continue
		}
		for _, order := range neighbor.Orders {
			if _, done := orderedRestaurants[order.RestaurantID]; !done && order.RestaurantID != "" {
				scores.Restaurants[order.RestaurantID] += neighbor.Similarity
			}
			for _, foodID := range order.FoodIDs() {
				if _, done := orderedFoods[foodID]; !done {
					scores.Foods[foodID] += neighbor.Similarity
				}
			}
		}
	}

	return KindScores{
		Restaurants: scores.Restaurants.Only(eligible.Restaurants).Top(limit),
		Foods:       scores.Foods.Only(eligible.Foods).Top(limit),
	}
}

// ScaleCollaborative maps raw similarity sums onto 0-100 for fusion.
func ScaleCollaborative(raw ScoreMap) ScoreMap {
	scaled := make(ScoreMap, len(raw))
	for id, v := range raw {
		scaled[id] = clampScore(v * 100)
	}
	return scaled
}
