package services

import "github.com/yishak-cs/food-recommender/internal/models"

// Eligibility is the set of item ids that may be recommended: open
// restaurants and available foods.
type Eligibility struct {
	Restaurants map[string]struct{}
	Foods       map[string]struct{}
}

// NewEligibility keeps only open restaurants and available foods.
func NewEligibility(restaurants []models.Restaurant, foods []models.Food) Eligibility {
	e := Eligibility{
		Restaurants: make(map[string]struct{}, len(restaurants)),
		Foods:       make(map[string]struct{}, len(foods)),
	}
	for _, r := range restaurants {
		if r.Open {
			e.Restaurants[r.ID] = struct{}{}
		}
	}
	for _, f := range foods {
		if f.Available {
			e.Foods[f.ID] = struct{}{}
		}
	}
	return e
}

func (e Eligibility) Allows(ref models.ItemRef) bool {
	var ok bool
	switch ref.Kind {
	case models.KindRestaurant:
		_, ok = e.Restaurants[ref.ID]
	case models.KindFood:
		_, ok = e.Foods[ref.ID]
	}
	return ok
}
