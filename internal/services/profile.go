package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/yishak-cs/food-recommender/internal/models"
)

const (
	profileTopN    = 3
	orderWeight    = 1
	favoriteWeight = 2
)

// ProfileBuilder induces a taste profile from a user's orders and favorites.
type ProfileBuilder struct {
	catalog Catalog
}

func NewProfileBuilder(catalog Catalog) *ProfileBuilder {
	return &ProfileBuilder{catalog: catalog}
}

// Build loads the restaurants and foods referenced by orders and favorite
// interactions, then derives the profile from them.
func (b *ProfileBuilder) Build(ctx context.Context, orders []models.Order, interactions []models.Interaction) (models.UserProfile, error) {
	restaurantIDs, foodIDs := referencedItems(orders, interactions)

	restaurants, err := b.catalog.RestaurantsByIDs(ctx, restaurantIDs)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to load profile restaurants: %w", err)
	}
	foods, err := b.catalog.FoodsByIDs(ctx, foodIDs)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to load profile foods: %w", err)
	}

	return BuildProfile(orders, interactions, indexRestaurants(restaurants), indexFoods(foods)), nil
}

func referencedItems(orders []models.Order, interactions []models.Interaction) ([]string, []string) {
	var restaurantIDs, foodIDs []string
	for _, order := range orders {
		restaurantIDs = append(restaurantIDs, order.RestaurantID)
		foodIDs = append(foodIDs, order.FoodIDs()...)
	}
	for _, in := range interactions {
		if in.Kind != models.InteractionFavorite {
			continue
		}
		switch in.Item.Kind {
		case models.KindRestaurant:
			restaurantIDs = append(restaurantIDs, in.Item.ID)
		case models.KindFood:
			foodIDs = append(foodIDs, in.Item.ID)
		}
	}
	return dedupe(restaurantIDs), dedupe(foodIDs)
}

// weightedCounter counts keys while remembering first-seen order.
type weightedCounter struct {
	order  []string
	counts map[string]int
}

func newWeightedCounter() *weightedCounter {
	return &weightedCounter{counts: make(map[string]int)}
}

func (c *weightedCounter) add(key string, weight int) {
	if key == "" {
		return
	}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += weight
}

// top returns the n heaviest keys; equal weights keep first-seen order.
func (c *weightedCounter) top(n int) []string {
	keys := append([]string(nil), c.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

type dietaryVote struct {
	yes, no int
}

func (v *dietaryVote) add(flag bool, weight int) {
	if flag {
		v.yes += weight
	} else {
		v.no += weight
	}
}

// BuildProfile derives a profile. Every order counts its restaurant's cuisine
// once and every order line counts its food once; each favorite counts twice.
// Unknown restaurants and foods are skipped.
func BuildProfile(orders []models.Order, interactions []models.Interaction,
	restaurants map[string]models.Restaurant, foods map[string]models.Food) models.UserProfile {
	cuisines := newWeightedCounter()
	categories := newWeightedCounter()
	var vegetarian, seasonal dietaryVote

	countFood := func(food models.Food, weight int) {
		categories.add(food.Category, weight)
		vegetarian.add(food.IsVegetarian, weight)
		seasonal.add(food.IsSeasonal, weight)
	}

	for _, order := range orders {
		if r, ok := restaurants[order.RestaurantID]; ok {
			cuisines.add(r.CuisineType, orderWeight)
		}
		for _, item := range order.Items {
			if food, ok := foods[item.FoodID]; ok {
				countFood(food, orderWeight)
			}
		}
	}

	for _, in := range interactions {
		if in.Kind != models.InteractionFavorite {
			continue
		}
		switch in.Item.Kind {
		case models.KindRestaurant:
			if r, ok := restaurants[in.Item.ID]; ok {
				cuisines.add(r.CuisineType, favoriteWeight)
			}
		case models.KindFood:
			if food, ok := foods[in.Item.ID]; ok {
				countFood(food, favoriteWeight)
			}
		}
	}

	return models.UserProfile{
		CuisineTypes:     cuisines.top(profileTopN),
		FoodCategories:   categories.top(profileTopN),
		IsVegetarian:     vegetarian.yes > vegetarian.no,
		IsSeasonal:       seasonal.yes > seasonal.no,
		HasDietarySignal: vegetarian.yes+vegetarian.no > 0,
	}
}

func indexRestaurants(restaurants []models.Restaurant) map[string]models.Restaurant {
	m := make(map[string]models.Restaurant, len(restaurants))
	for _, r := range restaurants {
		m[r.ID] = r
	}
	return m
}

func indexFoods(foods []models.Food) map[string]models.Food {
	m := make(map[string]models.Food, len(foods))
	for _, f := range foods {
		m[f.ID] = f
	}
	return m
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
