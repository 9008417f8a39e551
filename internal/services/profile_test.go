package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yishak-cs/food-recommender/internal/memstore"
	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/internal/services"
)

func TestBuildProfile(t *testing.T) {
	restaurants := map[string]models.Restaurant{
		"r1": {ID: "r1", CuisineType: "Italian"},
		"r2": {ID: "r2", CuisineType: "Thai"},
		"r3": {ID: "r3", CuisineType: "Mexican"},
		"r4": {ID: "r4", CuisineType: "Indian"},
	}
	foods := map[string]models.Food{
		"f1": {ID: "f1", Category: "Pasta", IsVegetarian: true},
		"f2": {ID: "f2", Category: "Pizza", IsVegetarian: true, IsSeasonal: true},
		"f3": {ID: "f3", Category: "Curry"},
	}
	orders := []models.Order{
		order("o1", "u", "r1", "f1", "f3"),
		order("o2", "u", "r2", "f2"),
		order("o3", "u", "r3"),
		order("o4", "u", "r4"),
	}
	interactions := []models.Interaction{
		{Kind: models.InteractionFavorite, Item: models.RestaurantRef("r4")},
		{Kind: models.InteractionView, Item: models.RestaurantRef("r3")},
		{Kind: models.InteractionFavorite, Item: models.FoodRef("f3")},
	}

	profile := services.BuildProfile(orders, interactions, restaurants, foods)

	// Indian: 1 order + favorite (2) = 3; the others tie at 1 and keep first-seen order.
	assert.Equal(t, []string{"Indian", "Italian", "Thai"}, profile.CuisineTypes)
	// Curry: 1 + 2 = 3; Pasta and Pizza 1 each.
	assert.Equal(t, []string{"Curry", "Pasta", "Pizza"}, profile.FoodCategories)
	// vegetarian yes=2 (f1,f2) no=3 (f3 order + favorite).
	assert.False(t, profile.IsVegetarian)
	assert.False(t, profile.IsSeasonal)
	assert.True(t, profile.HasDietarySignal)
}

func TestBuildProfileStrictMajority(t *testing.T) {
	foods := map[string]models.Food{
		"veg":  {ID: "veg", Category: "Salad", IsVegetarian: true},
		"meat": {ID: "meat", Category: "Grill"},
	}
	profile := services.BuildProfile(
		[]models.Order{order("o1", "u", "r", "veg", "meat")}, nil, nil, foods)
	assert.False(t, profile.IsVegetarian, "a tie is not a majority")

	profile = services.BuildProfile(
		[]models.Order{order("o1", "u", "r", "meat")},
		[]models.Interaction{{Kind: models.InteractionFavorite, Item: models.FoodRef("veg")}},
		nil, foods)
	assert.True(t, profile.IsVegetarian)
	assert.Empty(t, profile.CuisineTypes)
}

func TestBuildProfileEmpty(t *testing.T) {
	profile := services.BuildProfile(nil, nil, nil, nil)
	assert.Empty(t, profile.CuisineTypes)
	assert.Empty(t, profile.FoodCategories)
	assert.False(t, profile.HasDietarySignal)
}

func TestProfileBuilderLoadsReferencedItems(t *testing.T) {
	store := memstore.New()
	store.PutRestaurant(models.Restaurant{ID: "r1", CuisineType: "Italian", Open: false})
	store.PutFood(models.Food{ID: "f1", RestaurantID: "r1", Category: "Pasta", Available: false, IsVegetarian: true})

	profile, err := services.NewProfileBuilder(store).Build(context.Background(),
		[]models.Order{order("o1", "u", "r1", "f1")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Italian"}, profile.CuisineTypes)
	assert.Equal(t, []string{"Pasta"}, profile.FoodCategories)
	assert.True(t, profile.IsVegetarian)
}
