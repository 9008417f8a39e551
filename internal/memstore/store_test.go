package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yishak-cs/food-recommender/internal/models"
)

func TestCatalogFiltersClosedAndUnavailable(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutRestaurant(models.Restaurant{ID: "r1", Open: true})
	s.PutRestaurant(models.Restaurant{ID: "r2", Open: false})
	s.PutFood(models.Food{ID: "f1", RestaurantID: "r1", Available: true})
	s.PutFood(models.Food{ID: "f2", RestaurantID: "r1", Available: false})
	s.PutFood(models.Food{ID: "f3", RestaurantID: "r2", Available: true})

	restaurants, err := s.OpenRestaurants(ctx)
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "r1", restaurants[0].ID)

	foods, err := s.AvailableFoods(ctx)
	require.NoError(t, err)
	require.Len(t, foods, 1)
	assert.Equal(t, "f1", foods[0].ID)

	byID, err := s.RestaurantsByIDs(ctx, []string{"r2", "missing"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.False(t, byID[0].Open)
}

func TestTopOrderedFoods(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutRestaurant(models.Restaurant{ID: "r1", Open: true})
	for _, id := range []string{"f1", "f2", "f3"} {
		s.PutFood(models.Food{ID: id, RestaurantID: "r1", Available: true})
	}
	s.PutOrder(models.Order{ID: "o1", CustomerID: "u1", RestaurantID: "r1",
		Items: []models.OrderItem{{FoodID: "f1"}, {FoodID: "f2"}}})
	s.PutOrder(models.Order{ID: "o2", CustomerID: "u2", RestaurantID: "r1",
		Items: []models.OrderItem{{FoodID: "f2"}}})

	top, err := s.TopOrderedFoods(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "f2", top[0].Food.ID)
	assert.Equal(t, 2, top[0].Count)
	assert.Equal(t, "f1", top[1].Food.ID)

	customers, err := s.CustomerIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, customers)
}

func TestFlagLatestPicksNewestRow(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()
	item := models.FoodRef("f1")
	require.NoError(t, s.SaveRecommendations(ctx, []models.Recommendation{
		{ID: "old", UserID: "u1", Item: item, CreatedAt: now.Add(-time.Hour)},
		{ID: "new", UserID: "u1", Item: item, CreatedAt: now},
	}))

	ok, err := s.FlagLatest(ctx, "u1", item, models.FeedbackClicked)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, rec := range s.Recommendations() {
		assert.Equal(t, rec.ID == "new", rec.Clicked, rec.ID)
	}

	ok, err = s.FlagLatest(ctx, "u1", models.FoodRef("other"), models.FeedbackClicked)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCounterIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := New()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.IncrementOrderCounter(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counter, err := s.OrderCounter(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, n, counter.Counter)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	reset, err := s.ResetOrderCounter(ctx, at)
	require.NoError(t, err)
	assert.Zero(t, reset.Counter)
	assert.Equal(t, at, reset.LastResetAt)
	assert.Equal(t, counter.ModelVersion+1, reset.ModelVersion)
}
