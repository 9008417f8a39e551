package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yishak-cs/food-recommender/internal/memstore"
	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/internal/services"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestJaccard(t *testing.T) {
	a := set("f1", "f2")
	b := set("f1", "f3")

	assert.InDelta(t, 1.0/3, services.Jaccard(a, b), 1e-9)
	assert.Equal(t, services.Jaccard(a, b), services.Jaccard(b, a))
	assert.Equal(t, 1.0, services.Jaccard(a, set("f2", "f1")))
	assert.Equal(t, 0.0, services.Jaccard(a, set("f9")))
	assert.Equal(t, 0.0, services.Jaccard(set(), set()))
}

func TestFoodSetIsDistinct(t *testing.T) {
	orders := []models.Order{
		order("o1", "u1", "r1", "f1", "f2", "f1"),
		order("o2", "u1", "r1", "f2"),
	}
	assert.Equal(t, set("f1", "f2"), services.FoodSet(orders))
}

func TestNeighbors(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	target := order("o1", "u1", "rA", "f1", "f2")
	store.PutOrder(target)
	store.PutOrder(order("o2", "u2", "rA", "f1", "f3"))
	store.PutOrder(order("o3", "u3", "rB", "f9"))

	engine := services.NewSimilarityEngine(store, 5, 2, logger.Nop())

	neighbors, err := engine.Neighbors(ctx, "u1", []models.Order{target})
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "u2", neighbors[0].UserID)
	assert.InDelta(t, 1.0/3, neighbors[0].Similarity, 1e-9)
	assert.Len(t, neighbors[0].Orders, 1)
	assert.Equal(t, "u3", neighbors[1].UserID)
	assert.Equal(t, 0.0, neighbors[1].Similarity)

	t.Run("cold start", func(t *testing.T) {
		neighbors, err := engine.Neighbors(ctx, "u4", nil)
		require.NoError(t, err)
		assert.Empty(t, neighbors)
	})

	t.Run("ties keep customer order and k truncates", func(t *testing.T) {
		store := memstore.New()
		store.PutOrder(order("t", "u0", "r", "f1"))
		for _, id := range []string{"u5", "u3", "u4", "u1", "u2", "u6"} {
			store.PutOrder(order("o-"+id, id, "r", "f1"))
		}
		engine := services.NewSimilarityEngine(store, 3, 4, logger.Nop())
		neighbors, err := engine.Neighbors(ctx, "u0", []models.Order{order("t", "u0", "r", "f1")})
		require.NoError(t, err)
		require.Len(t, neighbors, 3)
		assert.Equal(t, "u1", neighbors[0].UserID)
		assert.Equal(t, "u2", neighbors[1].UserID)
		assert.Equal(t, "u3", neighbors[2].UserID)
	})
}
