package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStoreWithClient(rdb, time.Hour, logger.Nop())
}

func TestSaveAndReadSince(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.SaveRecommendations(ctx, []models.Recommendation{
		{ID: "a", UserID: "u1", Item: models.RestaurantRef("r1"), Score: 80, Reasons: []string{"x"}, CreatedAt: now},
		{ID: "b", UserID: "u1", Item: models.FoodRef("f1"), Score: 40, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "c", UserID: "u2", Item: models.FoodRef("f1"), Score: 10, CreatedAt: now},
	}))

	rows, err := store.RecommendationsSince(ctx, "u1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].ID)
	assert.Equal(t, models.RestaurantRef("r1"), rows[0].Item)
	assert.Equal(t, []string{"x"}, rows[0].Reasons)
	assert.True(t, rows[0].CreatedAt.Equal(now))
}

func TestFlagRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now().UTC()
	item := models.FoodRef("f1")

	require.NoError(t, store.SaveRecommendations(ctx, []models.Recommendation{
		{ID: "old", UserID: "u1", Item: item, CreatedAt: now.Add(-time.Hour)},
		{ID: "new", UserID: "u1", Item: item, CreatedAt: now},
	}))

	require.NoError(t, store.FlagRecommendations(ctx, "u1", []string{"old", "missing"}, models.FeedbackShown))
	ok, err := store.FlagLatest(ctx, "u1", item, models.FeedbackOrdered)
	require.NoError(t, err)
	assert.True(t, ok)

	rows, err := store.RecommendationsSince(ctx, "u1", now.Add(-2*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, rec := range rows {
		switch rec.ID {
		case "old":
			assert.True(t, rec.Shown)
			assert.False(t, rec.Ordered)
		case "new":
			assert.False(t, rec.Shown)
			assert.True(t, rec.Ordered)
		}
	}

	ok, err = store.FlagLatest(ctx, "u1", models.RestaurantRef("r9"), models.FeedbackClicked)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, store.FlagRecommendations(ctx, "u1", []string{"old"}, "bogus"))
}

func TestDeleteAllBumpsGeneration(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now()

	require.NoError(t, store.SaveRecommendations(ctx, []models.Recommendation{
		{ID: "a", UserID: "u1", Item: models.FoodRef("f1"), CreatedAt: now},
	}))
	require.NoError(t, store.DeleteAllRecommendations(ctx))

	rows, err := store.RecommendationsSince(ctx, "u1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, store.SaveRecommendations(ctx, []models.Recommendation{
		{ID: "b", UserID: "u1", Item: models.FoodRef("f2"), CreatedAt: now},
	}))
	rows, err = store.RecommendationsSince(ctx, "u1", now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].ID)
}
