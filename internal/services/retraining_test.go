package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yishak-cs/food-recommender/internal/memstore"
	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/internal/services"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

func newController(store *memstore.Store, threshold int64, metrics *services.Metrics) *services.RetrainingController {
	cache := newCache(store)
	return services.NewRetrainingController(store, cache, threshold, metrics, logger.Nop())
}

func TestConcurrentIncrementsAreNotLost(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	rc := newController(store, 0, services.NewMetrics(nil))

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rc.Increment(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	status, err := rc.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, n, status.CurrentCounter)
	assert.Zero(t, status.Progress, "threshold 0 disables progress")
}

func TestThresholdResetInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	metrics := services.NewMetrics(nil)
	rc := newController(store, 3, metrics)

	require.NoError(t, store.SaveRecommendations(ctx, []models.Recommendation{
		{ID: "a", UserID: "u1", Item: models.FoodRef("f1"), CreatedAt: time.Now()},
	}))

	for i := 1; i <= 2; i++ {
		counter, err := rc.Increment(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, i, counter.Counter)
	}
	status, err := rc.Status(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 200.0/3, status.Progress, 1e-9)
	assert.NotEmpty(t, store.Recommendations())

	before := time.Now()
	counter, err := rc.Increment(ctx)
	require.NoError(t, err)
	assert.Zero(t, counter.Counter)
	assert.Equal(t, 2, counter.ModelVersion)
	assert.False(t, counter.LastResetAt.Before(before))
	assert.Empty(t, store.Recommendations())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Resets.WithLabelValues(services.TriggerThreshold)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.OrderCounter))
}

func TestManualReset(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	metrics := services.NewMetrics(nil)
	rc := newController(store, 10, metrics)

	for i := 0; i < 4; i++ {
		_, err := rc.Increment(ctx)
		require.NoError(t, err)
	}
	status, err := rc.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, status.CurrentCounter)
	assert.EqualValues(t, 10, status.Threshold)
	assert.InDelta(t, 40.0, status.Progress, 1e-9)

	_, err = rc.Reset(ctx, services.TriggerManual)
	require.NoError(t, err)

	status, err = rc.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.CurrentCounter)
	assert.Equal(t, 2, status.ModelVersion)
	assert.False(t, status.LastResetAt.IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Resets.WithLabelValues(services.TriggerManual)))
}

type failingInvalidator struct{}

func (failingInvalidator) InvalidateAll(context.Context) error { return errors.New("cache down") }

func TestFailedInvalidationLeavesCounterUntouched(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	metrics := services.NewMetrics(nil)
	rc := services.NewRetrainingController(store, failingInvalidator{}, 2, metrics, logger.Nop())

	_, err := rc.Increment(ctx)
	require.NoError(t, err)
	_, err = rc.Increment(ctx)
	require.Error(t, err)

	_, err = rc.Reset(ctx, services.TriggerManual)
	require.Error(t, err)

	status, err := rc.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, status.CurrentCounter)
	assert.Equal(t, 1, status.ModelVersion)
	assert.True(t, status.LastResetAt.IsZero())
	assert.Zero(t, testutil.ToFloat64(metrics.Resets.WithLabelValues(services.TriggerThreshold)))
	assert.Zero(t, testutil.ToFloat64(metrics.Resets.WithLabelValues(services.TriggerManual)))
}
