package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

const (
	TriggerThreshold = "threshold"
	TriggerManual    = "manual"
)

// Invalidator drops all cached recommendations.
type Invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// RetrainingController counts completed orders and resets the counter, and
// the cache, once the threshold is reached or on demand.
type RetrainingController struct {
	store     CounterStore
	cache     Invalidator
	threshold int64
	metrics   *Metrics
	now       func() time.Time
	log       *logger.Logger
}

func NewRetrainingController(store CounterStore, cache Invalidator, threshold int64, metrics *Metrics, log *logger.Logger) *RetrainingController {
	return &RetrainingController{
		store:     store,
		cache:     cache,
		threshold: threshold,
		metrics:   metrics,
		now:       time.Now,
		log:       log.Component("RetrainingController"),
	}
}

// Increment counts one completed order and resets once the threshold is reached.
func (rc *RetrainingController) Increment(ctx context.Context) (models.OrderCounter, error) {
	counter, err := rc.store.IncrementOrderCounter(ctx)
	if err != nil {
		return models.OrderCounter{}, fmt.Errorf("failed to increment order counter: %w", err)
	}
	rc.metrics.OrderCounter.Set(float64(counter.Counter))
	rc.log.Debug("Order counter incremented", "counter", counter.Counter, "threshold", rc.threshold)

	if rc.threshold > 0 && counter.Counter >= rc.threshold {
		rc.log.Info("Retraining threshold reached", "counter", counter.Counter)
		return rc.Reset(ctx, TriggerThreshold)
	}
	return counter, nil
}

// Reset invalidates the cache, then zeroes the counter and bumps the model
// version. A failed invalidation leaves the counter untouched, so a threshold
// reset is retried by the next increment. Rows written between the two steps
// carry the old version and are never served.
func (rc *RetrainingController) Reset(ctx context.Context, trigger string) (models.OrderCounter, error) {
	if err := rc.cache.InvalidateAll(ctx); err != nil {
		rc.log.Error("Failed to invalidate recommendations", "trigger", trigger, "error", err)
		return models.OrderCounter{}, err
	}
	counter, err := rc.store.ResetOrderCounter(ctx, rc.now())
	if err != nil {
		return models.OrderCounter{}, fmt.Errorf("failed to reset order counter: %w", err)
	}
	rc.metrics.OrderCounter.Set(0)
	rc.metrics.Resets.WithLabelValues(trigger).Inc()
	rc.log.Info("Recommendations reset", "trigger", trigger, "model_version", counter.ModelVersion)
	return counter, nil
}

// Status reports progress towards the next reset.
func (rc *RetrainingController) Status(ctx context.Context) (models.RetrainingStatus, error) {
	counter, err := rc.store.OrderCounter(ctx)
	if err != nil {
		return models.RetrainingStatus{}, fmt.Errorf("failed to get order counter: %w", err)
	}
	status := models.RetrainingStatus{
		CurrentCounter: counter.Counter,
		Threshold:      rc.threshold,
		LastResetAt:    counter.LastResetAt,
		ModelVersion:   counter.ModelVersion,
	}
	if rc.threshold > 0 {
		status.Progress = float64(counter.Counter) / float64(rc.threshold) * 100
	}
	return status, nil
}
