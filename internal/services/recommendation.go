package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

// Dependencies are the collaborators of the recommendation service.
type Dependencies struct {
	History         HistoryProvider
	Catalog         Catalog
	Recommendations RecommendationStore
	Counter         CounterStore
	Metrics         *Metrics
	Logger          *logger.Logger
}

// RecommendationService handles all recommendation logic
type RecommendationService struct {
	cfg        Config
	history    HistoryProvider
	catalog    Catalog
	counter    CounterStore
	similarity *SimilarityEngine
	profiles   *ProfileBuilder
	popularity *PopularityScorer
	combiner   *HybridCombiner
	cache      *RecommendationCache
	retraining *RetrainingController
	metrics    *Metrics
	now        func() time.Time
	log        *logger.Logger
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(cfg Config, deps Dependencies) (*RecommendationService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommendation config: %w", err)
	}
	if deps.History == nil || deps.Catalog == nil || deps.Recommendations == nil || deps.Counter == nil {
		return nil, errors.New("history, catalog, recommendation and counter stores are required")
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	cache := NewRecommendationCache(deps.Recommendations, deps.Catalog, deps.Counter, cfg, log)
	return &RecommendationService{
		cfg:        cfg,
		history:    deps.History,
		catalog:    deps.Catalog,
		counter:    deps.Counter,
		similarity: NewSimilarityEngine(deps.History, cfg.SimilarUsers, cfg.FetchConcurrency, log),
		profiles:   NewProfileBuilder(deps.Catalog),
		popularity: NewPopularityScorer(deps.Catalog, cfg.PopularityPoolSize),
		combiner:   NewHybridCombiner(cfg.Weights, cfg.MaxRecommendations),
		cache:      cache,
		retraining: NewRetrainingController(deps.Counter, cache, cfg.RetrainingThreshold, metrics, log),
		metrics:    metrics,
		now:        time.Now,
		log:        log.Component("RecommendationService"),
	}, nil
}

// snapshot is everything one computation reads, loaded once so that
// exclusion, profiling and eligibility all see the same data.
type snapshot struct {
	orders       []models.Order
	interactions []models.Interaction
	restaurants  []models.Restaurant
	foods        []models.Food
	counter      models.OrderCounter
}

func (s *RecommendationService) loadSnapshot(ctx context.Context, userID string) (*snapshot, error) {
	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if snap.orders, err = s.history.OrdersByUser(gctx, userID); err != nil {
			return fmt.Errorf("failed to get user order history: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.interactions, err = s.history.InteractionsByUser(gctx, userID); err != nil {
			return fmt.Errorf("failed to get user interactions: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.restaurants, err = s.catalog.OpenRestaurants(gctx); err != nil {
			return fmt.Errorf("failed to get open restaurants: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.foods, err = s.catalog.AvailableFoods(gctx); err != nil {
			return fmt.Errorf("failed to get available foods: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if snap.counter, err = s.counter.OrderCounter(gctx); err != nil {
			return fmt.Errorf("failed to get model version: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Compute runs the three scorers concurrently and fuses their results. It
// neither reads nor writes the cache.
func (s *RecommendationService) Compute(ctx context.Context, userID string) (Ranked, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return Ranked{}, err
	}
	return s.compute(ctx, userID, snap)
}

func (s *RecommendationService) compute(ctx context.Context, userID string, snap *snapshot) (Ranked, error) {
	start := s.now()
	eligible := NewEligibility(snap.restaurants, snap.foods)
	limit := s.cfg.MaxRecommendations

	var collaborative, content, popularity KindScores
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		neighbors, err := s.similarity.Neighbors(gctx, userID, snap.orders)
		if err != nil {
			return fmt.Errorf("collaborative filtering: %w", err)
		}
		collaborative = CollaborativeScores(snap.orders, neighbors, eligible, limit)
		return nil
	})
	g.Go(func() error {
		profile, err := s.profiles.Build(gctx, snap.orders, snap.interactions)
		if err != nil {
			return fmt.Errorf("content-based filtering: %w", err)
		}
		content = ContentScores(profile, snap.restaurants, snap.foods, limit)
		return nil
	})
	g.Go(func() error {
		scores, err := s.popularity.Score(gctx)
		if err != nil {
			return fmt.Errorf("popularity scoring: %w", err)
		}
		popularity = KindScores{
			Restaurants: scores.Restaurants.Only(eligible.Restaurants),
			Foods:       scores.Foods.Only(eligible.Foods),
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Ranked{}, err
	}

	ranked := s.combiner.Combine(
		KindScores{
			Restaurants: ScaleCollaborative(collaborative.Restaurants),
			Foods:       ScaleCollaborative(collaborative.Foods),
		},
		content,
		popularity,
	)
	s.metrics.ComputeDuration.Observe(s.now().Sub(start).Seconds())
	s.log.Debug("Computed hybrid recommendations",
		"user_id", userID,
		"restaurants", len(ranked.Restaurants),
		"foods", len(ranked.Foods),
	)
	return ranked, nil
}

// GetRecommendations serves the cached set when fresh and complete, and
// otherwise computes, stores and returns a new one.
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID string) (*models.RecommendationSet, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", models.ErrNotFound)
	}

	cached, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ok {
		s.metrics.Requests.WithLabelValues("cache").Inc()
		return cached, nil
	}

	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	ranked, err := s.compute(ctx, userID, snap)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, userID, ranked, snap.counter.ModelVersion); err != nil {
		s.bestEffortFailed("cache_put", err, "user_id", userID)
	}
	s.metrics.Requests.WithLabelValues("computed").Inc()
	return hydrate(ranked, snap), nil
}

func hydrate(ranked Ranked, snap *snapshot) *models.RecommendationSet {
	restaurants := indexRestaurants(snap.restaurants)
	foods := indexFoods(snap.foods)

	set := &models.RecommendationSet{
		Restaurants: make([]models.RecommendedRestaurant, 0, len(ranked.Restaurants)),
		Foods:       make([]models.RecommendedFood, 0, len(ranked.Foods)),
	}
	for _, item := range ranked.Restaurants {
		set.Restaurants = append(set.Restaurants, models.RecommendedRestaurant{
			Restaurant: restaurants[item.Item.ID],
			Score:      item.Score,
			Confidence: item.Confidence,
			Reasons:    item.Reasons,
		})
	}
	for _, item := range ranked.Foods {
		set.Foods = append(set.Foods, models.RecommendedFood{
			Food:       foods[item.Item.ID],
			Score:      item.Score,
			Confidence: item.Confidence,
			Reasons:    item.Reasons,
		})
	}
	return set
}

// TrackInteraction records an interaction and, for clicks and orders, flags
// the matching stored recommendation.
func (s *RecommendationService) TrackInteraction(ctx context.Context, userID string, item models.ItemRef, kind models.InteractionKind) error {
	if !item.Kind.Valid() {
		return fmt.Errorf("%w: %d", models.ErrInvalidItemKind, int(item.Kind))
	}
	kind, err := models.ParseInteractionKind(string(kind))
	if err != nil {
		return err
	}

	interaction := models.Interaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Item:      item,
		Kind:      kind,
		Timestamp: s.now(),
	}
	if err := s.history.AddInteraction(ctx, interaction); err != nil {
		return fmt.Errorf("failed to add user interaction: %w", err)
	}

	var flag models.Feedback
	switch kind {
	case models.InteractionClick:
		flag = models.FeedbackClicked
	case models.InteractionOrder:
		flag = models.FeedbackOrdered
	default:
		return nil
	}
	if _, err := s.cache.store.FlagLatest(ctx, userID, item, flag); err != nil {
		s.bestEffortFailed("feedback_flag", err, "user_id", userID, "item", item.String())
	}
	return nil
}

// RecordOrderCompletion logs ORDER interactions for the order's restaurant and
// foods and advances the retraining counter. Failures are logged and never
// returned, so order processing is not affected.
func (s *RecommendationService) RecordOrderCompletion(ctx context.Context, order models.Order) {
	refs := make([]models.ItemRef, 0, len(order.Items)+1)
	if order.RestaurantID != "" {
		refs = append(refs, models.RestaurantRef(order.RestaurantID))
	}
	for _, foodID := range order.FoodIDs() {
		refs = append(refs, models.FoodRef(foodID))
	}

	now := s.now()
	for _, ref := range refs {
		err := s.history.AddInteraction(ctx, models.Interaction{
			ID:        uuid.NewString(),
			UserID:    order.CustomerID,
			Item:      ref,
			Kind:      models.InteractionOrder,
			Timestamp: now,
		})
		if err != nil {
			s.bestEffortFailed("order_interaction", err, "order_id", order.ID, "item", ref.String())
		}
	}

	counter, err := s.retraining.Increment(ctx)
	if err != nil {
		s.bestEffortFailed("order_counter", err, "order_id", order.ID)
		return
	}
	s.log.Info("Order recorded for recommendations", "order_id", order.ID, "counter", counter.Counter)
}

// RetrainingStatus reports the order counter and progress to the threshold.
func (s *RecommendationService) RetrainingStatus(ctx context.Context) (models.RetrainingStatus, error) {
	return s.retraining.Status(ctx)
}

// TriggerRetraining resets the counter and invalidates every cached recommendation.
func (s *RecommendationService) TriggerRetraining(ctx context.Context) error {
	_, err := s.retraining.Reset(ctx, TriggerManual)
	return err
}

func (s *RecommendationService) bestEffortFailed(operation string, err error, keysAndValues ...interface{}) {
	s.metrics.BestEffortFailures.WithLabelValues(operation).Inc()
	kv := append([]interface{}{"operation", operation, "error", err}, keysAndValues...)
	s.log.Warn("Recommendation bookkeeping failed", kv...)
}
