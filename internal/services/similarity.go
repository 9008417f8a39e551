package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

// Neighbor is a similar user together with the order history the similarity
// was computed from.
type Neighbor struct {
	models.SimilarUser
	Orders []models.Order
}

// SimilarityEngine finds the users whose ordered foods overlap most with a target user's.
type SimilarityEngine struct {
	history     HistoryProvider
	k           int
	concurrency int
	log         *logger.Logger
}

// NewSimilarityEngine creates a similarity engine returning up to k neighbors.
func NewSimilarityEngine(history HistoryProvider, k, concurrency int, log *logger.Logger) *SimilarityEngine {
	return &SimilarityEngine{
		history:     history,
		k:           k,
		concurrency: concurrency,
		log:         log.Component("SimilarityEngine"),
	}
}

// FoodSet returns the distinct food ids across orders.
func FoodSet(orders []models.Order) map[string]struct{} {
	set := make(map[string]struct{})
	for _, order := range orders {
		for _, id := range order.FoodIDs() {
			set[id] = struct{}{}
		}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for id := range small {
		if _, ok := large[id]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Neighbors returns the top-k users most similar to userID. targetOrders is the
// caller's snapshot of the user's history. A user without orders gets no
// neighbors.
func (e *SimilarityEngine) Neighbors(ctx context.Context, userID string, targetOrders []models.Order) ([]Neighbor, error) {
	if len(targetOrders) == 0 {
		return []Neighbor{}, nil
	}
	targetFoods := FoodSet(targetOrders)

	customers, err := e.history.CustomerIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	candidates := make([]Neighbor, 0, len(customers))
	for _, id := range customers {
		if id == userID {
			continue
		}
		candidates = append(candidates, Neighbor{SimilarUser: models.SimilarUser{UserID: id}})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range candidates {
		i := i
		g.Go(func() error {
			orders, err := e.history.OrdersByUser(gctx, candidates[i].UserID)
			if err != nil {
				return fmt.Errorf("failed to get orders for user %s: %w", candidates[i].UserID, err)
			}
			candidates[i].Orders = orders
			candidates[i].Similarity = Jaccard(targetFoods, FoodSet(orders))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > e.k {
		candidates = candidates[:e.k]
	}

	e.log.Debug("Found similar users", "user_id", userID, "candidates", len(customers)-1, "neighbors", len(candidates))
	return candidates, nil
}
