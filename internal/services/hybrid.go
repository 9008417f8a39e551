package services

import (
	"math"
	"sort"

	"github.com/yishak-cs/food-recommender/internal/models"
)

const (
	ReasonCollaborative = "Based on your past orders"
	ReasonContent       = "Matches your preferences"
	ReasonPopularity    = "Popular with other users"
)

// Ranked is the fused, truncated result for both item kinds.
type Ranked struct {
	Restaurants []models.ScoredItem
	Foods       []models.ScoredItem
}

// For returns the list for kind, or nil for an unknown kind.
func (r Ranked) For(kind models.ItemKind) []models.ScoredItem {
	switch kind {
	case models.KindRestaurant:
		return r.Restaurants
	case models.KindFood:
		return r.Foods
	default:
		return nil
	}
}

// HybridCombiner fuses collaborative, content and popularity scores.
type HybridCombiner struct {
	weights models.HybridWeights
	limit   int
}

func NewHybridCombiner(weights models.HybridWeights, limit int) *HybridCombiner {
	return &HybridCombiner{weights: weights, limit: limit}
}

// Combine fuses both kinds. All inputs are 0-100 component scores.
func (h *HybridCombiner) Combine(collaborative, content, popularity KindScores) Ranked {
	var out Ranked
	for _, kind := range models.ItemKinds {
		fused := h.CombineKind(kind, collaborative.For(kind), content.For(kind), popularity.For(kind))
		switch kind {
		case models.KindRestaurant:
			out.Restaurants = fused
		case models.KindFood:
			out.Foods = fused
		}
	}
	return out
}

// CombineKind fuses the three sources for one kind. Items missing from a
// source score 0 there. The result is sorted by score descending with ties
// broken by item id and truncated to the configured limit.
func (h *HybridCombiner) CombineKind(kind models.ItemKind, collaborative, content, popularity ScoreMap) []models.ScoredItem {
	ids := make(map[string]struct{}, len(collaborative)+len(content)+len(popularity))
	for _, m := range []ScoreMap{collaborative, content, popularity} {
		for id := range m {
			ids[id] = struct{}{}
		}
	}

	items := make([]models.ScoredItem, 0, len(ids))
	for id := range ids {
		items = append(items, h.Score(models.ItemRef{Kind: kind, ID: id},
			collaborative[id], content[id], popularity[id]))
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Item.ID < items[j].Item.ID
	})
	if len(items) > h.limit {
		items = items[:h.limit]
	}
	return items
}

// Score fuses one item's component scores.
func (h *HybridCombiner) Score(ref models.ItemRef, collaborative, content, popularity float64) models.ScoredItem {
	c, o, p := clampScore(collaborative), clampScore(content), clampScore(popularity)

	reasons := make([]string, 0, 3)
	signals := 0
	if c > 0 {
		reasons = append(reasons, ReasonCollaborative)
		signals++
	}
	if o > 0 {
		reasons = append(reasons, ReasonContent)
		signals++
	}
	if p > 0 {
		reasons = append(reasons, ReasonPopularity)
		signals++
	}

	return models.ScoredItem{
		Item:          ref,
		Score:         clampScore(h.weights.Collaborative*c + h.weights.Content*o + h.weights.Popularity*p),
		Confidence:    Confidence(signals),
		Reasons:       reasons,
		Collaborative: c,
		Content:       o,
		Popularity:    p,
	}
}

// Confidence is the share of the three signals present, in percent, rounded
// to one decimal place.
func Confidence(signals int) float64 {
	return math.Round(float64(signals)/3*1000) / 10
}
