package services

import (
	"sort"

	"github.com/yishak-cs/food-recommender/internal/models"
)

// ScoreMap maps item ids to a score.
type ScoreMap map[string]float64

// KindScores holds one ScoreMap per item kind.
type KindScores struct {
	Restaurants ScoreMap
	Foods       ScoreMap
}

func newKindScores() KindScores {
	return KindScores{Restaurants: ScoreMap{}, Foods: ScoreMap{}}
}

// For returns the map for kind, or nil for an unknown kind.
func (ks KindScores) For(kind models.ItemKind) ScoreMap {
	switch kind {
	case models.KindRestaurant:
		return ks.Restaurants
	case models.KindFood:
		return ks.Foods
	default:
		return nil
	}
}

type scoredID struct {
	id    string
	score float64
}

// ranked returns the entries sorted by score descending, ties by id.
func (m ScoreMap) ranked() []scoredID {
	out := make([]scoredID, 0, len(m))
	for id, score := range m {
		out = append(out, scoredID{id: id, score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].id < out[j].id
	})
	return out
}

// Top keeps the n highest scoring entries.
func (m ScoreMap) Top(n int) ScoreMap {
	if len(m) <= n {
		return m
	}
	top := make(ScoreMap, n)
	for _, e := range m.ranked()[:n] {
		top[e.id] = e.score
	}
	return top
}

// Only drops every entry whose id is not in allowed.
func (m ScoreMap) Only(allowed map[string]struct{}) ScoreMap {
	out := make(ScoreMap, len(m))
	for id, score := range m {
		if _, ok := allowed[id]; ok {
			out[id] = score
		}
	}
	return out
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
