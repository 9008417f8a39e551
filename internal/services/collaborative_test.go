package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/internal/services"
)

func neighbor(id string, similarity float64, orders ...models.Order) services.Neighbor {
	return services.Neighbor{
		SimilarUser: models.SimilarUser{UserID: id, Similarity: similarity},
		Orders:      orders,
	}
}

func eligibleAll(restaurants, foods []string) services.Eligibility {
	e := services.Eligibility{Restaurants: set(restaurants...), Foods: set(foods...)}
	return e
}

func TestCollaborativeScores(t *testing.T) {
	target := []models.Order{order("o1", "u1", "rA", "f1", "f2")}
	neighbors := []services.Neighbor{
		neighbor("u2", 1.0/3, order("o2", "u2", "rA", "f1", "f3")),
	}

	scores := services.CollaborativeScores(target, neighbors,
		eligibleAll([]string{"rA"}, []string{"f1", "f2", "f3"}), 5)

	assert.Empty(t, scores.Restaurants, "restaurant already ordered by the target")
	require.Len(t, scores.Foods, 1)
	assert.InDelta(t, 1.0/3, scores.Foods["f3"], 1e-9)
}

func TestCollaborativeScoresSumsAndFilters(t *testing.T) {
	neighbors := []services.Neighbor{
		neighbor("u2", 0.5, order("o2", "u2", "rB", "f3"), order("o3", "u2", "rC", "f4")),
		neighbor("u3", 0.25, order("o4", "u3", "rB", "f3", "f5")),
		neighbor("u4", 0, order("o5", "u4", "rD", "f6")),
	}

	scores := services.CollaborativeScores(nil, neighbors,
		eligibleAll([]string{"rB", "rD"}, []string{"f3", "f5", "f6"}), 5)

	assert.Equal(t, services.ScoreMap{"rB": 0.75}, scores.Restaurants)
	assert.Equal(t, services.ScoreMap{"f3": 0.75, "f5": 0.25}, scores.Foods)

	capped := services.CollaborativeScores(nil, neighbors,
		eligibleAll([]string{"rB", "rC"}, []string{"f3", "f4", "f5"}), 1)
	assert.Equal(t, services.ScoreMap{"rB": 0.75}, capped.Restaurants)
	assert.Equal(t, services.ScoreMap{"f3": 0.75}, capped.Foods)
}

func TestScaleCollaborative(t *testing.T) {
	scaled := services.ScaleCollaborative(services.ScoreMap{"a": 1.0 / 3, "b": 2.5})
	assert.InDelta(t, 33.333, scaled["a"], 1e-3)
	assert.Equal(t, 100.0, scaled["b"])
}
