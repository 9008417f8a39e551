package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yishak-cs/food-recommender/internal/memstore"
	"github.com/yishak-cs/food-recommender/internal/models"
	"github.com/yishak-cs/food-recommender/internal/services"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

var (
	_ services.HistoryProvider     = (*memstore.Store)(nil)
	_ services.Catalog             = (*memstore.Store)(nil)
	_ services.RecommendationStore = (*memstore.Store)(nil)
	_ services.CounterStore        = (*memstore.Store)(nil)
)

func order(id, customer, restaurant string, foods ...string) models.Order {
	o := models.Order{
		ID:           id,
		CustomerID:   customer,
		RestaurantID: restaurant,
		Status:       "DELIVERED",
		CreatedAt:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, f := range foods {
		o.Items = append(o.Items, models.OrderItem{FoodID: f, Quantity: 1})
	}
	return o
}

// seedCatalog adds n open restaurants r1..rn, each serving one available food
// f1..fn. Restaurant ri has i ratings.
func seedCatalog(s *memstore.Store, n int) {
	for i := 1; i <= n; i++ {
		rid := fmt.Sprintf("r%d", i)
		s.PutRestaurant(models.Restaurant{
			ID: rid, Name: "Restaurant " + rid, CuisineType: "Ethiopian",
			Open: true, Rating: 4, NumRating: i,
		})
		s.PutFood(models.Food{
			ID: fmt.Sprintf("f%d", i), RestaurantID: rid, Name: "Food", Price: 10,
			Category: "Main", Available: true,
		})
	}
}

func newService(t *testing.T, store *memstore.Store, cfg services.Config) *services.RecommendationService {
	t.Helper()
	svc, err := services.NewRecommendationService(cfg, services.Dependencies{
		History:         store,
		Catalog:         store,
		Recommendations: store,
		Counter:         store,
		Metrics:         services.NewMetrics(nil),
		Logger:          logger.Nop(),
	})
	require.NoError(t, err)
	return svc
}
