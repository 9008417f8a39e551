// Package memstore is an in-process implementation of every store the
// recommendation service depends on. It backs tests and STORE_BACKEND=memory.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yishak-cs/food-recommender/internal/models"
)

// Store keeps all data in maps guarded by a single RWMutex. Counter
// mutations and DeleteAllRecommendations take the write lock, which makes
// them atomic with respect to every other call.
type Store struct {
	mu              sync.RWMutex
	users           map[string]models.User
	restaurants     map[string]models.Restaurant
	foods           map[string]models.Food
	orders          map[string]models.Order
	interactions    []models.Interaction
	recommendations []models.Recommendation
	counter         models.OrderCounter
}

func New() *Store {
	return &Store{
		users:       make(map[string]models.User),
		restaurants: make(map[string]models.Restaurant),
		foods:       make(map[string]models.Food),
		orders:      make(map[string]models.Order),
		counter:     models.OrderCounter{ModelVersion: 1},
	}
}

func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) PutRestaurant(r models.Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[r.ID] = r
}

func (s *Store) PutFood(f models.Food) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foods[f.ID] = f
}

// PutOrder stores an order. Its customer is registered as a user when unknown.
func (s *Store) PutOrder(o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Items != nil {
		o.Items = append([]models.OrderItem(nil), o.Items...)
	}
	s.orders[o.ID] = o
	if _, ok := s.users[o.CustomerID]; !ok && o.CustomerID != "" {
		s.users[o.CustomerID] = models.User{ID: o.CustomerID, Role: models.RoleCustomer}
	}
}

// Health always succeeds.
func (s *Store) Health(context.Context) error { return nil }

// CustomerIDs returns the ids of users with the customer role, sorted.
func (s *Store) CustomerIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for id, u := range s.users {
		if u.Role == "" || u.Role == models.RoleCustomer {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// OrdersByUser returns the user's orders, oldest first.
func (s *Store) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.CustomerID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) InteractionsByUser(ctx context.Context, userID string) ([]models.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Interaction
	for _, in := range s.interactions {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *Store) AddInteraction(ctx context.Context, interaction models.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, interaction)
	return nil
}

func (s *Store) OpenRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openRestaurants(), nil
}

func (s *Store) openRestaurants() []models.Restaurant {
	out := make([]models.Restaurant, 0, len(s.restaurants))
	for _, r := range s.restaurants {
		if r.Open {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) AvailableFoods(ctx context.Context) ([]models.Food, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availableFoods(), nil
}

func (s *Store) availableFoods() []models.Food {
	out := make([]models.Food, 0, len(s.foods))
	for _, f := range s.foods {
		if !f.Available {
			continue
		}
		if r, ok := s.restaurants[f.RestaurantID]; !ok || !r.Open {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) RestaurantsByIDs(ctx context.Context, ids []string) ([]models.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Restaurant, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.restaurants[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) FoodsByIDs(ctx context.Context, ids []string) ([]models.Food, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Food, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.foods[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) TopRatedRestaurants(ctx context.Context, limit int) ([]models.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.openRestaurants()
	sort.SliceStable(out, func(i, j int) bool { return out[i].NumRating > out[j].NumRating })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TopOrderedFoods counts order lines per available food. Foods that were never
// ordered are left out.
func (s *Store) TopOrderedFoods(ctx context.Context, limit int) ([]models.FoodOrderCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, o := range s.orders {
		for _, item := range o.Items {
			counts[item.FoodID]++
		}
	}
	var out []models.FoodOrderCount
	for _, f := range s.availableFoods() {
		if n := counts[f.ID]; n > 0 {
			out = append(out, models.FoodOrderCount{Food: f, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SaveRecommendations(ctx context.Context, recs []models.Recommendation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations = append(s.recommendations, recs...)
	return nil
}

func (s *Store) RecommendationsSince(ctx context.Context, userID string, since time.Time) ([]models.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Recommendation
	for _, rec := range s.recommendations {
		if rec.UserID == userID && rec.CreatedAt.After(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) FlagRecommendations(ctx context.Context, userID string, ids []string, flag models.Feedback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recommendations {
		rec := &s.recommendations[i]
		if _, ok := wanted[rec.ID]; ok && rec.UserID == userID {
			setFlag(rec, flag)
		}
	}
	return nil
}

func (s *Store) FlagLatest(ctx context.Context, userID string, item models.ItemRef, flag models.Feedback) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := -1
	for i, rec := range s.recommendations {
		if rec.UserID != userID || rec.Item != item {
			continue
		}
		if latest < 0 || rec.CreatedAt.After(s.recommendations[latest].CreatedAt) {
			latest = i
		}
	}
	if latest < 0 {
		return false, nil
	}
	setFlag(&s.recommendations[latest], flag)
	return true, nil
}

func setFlag(rec *models.Recommendation, flag models.Feedback) {
	switch flag {
	case models.FeedbackShown:
		rec.Shown = true
	case models.FeedbackClicked:
		rec.Clicked = true
	case models.FeedbackOrdered:
		rec.Ordered = true
	}
}

func (s *Store) DeleteAllRecommendations(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations = nil
	return nil
}

// Recommendations returns a copy of every stored row.
func (s *Store) Recommendations() []models.Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Recommendation(nil), s.recommendations...)
}

// Interactions returns a copy of every recorded interaction.
func (s *Store) Interactions() []models.Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Interaction(nil), s.interactions...)
}

func (s *Store) OrderCounter(ctx context.Context) (models.OrderCounter, error) {
	if err := ctx.Err(); err != nil {
		return models.OrderCounter{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter, nil
}

func (s *Store) IncrementOrderCounter(ctx context.Context) (models.OrderCounter, error) {
	if err := ctx.Err(); err != nil {
		return models.OrderCounter{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter.Counter++
	return s.counter, nil
}

func (s *Store) ResetOrderCounter(ctx context.Context, at time.Time) (models.OrderCounter, error) {
	if err := ctx.Err(); err != nil {
		return models.OrderCounter{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter.Counter = 0
	s.counter.LastResetAt = at
	s.counter.ModelVersion++
	return s.counter, nil
}
