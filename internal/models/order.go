package models

import "time"

// Order is a customer order; immutable once delivered.
type Order struct {
	ID           string      `json:"id"`
	CustomerID   string      `json:"customerId"`
	RestaurantID string      `json:"restaurantId"`
	Items        []OrderItem `json:"items"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// OrderItem represents one line of an order
type OrderItem struct {
	FoodID   string `json:"foodId"`
	Quantity int    `json:"quantity"`
}

// FoodIDs returns the distinct food ids of the order, in line order.
func (o Order) FoodIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	ids := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if item.FoodID == "" {
			continue
		}
		if _, ok := seen[item.FoodID]; ok {
			continue
		}
		seen[item.FoodID] = struct{}{}
		ids = append(ids, item.FoodID)
	}
	return ids
}

// Interaction is an append-only user event against an item.
type Interaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Item      ItemRef         `json:"item"`
	Kind      InteractionKind `json:"interactionType"`
	Timestamp time.Time       `json:"timestamp"`
}
