package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yishak-cs/food-recommender/internal/models"
)

// GraphStore serves order history, the catalog, stored recommendations and
// the order counter from Neo4j.
//
// Graph layout:
//
//	(:User)-[:HAS_MADE]->(:Order)-[:FROM]->(:Restaurant)
//	(:Order)-[:HAS_ITEM {quantity}]->(:Food)<-[:SERVES]-(:Restaurant)
//	(:User)-[:PERFORMED]->(:Interaction)
//	(:User)-[:RECEIVED]->(:Recommendation)
//	(:OrderCounter {key: "global"})
type GraphStore struct {
	client *Neo4jClient
}

func NewGraphStore(client *Neo4jClient) *GraphStore {
	return &GraphStore{client: client}
}

const (
	restaurantFields = `r.id AS id, r.name AS name, r.cuisine_type AS cuisine_type, r.open AS open,
		r.rating AS rating, r.num_rating AS num_rating`
	foodFields = `f.id AS id, r.id AS restaurant_id, f.name AS name, f.price AS price, f.category AS category,
		f.available AS available, f.is_vegetarian AS is_vegetarian, f.is_seasonal AS is_seasonal`
	recommendationFields = `rec.id AS id, rec.user_id AS user_id, rec.item_type AS item_type, rec.item_id AS item_id,
		rec.score AS score, rec.confidence AS confidence, rec.reasons AS reasons,
		rec.model_version AS model_version, rec.created_at AS created_at,
		rec.shown AS shown, rec.clicked AS clicked, rec.ordered AS ordered`
	counterFields = `c.counter AS counter, c.last_reset_at AS last_reset_at, c.model_version AS model_version`
)

func (s *GraphStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// CustomerIDs returns users with the customer role, or no role at all, by id.
func (s *GraphStore) CustomerIDs(ctx context.Context) ([]string, error) {
	query := `
		MATCH (u:User)
		WHERE coalesce(u.role, $customer) = $customer
		RETURN u.id AS id
		ORDER BY id
	`
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"customer": models.RoleCustomer})
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	ids := make([]string, 0, len(results))
	for _, row := range results {
		ids = append(ids, asString(row["id"]))
	}
	return ids, nil
}

func (s *GraphStore) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	query := `
		MATCH (u:User {id: $userId})-[:HAS_MADE]->(o:Order)
		OPTIONAL MATCH (o)-[:FROM]->(r:Restaurant)
		OPTIONAL MATCH (o)-[hi:HAS_ITEM]->(f:Food)
		WITH o, r, collect({food_id: f.id, quantity: hi.quantity}) AS items
		RETURN o.id AS id, o.status AS status, o.created_at AS created_at, r.id AS restaurant_id, items
		ORDER BY o.created_at, o.id
	`
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}

	orders := make([]models.Order, 0, len(results))
	for _, row := range results {
		order := models.Order{
			ID:           asString(row["id"]),
			CustomerID:   userID,
			RestaurantID: asString(row["restaurant_id"]),
			Status:       asString(row["status"]),
			CreatedAt:    asTime(row["created_at"]),
		}
		for _, item := range asMaps(row["items"]) {
			// OPTIONAL MATCH yields a single null entry for orders without lines.
			foodID := asString(item["food_id"])
			if foodID == "" {
				continue
			}
			order.Items = append(order.Items, models.OrderItem{
				FoodID:   foodID,
				Quantity: int(asInt64(item["quantity"])),
			})
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (s *GraphStore) InteractionsByUser(ctx context.Context, userID string) ([]models.Interaction, error) {
	query := `
		MATCH (:User {id: $userId})-[:PERFORMED]->(i:Interaction)
		RETURN i.id AS id, i.item_type AS item_type, i.item_id AS item_id, i.kind AS kind, i.timestamp AS timestamp
		ORDER BY i.timestamp
	`
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to get interactions for user %s: %w", userID, err)
	}

	interactions := make([]models.Interaction, 0, len(results))
	for _, row := range results {
		kind, err := models.ParseItemKind(asString(row["item_type"]))
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, models.Interaction{
			ID:        asString(row["id"]),
			UserID:    userID,
			Item:      models.ItemRef{Kind: kind, ID: asString(row["item_id"])},
			Kind:      models.InteractionKind(asString(row["kind"])),
			Timestamp: asTime(row["timestamp"]),
		})
	}
	return interactions, nil
}

func (s *GraphStore) AddInteraction(ctx context.Context, interaction models.Interaction) error {
	query := `
		MERGE (u:User {id: $userId})
		ON CREATE SET u.role = $customer
		CREATE (i:Interaction {
			id: $id,
			user_id: $userId,
			item_type: $itemType,
			item_id: $itemId,
			kind: $kind,
			timestamp: $timestamp
		})
		CREATE (u)-[:PERFORMED]->(i)
	`
	params := map[string]interface{}{
		"id":        interaction.ID,
		"userId":    interaction.UserID,
		"customer":  models.RoleCustomer,
		"itemType":  interaction.Item.Kind.String(),
		"itemId":    interaction.Item.ID,
		"kind":      string(interaction.Kind),
		"timestamp": interaction.Timestamp,
	}
	if err := s.client.ExecuteWrite(ctx, query, params); err != nil {
		return fmt.Errorf("failed to add interaction: %w", err)
	}
	return nil
}

func (s *GraphStore) OpenRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	query := `
		MATCH (r:Restaurant)
		WHERE r.open
		RETURN ` + restaurantFields + `
		ORDER BY id
	`
	return s.restaurants(ctx, query, nil)
}

func (s *GraphStore) RestaurantsByIDs(ctx context.Context, ids []string) ([]models.Restaurant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		MATCH (r:Restaurant)
		WHERE r.id IN $ids
		RETURN ` + restaurantFields
	return s.restaurants(ctx, query, map[string]interface{}{"ids": ids})
}

func (s *GraphStore) TopRatedRestaurants(ctx context.Context, limit int) ([]models.Restaurant, error) {
	query := `
		MATCH (r:Restaurant)
		WHERE r.open
		RETURN ` + restaurantFields + `
		ORDER BY num_rating DESC, id
		LIMIT $limit
	`
	return s.restaurants(ctx, query, map[string]interface{}{"limit": limit})
}

func (s *GraphStore) restaurants(ctx context.Context, query string, params map[string]interface{}) ([]models.Restaurant, error) {
	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurants: %w", err)
	}
	out := make([]models.Restaurant, 0, len(results))
	for _, row := range results {
		out = append(out, restaurantFromRow(row))
	}
	return out, nil
}

func restaurantFromRow(row map[string]interface{}) models.Restaurant {
	return models.Restaurant{
		ID:          asString(row["id"]),
		Name:        asString(row["name"]),
		CuisineType: asString(row["cuisine_type"]),
		Open:        asBool(row["open"]),
		Rating:      asFloat(row["rating"]),
		NumRating:   int(asInt64(row["num_rating"])),
	}
}

func (s *GraphStore) AvailableFoods(ctx context.Context) ([]models.Food, error) {
	query := `
		MATCH (r:Restaurant)-[:SERVES]->(f:Food)
		WHERE r.open AND f.available
		RETURN ` + foodFields + `
		ORDER BY id
	`
	return s.foods(ctx, query, nil)
}

func (s *GraphStore) FoodsByIDs(ctx context.Context, ids []string) ([]models.Food, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		MATCH (f:Food)
		WHERE f.id IN $ids
		OPTIONAL MATCH (r:Restaurant)-[:SERVES]->(f)
		RETURN ` + foodFields
	return s.foods(ctx, query, map[string]interface{}{"ids": ids})
}

func (s *GraphStore) foods(ctx context.Context, query string, params map[string]interface{}) ([]models.Food, error) {
	results, err := s.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get foods: %w", err)
	}
	out := make([]models.Food, 0, len(results))
	for _, row := range results {
		out = append(out, foodFromRow(row))
	}
	return out, nil
}

func foodFromRow(row map[string]interface{}) models.Food {
	return models.Food{
		ID:           asString(row["id"]),
		RestaurantID: asString(row["restaurant_id"]),
		Name:         asString(row["name"]),
		Price:        asFloat(row["price"]),
		Category:     asString(row["category"]),
		Available:    asBool(row["available"]),
		IsVegetarian: asBool(row["is_vegetarian"]),
		IsSeasonal:   asBool(row["is_seasonal"]),
	}
}

// TopOrderedFoods counts order lines per available food of an open restaurant.
func (s *GraphStore) TopOrderedFoods(ctx context.Context, limit int) ([]models.FoodOrderCount, error) {
	query := `
		MATCH (r:Restaurant)-[:SERVES]->(f:Food)<-[:HAS_ITEM]-(:Order)
		WHERE r.open AND f.available
		WITH r, f, count(*) AS order_count
		RETURN ` + foodFields + `, order_count
		ORDER BY order_count DESC, id
		LIMIT $limit
	`
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get top ordered foods: %w", err)
	}
	out := make([]models.FoodOrderCount, 0, len(results))
	for _, row := range results {
		out = append(out, models.FoodOrderCount{
			Food:  foodFromRow(row),
			Count: int(asInt64(row["order_count"])),
		})
	}
	return out, nil
}

// SaveRecommendations writes all rows in a single statement.
func (s *GraphStore) SaveRecommendations(ctx context.Context, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, map[string]interface{}{
			"id":            rec.ID,
			"user_id":       rec.UserID,
			"item_type":     rec.Item.Kind.String(),
			"item_id":       rec.Item.ID,
			"score":         rec.Score,
			"confidence":    rec.Confidence,
			"reasons":       rec.Reasons,
			"model_version": int64(rec.ModelVersion),
			"created_at":    rec.CreatedAt,
		})
	}
	query := `
		UNWIND $rows AS row
		MERGE (u:User {id: row.user_id})
		ON CREATE SET u.role = $customer
		CREATE (rec:Recommendation {
			id: row.id,
			user_id: row.user_id,
			item_type: row.item_type,
			item_id: row.item_id,
			score: row.score,
			confidence: row.confidence,
			reasons: row.reasons,
			model_version: row.model_version,
			created_at: row.created_at,
			shown: false,
			clicked: false,
			ordered: false
		})
		CREATE (u)-[:RECEIVED]->(rec)
	`
	params := map[string]interface{}{"rows": rows, "customer": models.RoleCustomer}
	if err := s.client.ExecuteWrite(ctx, query, params); err != nil {
		return fmt.Errorf("failed to save recommendations: %w", err)
	}
	return nil
}

func (s *GraphStore) RecommendationsSince(ctx context.Context, userID string, since time.Time) ([]models.Recommendation, error) {
	query := `
		MATCH (rec:Recommendation {user_id: $userId})
		WHERE rec.created_at > $since
		RETURN ` + recommendationFields + `
		ORDER BY created_at DESC
	`
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"userId": userID, "since": since})
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations for user %s: %w", userID, err)
	}

	out := make([]models.Recommendation, 0, len(results))
	for _, row := range results {
		kind, err := models.ParseItemKind(asString(row["item_type"]))
		if err != nil {
			return nil, err
		}
		out = append(out, models.Recommendation{
			ID:           asString(row["id"]),
			UserID:       asString(row["user_id"]),
			Item:         models.ItemRef{Kind: kind, ID: asString(row["item_id"])},
			Score:        asFloat(row["score"]),
			Confidence:   asFloat(row["confidence"]),
			Reasons:      asStrings(row["reasons"]),
			ModelVersion: int(asInt64(row["model_version"])),
			CreatedAt:    asTime(row["created_at"]),
			Shown:        asBool(row["shown"]),
			Clicked:      asBool(row["clicked"]),
			Ordered:      asBool(row["ordered"]),
		})
	}
	return out, nil
}

// flagProperty maps a feedback flag onto its node property. Cypher cannot
// parameterize property keys, so only these names are ever interpolated.
func flagProperty(flag models.Feedback) (string, error) {
	switch flag {
	case models.FeedbackShown, models.FeedbackClicked, models.FeedbackOrdered:
		return string(flag), nil
	default:
		return "", fmt.Errorf("unknown feedback flag %q", flag)
	}
}

func (s *GraphStore) FlagRecommendations(ctx context.Context, userID string, ids []string, flag models.Feedback) error {
	if len(ids) == 0 {
		return nil
	}
	property, err := flagProperty(flag)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		MATCH (rec:Recommendation {user_id: $userId})
		WHERE rec.id IN $ids
		SET rec.%s = true
	`, property)
	if err := s.client.ExecuteWrite(ctx, query, map[string]interface{}{"userId": userID, "ids": ids}); err != nil {
		return fmt.Errorf("failed to flag recommendations as %s: %w", flag, err)
	}
	return nil
}

func (s *GraphStore) FlagLatest(ctx context.Context, userID string, item models.ItemRef, flag models.Feedback) (bool, error) {
	property, err := flagProperty(flag)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`
		MATCH (rec:Recommendation {user_id: $userId, item_type: $itemType, item_id: $itemId})
		WITH rec ORDER BY rec.created_at DESC LIMIT 1
		SET rec.%s = true
		RETURN count(rec) AS flagged
	`, property)
	params := map[string]interface{}{
		"userId":   userID,
		"itemType": item.Kind.String(),
		"itemId":   item.ID,
	}
	results, err := s.client.ExecuteWriteWithResult(ctx, query, params)
	if err != nil {
		return false, fmt.Errorf("failed to flag recommendation as %s: %w", flag, err)
	}
	return len(results) > 0 && asInt64(results[0]["flagged"]) > 0, nil
}

// DeleteAllRecommendations removes every recommendation in one transaction.
func (s *GraphStore) DeleteAllRecommendations(ctx context.Context) error {
	query := `
		MATCH (rec:Recommendation)
		DETACH DELETE rec
	`
	if err := s.client.ExecuteWrite(ctx, query, nil); err != nil {
		return fmt.Errorf("failed to delete recommendations: %w", err)
	}
	return nil
}

func (s *GraphStore) OrderCounter(ctx context.Context) (models.OrderCounter, error) {
	query := `
		MATCH (c:OrderCounter {key: $key})
		RETURN ` + counterFields
	results, err := s.client.ExecuteRead(ctx, query, map[string]interface{}{"key": counterKey})
	if err != nil {
		return models.OrderCounter{}, fmt.Errorf("failed to read order counter: %w", err)
	}
	if len(results) == 0 {
		return models.OrderCounter{ModelVersion: 1}, nil
	}
	return counterFromRow(results[0]), nil
}

const counterKey = "global"

// IncrementOrderCounter reads and writes the counter inside one write
// transaction. The SET takes the node's write lock, so concurrent increments
// serialize instead of losing updates.
func (s *GraphStore) IncrementOrderCounter(ctx context.Context) (models.OrderCounter, error) {
	query := `
		MERGE (c:OrderCounter {key: $key})
		ON CREATE SET c.counter = 0, c.model_version = 1
		SET c.counter = c.counter + 1
		RETURN ` + counterFields
	return s.writeCounter(ctx, query, map[string]interface{}{"key": counterKey})
}

func (s *GraphStore) ResetOrderCounter(ctx context.Context, at time.Time) (models.OrderCounter, error) {
	query := `
		MERGE (c:OrderCounter {key: $key})
		ON CREATE SET c.model_version = 1
		SET c.counter = 0, c.last_reset_at = $at, c.model_version = c.model_version + 1
		RETURN ` + counterFields
	return s.writeCounter(ctx, query, map[string]interface{}{"key": counterKey, "at": at})
}

func (s *GraphStore) writeCounter(ctx context.Context, query string, params map[string]interface{}) (models.OrderCounter, error) {
	result, err := s.client.ExecuteWriteTransaction(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return record.AsMap(), nil
	})
	if err != nil {
		return models.OrderCounter{}, fmt.Errorf("failed to update order counter: %w", err)
	}
	row, _ := result.(map[string]interface{})
	return counterFromRow(row), nil
}

func counterFromRow(row map[string]interface{}) models.OrderCounter {
	return models.OrderCounter{
		Counter:      asInt64(row["counter"]),
		LastResetAt:  asTime(row["last_reset_at"]),
		ModelVersion: int(asInt64(row["model_version"])),
	}
}
