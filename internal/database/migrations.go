package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/yishak-cs/food-recommender/pkg/logger"
)

var schemaStatements = []string{
	`CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
	`CREATE CONSTRAINT restaurant_id IF NOT EXISTS FOR (r:Restaurant) REQUIRE r.id IS UNIQUE`,
	`CREATE CONSTRAINT food_id IF NOT EXISTS FOR (f:Food) REQUIRE f.id IS UNIQUE`,
	`CREATE CONSTRAINT order_id IF NOT EXISTS FOR (o:Order) REQUIRE o.id IS UNIQUE`,
	`CREATE CONSTRAINT order_counter_key IF NOT EXISTS FOR (c:OrderCounter) REQUIRE c.key IS UNIQUE`,
	`CREATE INDEX recommendation_user IF NOT EXISTS FOR (rec:Recommendation) ON (rec.user_id, rec.created_at)`,
	`CREATE INDEX interaction_user IF NOT EXISTS FOR (i:Interaction) ON (i.user_id)`,
}

// EnsureSchema creates the uniqueness constraints and lookup indexes.
func EnsureSchema(ctx context.Context, client *Neo4jClient) error {
	for _, stmt := range schemaStatements {
		if err := client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply schema statement %q: %w", stmt, err)
		}
	}
	return nil
}

// CSVImporter seeds the catalog and order history from CSV files served
// under a base URL. Every step MERGEs on ids, so re-running is safe.
type CSVImporter struct {
	client *Neo4jClient
	log    *logger.Logger
}

// NewCSVImporter creates a new CSV importer
func NewCSVImporter(client *Neo4jClient, log *logger.Logger) *CSVImporter {
	return &CSVImporter{client: client, log: log.Component("CSVImporter")}
}

type importStep struct {
	name   string
	file   string
	query  string
	result string
}

var importSteps = []importStep{
	{
		name: "users",
		file: "users.csv",
		query: `
			LOAD CSV WITH HEADERS FROM $csvURL AS row
			WITH row WHERE row.user_id IS NOT NULL
			MERGE (u:User {id: row.user_id})
			SET u.name = row.name,
				u.email = row.email,
				u.role = coalesce(row.role, 'ROLE_CUSTOMER'),
				u.created_at = datetime(row.created_at)
			RETURN count(u) AS imported
		`,
	},
	{
		name: "restaurants",
		file: "restaurants.csv",
		query: `
			LOAD CSV WITH HEADERS FROM $csvURL AS row
			WITH row WHERE row.restaurant_id IS NOT NULL
			MERGE (r:Restaurant {id: row.restaurant_id})
			SET r.name = row.name,
				r.cuisine_type = row.cuisine_type,
				r.open = toBoolean(row.open),
				r.rating = toFloat(row.rating),
				r.num_rating = toInteger(row.num_rating)
			RETURN count(r) AS imported
		`,
	},
	{
		name: "foods",
		file: "foods.csv",
		query: `
			LOAD CSV WITH HEADERS FROM $csvURL AS row
			WITH row WHERE row.food_id IS NOT NULL
			MATCH (r:Restaurant {id: row.restaurant_id})
			MERGE (f:Food {id: row.food_id})
			SET f.name = row.name,
				f.price = toFloat(row.price),
				f.category = row.category,
				f.available = toBoolean(row.available),
				f.is_vegetarian = toBoolean(row.is_vegetarian),
				f.is_seasonal = toBoolean(row.is_seasonal)
			MERGE (r)-[:SERVES]->(f)
			RETURN count(f) AS imported
		`,
	},
	{
		name: "orders",
		file: "orders.csv",
		query: `
			LOAD CSV WITH HEADERS FROM $csvURL AS row
			WITH row WHERE row.order_id IS NOT NULL
			MATCH (u:User {id: row.user_id})
			MATCH (r:Restaurant {id: row.restaurant_id})
			MERGE (o:Order {id: row.order_id})
			SET o.status = row.status,
				o.created_at = datetime(row.created_at)
			MERGE (u)-[:HAS_MADE]->(o)
			MERGE (o)-[:FROM]->(r)
			RETURN count(o) AS imported
		`,
	},
	{
		name: "order_items",
		file: "order_items.csv",
		query: `
			LOAD CSV WITH HEADERS FROM $csvURL AS row
			WITH row WHERE row.order_id IS NOT NULL AND row.food_id IS NOT NULL
			MATCH (o:Order {id: row.order_id})
			MATCH (f:Food {id: row.food_id})
			MERGE (o)-[hi:HAS_ITEM]->(f)
			SET hi.quantity = coalesce(toInteger(row.quantity), 1)
			RETURN count(hi) AS imported
		`,
	},
}

// ImportAllData imports all CSV files in dependency order
func (i *CSVImporter) ImportAllData(ctx context.Context, baseURL string) error {
	i.log.Info("Starting CSV import", "base_url", baseURL)
	for _, step := range importSteps {
		csvURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(baseURL, "/"), step.file)
		results, err := i.client.ExecuteWriteWithResult(ctx, step.query, map[string]interface{}{"csvURL": csvURL})
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", step.name, err)
		}
		var imported int64
		if len(results) > 0 {
			imported = asInt64(results[0]["imported"])
		}
		i.log.Info("Imported CSV", "step", step.name, "rows", imported)
	}
	i.log.Info("CSV import completed")
	return nil
}

// GetImportStatus returns node counts per label.
func (i *CSVImporter) GetImportStatus(ctx context.Context) (map[string]int64, error) {
	query := `
		CALL { MATCH (u:User) RETURN count(u) AS users }
		CALL { MATCH (r:Restaurant) RETURN count(r) AS restaurants }
		CALL { MATCH (f:Food) RETURN count(f) AS foods }
		CALL { MATCH (o:Order) RETURN count(o) AS orders }
		CALL { MATCH (rec:Recommendation) RETURN count(rec) AS recommendations }
		RETURN users, restaurants, foods, orders, recommendations
	`
	results, err := i.client.ExecuteRead(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	keys := []string{"users", "restaurants", "foods", "orders", "recommendations"}
	status := make(map[string]int64, len(keys))
	for _, key := range keys {
		status[key] = 0
		if len(results) > 0 {
			status[key] = asInt64(results[0][key])
		}
	}
	return status, nil
}
