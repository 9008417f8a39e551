package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yishak-cs/food-recommender/pkg/logger"
)

// Neo4jClient wraps the Neo4j driver with application-specific methods
type Neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
	log      *logger.Logger
}

// Config holds the Neo4j connection configuration
type Config struct {
	URI      string
	Username string
	Password string
	Database string // typically "neo4j" for AuraDB
}

// NewNeo4jClient creates a new Neo4j client connection
func NewNeo4jClient(ctx context.Context, config Config, log *logger.Logger) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		driver.Close(verifyCtx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	log.Info("Connected to Neo4j", "uri", config.URI, "database", config.Database)
	return &Neo4jClient{
		driver:   driver,
		database: config.Database,
		log:      log.Component("Neo4jClient"),
	}, nil
}

// Close closes the Neo4j driver connection
func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// ExecuteWrite executes a write query (CREATE, MERGE, DELETE, etc.). Each call
// runs in its own transaction.
func (c *Neo4jClient) ExecuteWrite(ctx context.Context, query string, params map[string]interface{}) error {
	_, err := c.ExecuteWriteWithResult(ctx, query, params)
	return err
}

// ExecuteWriteWithResult executes a write query and returns results
func (c *Neo4jClient) ExecuteWriteWithResult(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	result, err := neo4j.ExecuteQuery(
		ctx,
		c.driver,
		query,
		params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithWritersRouting())
	if err != nil {
		return nil, fmt.Errorf("failed to execute write query: %w", err)
	}
	return recordMaps(result.Records), nil
}

// ExecuteRead executes a read query and processes results
func (c *Neo4jClient) ExecuteRead(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	result, err := neo4j.ExecuteQuery(
		ctx,
		c.driver,
		query,
		params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, fmt.Errorf("failed to execute read query: %w", err)
	}
	return recordMaps(result.Records), nil
}

func recordMaps(records []*neo4j.Record) []map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		recordMap := make(map[string]interface{}, len(record.Keys))
		for i, key := range record.Keys {
			recordMap[key] = record.Values[i]
		}
		results = append(results, recordMap)
	}
	return results
}

// ExecuteWriteTransaction runs several statements in one managed write
// transaction. The driver retries work on transient failures.
func (c *Neo4jClient) ExecuteWriteTransaction(ctx context.Context, work func(neo4j.ManagedTransaction) (interface{}, error)) (interface{}, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, work)
	if err != nil {
		return nil, fmt.Errorf("failed to execute write transaction: %w", err)
	}
	return result, nil
}

// Health checks the database connection health
func (c *Neo4jClient) Health(ctx context.Context) error {
	_, err := neo4j.ExecuteQuery(
		ctx,
		c.driver,
		"RETURN 1",
		nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
