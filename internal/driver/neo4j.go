package driver

import (
	"context"
	"fmt"

	"github.com/agenthands/cognivault/internal/logger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Neo4jDriver struct {
	Driver neo4j.DriverWithContext
}

func NewNeo4jDriver(ctx context.Context, uri, username, password string) (*Neo4jDriver, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}

	logger.Info("Connected to Neo4j", "uri", uri)
	return &Neo4jDriver{Driver: driver}, nil
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *Neo4jDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX memory_id IF NOT EXISTS FOR (n:Memory) ON (n.id)",
		"CREATE INDEX memory_user IF NOT EXISTS FOR (n:Memory) ON (n.user_id)",
		"CREATE INDEX concept_name_user IF NOT EXISTS FOR (n:Concept) ON (n.name, n.user_id)",
		"CREATE INDEX entity_name_type_user IF NOT EXISTS FOR (n:Entity) ON (n.name, n.type, n.user_id)",
		"CREATE INDEX source_id IF NOT EXISTS FOR (n:Source) ON (n.id)",
	}

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// An existing index under another name is not fatal.
			logger.Warn("failed to create index", "query", q, "error", err)
		}
	}

	return nil
}
