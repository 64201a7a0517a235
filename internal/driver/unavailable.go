package driver

import (
	"context"
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrGraphUnavailable is returned by every query when no graph store is configured.
var ErrGraphUnavailable = errors.New("graph store not configured")

// Unavailable is the driver for graph.provider = "none". Callers treat its
// errors like any other graph outage and fall back.
type Unavailable struct{}

func (Unavailable) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	return neo4j.EagerResult{}, ErrGraphUnavailable
}

func (Unavailable) BuildIndices(ctx context.Context) error { return nil }

func (Unavailable) Close(ctx context.Context) error { return nil }
