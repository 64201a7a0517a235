package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/logger"
)

const (
	DefaultGraphLimit = 100
	SubgraphLimit     = 200
	SearchLimit       = 20
	MinDepth          = 1
	MaxDepth          = 3
	topConceptsLimit  = 10
	recentNodesLimit  = 5
)

// FullGraph returns up to limit of the user's newest nodes and the edges
// between them.
func (v *Vault) FullGraph(ctx context.Context, userID string, limit int) (model.Graph, error) {
	if limit <= 0 {
		limit = DefaultGraphLimit
	}
	res, err := v.Graph.ExecuteQuery(ctx, driver.GraphNodesQuery, map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
	})
	if err != nil {
		return model.Graph{}, fmt.Errorf("failed to load graph nodes: %w", err)
	}
	return v.withEdges(ctx, userID, nodesFrom(res))
}

// Subgraph expands depth hops around nodeID. Depth is clamped to 1..3.
func (v *Vault) Subgraph(ctx context.Context, userID, nodeID string, depth int) (model.Graph, error) {
	depth = ClampDepth(depth)
	res, err := v.Graph.ExecuteQuery(ctx, driver.SubgraphNodesQuery(depth), map[string]interface{}{
		"node_id": nodeID,
		"user_id": userID,
		"limit":   SubgraphLimit,
	})
	if err != nil {
		return model.Graph{}, fmt.Errorf("failed to load subgraph: %w", err)
	}
	nodes := nodesFrom(res)
	if len(nodes) == 0 {
		return model.Graph{}, fmt.Errorf("node %s: %w", nodeID, model.ErrNotFound)
	}
	return v.withEdges(ctx, userID, nodes)
}

func ClampDepth(depth int) int {
	return max(MinDepth, min(MaxDepth, depth))
}

func (v *Vault) withEdges(ctx context.Context, userID string, nodes []model.GraphNode) (model.Graph, error) {
	g := model.Graph{Nodes: nodes, Edges: []model.GraphEdge{}}
	if len(nodes) == 0 {
		return g, nil
	}

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	res, err := v.Graph.ExecuteQuery(ctx, driver.GraphEdgesQuery, map[string]interface{}{
		"user_id": userID,
		"ids":     ids,
	})
	if err != nil {
		return model.Graph{}, fmt.Errorf("failed to load graph edges: %w", err)
	}
	for _, rec := range res.Records {
		src := driver.RecordString(rec, "source")
		dst := driver.RecordString(rec, "target")
		typ := driver.RecordString(rec, "type")
		g.Edges = append(g.Edges, model.GraphEdge{
			ID:         fmt.Sprintf("%s-%s-%s", src, typ, dst),
			Source:     src,
			Target:     dst,
			Type:       typ,
			Label:      typ,
			Properties: driver.RecordMap(rec, "props"),
		})
	}
	return g, nil
}

// Search matches names, summaries and text case-insensitively. nodeType
// restricts the label when set.
func (v *Vault) Search(ctx context.Context, userID, query, nodeType string) ([]model.GraphNode, error) {
	res, err := v.Graph.ExecuteQuery(ctx, driver.SearchNodesQuery, map[string]interface{}{
		"user_id": userID,
		"type":    nodeType,
		"query":   query,
		"limit":   SearchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search graph: %w", err)
	}
	nodes := nodesFrom(res)
	if v.Reranker == nil || len(nodes) < 2 {
		return nodes, nil
	}

	docs := make([]string, len(nodes))
	for i, n := range nodes {
		docs[i] = n.Label
		if s, ok := n.Properties["summary"].(string); ok && s != "" && s != n.Label {
			docs[i] += ": " + s
		}
	}
	order, err := v.Reranker.Rank(ctx, query, docs)
	if err != nil || len(order) != len(nodes) {
		logger.Warn("rerank failed, keeping database order", "query", query, "error", err)
		return nodes, nil
	}
	ranked := make([]model.GraphNode, 0, len(nodes))
	for _, i := range order {
		ranked = append(ranked, nodes[i])
	}
	return ranked, nil
}

// Stats summarizes the user's graph. It satisfies dashboard.StatsProvider.
func (v *Vault) Stats(ctx context.Context, userID string) (model.GraphStats, error) {
	stats := model.EmptyGraphStats()
	params := map[string]interface{}{"user_id": userID}

	res, err := v.Graph.ExecuteQuery(ctx, driver.CountNodesByTypeQuery, params)
	if err != nil {
		return stats, fmt.Errorf("failed to count nodes: %w", err)
	}
	for _, rec := range res.Records {
		n := driver.RecordInt(rec, "count")
		stats.NodesByType[driver.RecordString(rec, "type")] += n
		stats.TotalNodes += n
	}

	res, err = v.Graph.ExecuteQuery(ctx, driver.CountEdgesQuery, params)
	if err != nil {
		return stats, fmt.Errorf("failed to count edges: %w", err)
	}
	if len(res.Records) > 0 {
		stats.TotalEdges = driver.RecordInt(res.Records[0], "count")
	}

	res, err = v.Graph.ExecuteQuery(ctx, driver.TopConceptsQuery, map[string]interface{}{
		"user_id": userID,
		"limit":   topConceptsLimit,
	})
	if err != nil {
		return stats, fmt.Errorf("failed to load top concepts: %w", err)
	}
	for _, rec := range res.Records {
		stats.TopConcepts = append(stats.TopConcepts, model.ConceptCount{
			Name:      driver.RecordString(rec, "name"),
			Frequency: driver.RecordInt(rec, "count"),
		})
	}

	res, err = v.Graph.ExecuteQuery(ctx, driver.RecentMemoriesQuery, map[string]interface{}{
		"user_id": userID,
		"limit":   recentNodesLimit,
	})
	if err != nil {
		return stats, fmt.Errorf("failed to load recent memories: %w", err)
	}
	for _, rec := range res.Records {
		stats.RecentNodes = append(stats.RecentNodes, model.RecentNode{
			ID:      driver.RecordString(rec, "id"),
			Summary: driver.RecordString(rec, "summary"),
		})
	}
	return stats, nil
}

func nodesFrom(res neo4j.EagerResult) []model.GraphNode {
	nodes := make([]model.GraphNode, 0, len(res.Records))
	seen := make(map[string]bool, len(res.Records))
	for _, rec := range res.Records {
		id := driver.RecordString(rec, "id")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		props := driver.RecordMap(rec, "props")
		delete(props, "embedding")
		nodes = append(nodes, model.GraphNode{
			ID:         id,
			Type:       strings.ToLower(driver.RecordString(rec, "type")),
			Label:      driver.RecordString(rec, "label"),
			Properties: props,
		})
	}
	return nodes
}
