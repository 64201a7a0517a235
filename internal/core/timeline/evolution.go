package timeline

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/agenthands/cognivault/internal/core/embedding"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/logger"
)

const (
	cooccurrenceLimit = 50
	minBranchTopics   = 3
	earlyFraction     = 0.3
	maxRelatedTopics  = 3
	maxLedTo          = 3
	topicType         = "topic"
	relatedEdgeType   = "related"
)

// KnowledgeEvolution reads the concept graph and recomputes it from the
// document store when the graph has nothing to offer.
func (a *Analyzer) KnowledgeEvolution(ctx context.Context, userID string) model.KnowledgeEvolution {
	evo := model.EmptyEvolution()

	chunks, chunksOK := a.chunks(ctx, userID)

	nodes, edges := a.graphTopics(ctx, userID)
	if len(nodes) == 0 {
		if !chunksOK || len(chunks) == 0 {
			return evo
		}
		nodes, edges = TopicGraph(chunks)
	}
	evo.Nodes = nodes
	evo.Edges = edges
	evo.NewBranches = NewBranches(chunks)
	evo.Clusters = a.clusters(nodes, edges)
	return evo
}

func (a *Analyzer) graphTopics(ctx context.Context, userID string) ([]model.TopicNode, []model.TopicEdge) {
	res, err := a.Graph.ExecuteQuery(ctx, driver.ConceptTimelineQuery, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		logger.Warn("concept timeline query failed, recomputing from chunks", "user_id", userID, "error", err)
		return nil, nil
	}

	nodes := make([]model.TopicNode, 0, len(res.Records))
	ids := make(map[string]string, len(res.Records))
	for _, rec := range res.Records {
		name := driver.RecordString(rec, "name")
		if name == "" {
			continue
		}
		if _, dup := ids[name]; dup {
			continue
		}
		node := model.TopicNode{
			ID:    fmt.Sprintf("topic_%d", len(nodes)),
			Label: name,
			Type:  topicType,
			Count: driver.RecordInt(rec, "count"),
		}
		if t, ok := driver.RecordTime(rec, "first_seen"); ok {
			node.FirstSeen = &t
		}
		ids[name] = node.ID
		nodes = append(nodes, node)
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	edges := []model.TopicEdge{}
	res, err = a.Graph.ExecuteQuery(ctx, driver.ConceptCooccurrenceQuery, map[string]interface{}{
		"user_id": userID,
		"limit":   cooccurrenceLimit,
	})
	if err != nil {
		logger.Warn("concept co-occurrence query failed", "user_id", userID, "error", err)
		return nodes, edges
	}
	for _, rec := range res.Records {
		src, okSrc := ids[driver.RecordString(rec, "source")]
		dst, okDst := ids[driver.RecordString(rec, "target")]
		if !okSrc || !okDst || src == dst {
			continue
		}
		edges = append(edges, model.TopicEdge{
			ID:     "edge_" + src + "_" + dst,
			Source: src,
			Target: dst,
			Weight: driver.RecordInt(rec, "weight"),
			Type:   relatedEdgeType,
		})
	}
	return nodes, edges
}

// TopicGraph builds topic nodes in first-seen order and co-occurrence edges
// from chunks sorted oldest first.
func TopicGraph(chunks []model.Chunk) ([]model.TopicNode, []model.TopicEdge) {
	var topics []string
	members := make(map[string]map[string]bool)
	firstSeen := make(map[string]time.Time)

	for _, c := range chunks {
		for _, tag := range normalizedTags(c.Tags) {
			if members[tag] == nil {
				members[tag] = make(map[string]bool)
				firstSeen[tag] = c.CreatedAt
				topics = append(topics, tag)
			}
			members[tag][c.ChunkID] = true
		}
	}

	nodes := make([]model.TopicNode, 0, len(topics))
	for i, topic := range topics {
		seen := firstSeen[topic]
		nodes = append(nodes, model.TopicNode{
			ID:        fmt.Sprintf("topic_%d", i),
			Label:     topic,
			Type:      topicType,
			Count:     len(members[topic]),
			FirstSeen: &seen,
		})
	}

	edges := []model.TopicEdge{}
	for i := 0; i < len(topics); i++ {
		for j := i + 1; j < len(topics); j++ {
			shared := 0
			for id := range members[topics[i]] {
				if members[topics[j]][id] {
					shared++
				}
			}
			if shared == 0 {
				continue
			}
			edges = append(edges, model.TopicEdge{
				ID:     fmt.Sprintf("edge_%d_%d", i, j),
				Source: fmt.Sprintf("topic_%d", i),
				Target: fmt.Sprintf("topic_%d", j),
				Weight: shared,
				Type:   relatedEdgeType,
			})
		}
	}
	return nodes, edges
}

// NewBranches lists topics that first appeared after the earliest 30% of
// topics, each with a few topics it was tagged alongside.
func NewBranches(chunks []model.Chunk) []model.NewBranch {
	type seen struct {
		topic string
		at    time.Time
	}

	var order []seen
	known := make(map[string]bool)
	for _, c := range chunks {
		for _, tag := range normalizedTags(c.Tags) {
			if !known[tag] {
				known[tag] = true
				order = append(order, seen{topic: tag, at: c.CreatedAt})
			}
		}
	}

	branches := []model.NewBranch{}
	if len(order) <= minBranchTopics {
		return branches
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].at.Before(order[j].at) })
	threshold := order[int(float64(len(order))*earlyFraction)].at

	for _, s := range order {
		if !s.at.After(threshold) {
			continue
		}
		related := []string{}
		for _, c := range chunks {
			tags := normalizedTags(c.Tags)
			if !slices.Contains(tags, s.topic) {
				continue
			}
			for _, t := range tags {
				if t != s.topic && !slices.Contains(related, t) && len(related) < maxRelatedTopics {
					related = append(related, t)
				}
			}
		}
		branches = append(branches, model.NewBranch{Topic: s.topic, Date: s.at, RelatedTopics: related})
	}
	return branches
}

// clusters reports communities by topic label.
func (a *Analyzer) clusters(nodes []model.TopicNode, edges []model.TopicEdge) [][]string {
	if a.Detector == nil {
		return [][]string{}
	}
	labels := make(map[string]string, len(nodes))
	for _, n := range nodes {
		labels[n.ID] = n.Label
	}

	found := a.Detector.Detect(nodes, edges)
	out := make([][]string, 0, len(found))
	for _, group := range found {
		named := make([]string, 0, len(group))
		for _, id := range group {
			named = append(named, labels[id])
		}
		sort.Strings(named)
		out = append(out, named)
	}
	return out
}

// BranchTriggers walks chunks in time order and reports the first appearance
// of tags whose content is not already familiar.
func (a *Analyzer) BranchTriggers(ctx context.Context, userID string) []model.BranchTrigger {
	chunks, ok := a.chunks(ctx, userID)
	if !ok || len(chunks) == 0 {
		return []model.BranchTrigger{}
	}
	return DetectBranches(chunks, a.vectors(ctx, chunks), a.Policy.BranchSuppression)
}

// vectors returns the stored vectors by chunk id, or nil when the vector
// store cannot serve them.
func (a *Analyzer) vectors(ctx context.Context, chunks []model.Chunk) map[string][]float32 {
	if a.Vectors == nil {
		return nil
	}
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, c.ChunkID)
	}
	recs, err := a.Vectors.FetchMany(ctx, ids)
	if err != nil {
		logger.Warn("failed to fetch vectors for branch detection, using tag overlap", "error", err)
		return nil
	}
	out := make(map[string][]float32, len(recs))
	for id, rec := range recs {
		out[id] = rec.Values
	}
	return out
}

// DetectBranches expects chunks sorted oldest first. Similarity to earlier
// content is the best cosine score against earlier vectors when both sides
// have one, and the share of already seen tags otherwise.
func DetectBranches(chunks []model.Chunk, vectors map[string][]float32, suppression float64) []model.BranchTrigger {
	triggers := []model.BranchTrigger{}
	seen := make(map[string]bool)
	var previous [][]float32

	for i, c := range chunks {
		tags := normalizedTags(c.Tags)
		if len(tags) == 0 {
			continue
		}

		var newTags []string
		shared := 0
		for _, t := range tags {
			if seen[t] {
				shared++
			} else {
				newTags = append(newTags, t)
			}
		}

		current, hasVector := vectors[c.ChunkID]

		if len(newTags) > 0 {
			var sim float64
			if hasVector && len(previous) > 0 {
				for _, p := range previous {
					sim = max(sim, embedding.Cosine(current, p))
				}
			} else {
				sim = float64(shared) / float64(len(tags))
			}

			if sim < suppression {
				triggers = append(triggers, model.BranchTrigger{
					Date:    c.CreatedAt,
					Trigger: newTags[0],
					LedTo:   ledTo(chunks[i+1:], newTags, tags),
				})
			}
		}

		for _, t := range tags {
			seen[t] = true
		}
		if hasVector {
			previous = append(previous, current)
		}
	}
	return triggers
}

// ledTo collects tags of later chunks that share one of newTags, excluding
// the triggering chunk's own tags.
func ledTo(later []model.Chunk, newTags, own []string) []string {
	out := []string{}
	for _, c := range later {
		tags := normalizedTags(c.Tags)
		if !slices.ContainsFunc(tags, func(t string) bool { return slices.Contains(newTags, t) }) {
			continue
		}
		for _, t := range tags {
			if len(out) == maxLedTo {
				return out
			}
			if !slices.Contains(own, t) && !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}
