package community

import (
	"sort"

	"github.com/agenthands/cognivault/internal/core/model"
)

type Detector interface {
	Detect(nodes []model.TopicNode, edges []model.TopicEdge) [][]string
}

// LabelPropagationDetector groups topics with the Label Propagation Algorithm
// over co-occurrence weights.
type LabelPropagationDetector struct {
	MaxIterations int
	MinSize       int
}

func NewLabelPropagationDetector() *LabelPropagationDetector {
	return &LabelPropagationDetector{
		MaxIterations: 20,
		MinSize:       2,
	}
}

// Detect returns communities as sorted lists of node ids, largest first.
// Singletons are dropped.
func (d *LabelPropagationDetector) Detect(nodes []model.TopicNode, edges []model.TopicEdge) [][]string {
	if len(nodes) == 0 {
		return [][]string{}
	}

	adj := make(map[string]map[string]int, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := adj[n.ID]; dup {
			continue
		}
		adj[n.ID] = make(map[string]int)
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)

	for _, e := range edges {
		if _, ok := adj[e.Source]; !ok {
			continue
		}
		if _, ok := adj[e.Target]; !ok || e.Source == e.Target {
			continue
		}
		w := e.Weight
		if w <= 0 {
			w = 1
		}
		adj[e.Source][e.Target] += w
		adj[e.Target][e.Source] += w
	}

	labels := make(map[string]string, len(ids))
	for _, id := range ids {
		labels[id] = id
	}

	for iter := 0; iter < d.MaxIterations; iter++ {
		changed := 0
		for _, u := range ids {
			neighbors := adj[u]
			if len(neighbors) == 0 {
				continue
			}

			counts := make(map[string]int)
			best := 0
			for v, w := range neighbors {
				counts[labels[v]] += w
				if counts[labels[v]] > best {
					best = counts[labels[v]]
				}
			}

			// Ties go to the current label, then the largest label.
			if counts[labels[u]] == best {
				continue
			}
			var candidates []string
			for label, c := range counts {
				if c == best {
					candidates = append(candidates, label)
				}
			}
			sort.Strings(candidates)
			labels[u] = candidates[len(candidates)-1]
			changed++
		}
		if changed == 0 {
			break
		}
	}

	groups := make(map[string][]string)
	for _, id := range ids {
		groups[labels[id]] = append(groups[labels[id]], id)
	}

	communities := [][]string{}
	for _, members := range groups {
		if len(members) >= d.MinSize {
			sort.Strings(members)
			communities = append(communities, members)
		}
	}
	sort.Slice(communities, func(i, j int) bool {
		if len(communities[i]) != len(communities[j]) {
			return len(communities[i]) > len(communities[j])
		}
		return communities[i][0] < communities[j][0]
	})
	return communities
}
