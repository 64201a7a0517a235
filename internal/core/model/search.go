package model

type ConceptCount struct {
	Name      string `json:"name"`
	Frequency int    `json:"frequency"`
}

type RecentNode struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

type GraphStats struct {
	TotalNodes  int            `json:"totalNodes"`
	TotalEdges  int            `json:"totalEdges"`
	NodesByType map[string]int `json:"nodesByType"`
	TopConcepts []ConceptCount `json:"topConcepts"`
	RecentNodes []RecentNode   `json:"recentNodes"`
}

func EmptyGraphStats() GraphStats {
	return GraphStats{
		NodesByType: map[string]int{},
		TopConcepts: []ConceptCount{},
		RecentNodes: []RecentNode{},
	}
}
