package model

import "time"

type TimelineEvent struct {
	FileID       string    `json:"file_id"`
	UserID       string    `json:"user_id"`
	Timestamp    time.Time `json:"timestamp"`
	Tags         []string  `json:"tags"`
	Summary      string    `json:"summary"`
	TextSnippet  string    `json:"text_snippet"`
	ChunkID      string    `json:"chunk_id"`
	FileName     *string   `json:"file_name"`
	DocumentType *string   `json:"document_type"`
}

// TopicSpikes maps a YYYY-MM month to tag counts within that month.
type TopicSpikes map[string]map[string]int

type EmotionPoint struct {
	Date      time.Time `json:"date"`
	Sentiment string    `json:"sentiment"`
	Score     float64   `json:"score"`
}

type TopicNode struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Type      string     `json:"type"`
	Count     int        `json:"count"`
	FirstSeen *time.Time `json:"firstSeen,omitempty"`
}

type TopicEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
	Type   string `json:"type"`
}

type NewBranch struct {
	Topic         string    `json:"topic"`
	Date          time.Time `json:"date"`
	RelatedTopics []string  `json:"relatedTopics"`
}

type KnowledgeEvolution struct {
	Nodes       []TopicNode `json:"nodes"`
	Edges       []TopicEdge `json:"edges"`
	NewBranches []NewBranch `json:"newBranches"`
	Clusters    [][]string  `json:"clusters"`
}

func EmptyEvolution() KnowledgeEvolution {
	return KnowledgeEvolution{
		Nodes:       []TopicNode{},
		Edges:       []TopicEdge{},
		NewBranches: []NewBranch{},
		Clusters:    [][]string{},
	}
}

type BranchTrigger struct {
	Date    time.Time `json:"date"`
	Trigger string    `json:"trigger"`
	LedTo   []string  `json:"ledTo"`
}
