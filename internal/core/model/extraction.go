package model

type EntityRef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Relation struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// Enrichment is the per-chunk metadata produced by the LLM or its fallback.
type Enrichment struct {
	Summary   string      `json:"summary"`
	Tags      []string    `json:"tags"`
	Entities  []EntityRef `json:"entities"`
	Relations []Relation  `json:"relations"`
}

type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
