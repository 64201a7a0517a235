package model

import "time"

type Chunk struct {
	ChunkID     string      `json:"chunk_id"`
	FileID      string      `json:"file_id,omitempty"`
	UserID      string      `json:"user_id"`
	FileName    string      `json:"file_name,omitempty"`
	Text        string      `json:"chunk_text"`
	Index       int         `json:"chunk_index"`
	TotalChunks int         `json:"total_chunks"`
	CharOffset  int         `json:"char_offset"`
	Summary     string      `json:"summary"`
	Tags        []string    `json:"tags"`
	Entities    []EntityRef `json:"entities"`
	Relations   []Relation  `json:"relations"`
	VectorID    string      `json:"vector_id"`
	GraphNodeID string      `json:"graph_node_id,omitempty"`
	CharCount   int         `json:"char_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

// SourceID returns the file id, or DirectInput for chunks without a file.
func (c Chunk) SourceID() string {
	if c.FileID == "" {
		return DirectInput
	}
	return c.FileID
}
