package model

import "time"

type IntentState string

const (
	IntentPending   IntentState = "pending"
	IntentCommitted IntentState = "committed"
	IntentFailed    IntentState = "failed"
	IntentAbandoned IntentState = "abandoned"
)

// WriteIntent tracks which stores hold a chunk. The reconciler drives every
// non-committed store to committed, or abandons the chunk when the document
// write never landed.
type WriteIntent struct {
	ChunkID   string      `json:"chunk_id"`
	UserID    string      `json:"user_id"`
	Graph     IntentState `json:"graph"`
	Document  IntentState `json:"document"`
	Vector    IntentState `json:"vector"`
	Attempts  int         `json:"attempts"`
	LastError string      `json:"last_error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewWriteIntent(chunkID, userID string, now time.Time) WriteIntent {
	return WriteIntent{
		ChunkID:   chunkID,
		UserID:    userID,
		Graph:     IntentPending,
		Document:  IntentPending,
		Vector:    IntentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (w WriteIntent) Settled() bool {
	if w.Document == IntentAbandoned {
		return true
	}
	return w.Graph == IntentCommitted && w.Document == IntentCommitted && w.Vector == IntentCommitted
}
