package model

import (
	"encoding/json"
	"time"
)

// Event is one append-only row in a session's resolution log.
type Event struct {
	SessionID string          `json:"sessionId"`
	Seq       uint64          `json:"seq"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Summary is the last known state of a finished session, loadable on
// restart.
type Summary struct {
	SessionID   string          `json:"sessionId"`
	Reason      string          `json:"reason"`
	FinalScores json.RawMessage `json:"finalScores"`
	CreatedAt   time.Time       `json:"createdAt"`
}
