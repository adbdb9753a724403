package match

import (
	"time"

	"github.com/discovered-games/careerbingo/internal/bingo/grid"
)

// Event is a state-change notification fanned out to every observer of a
// session. The correct entity itself never appears in an event payload, only
// the opaque prompt.
type Event interface {
	Kind() string
}

type RoundStarted struct {
	RoundSeq int       `json:"roundSeq"`
	Prompt   string    `json:"prompt"`
	Repeat   bool      `json:"repeat"`
	Deadline time.Time `json:"deadline"`
}

func (RoundStarted) Kind() string { return "round_started" }

type ParticipantAnswered struct {
	ParticipantID string `json:"participantId"`
	RoundSeq      int    `json:"roundSeq"`
	Position      int    `json:"position"`
	Correct       bool   `json:"correct"`
	NewScore      int    `json:"newScore"`
}

func (ParticipantAnswered) Kind() string { return "participant_answered" }

type LineCompleted struct {
	ParticipantID string    `json:"participantId"`
	RoundSeq      int       `json:"roundSeq"`
	Line          grid.Line `json:"lineId"`
}

func (LineCompleted) Kind() string { return "line_completed" }

type SlotClaimed struct {
	ParticipantID  string `json:"participantId"`
	RoundSeq       int    `json:"roundSeq"`
	RemainingSlots int    `json:"remainingSlots"`
}

func (SlotClaimed) Kind() string { return "slot_claimed" }

type SessionCompleted struct {
	Reason      CompletionReason `json:"reason"`
	FinalScores []Score          `json:"finalScores"`
}

func (SessionCompleted) Kind() string { return "session_completed" }

// Broadcaster fans events out to all connected observers of a session. The
// wire encoding is the transport's concern.
type Broadcaster interface {
	Broadcast(sessionID string, ev Event)
}

// Recorder appends resolution events to the durable event log. Recording
// failures never fail the round; the session only logs them.
type Recorder interface {
	Record(sessionID string, ev Event) error
}

// BroadcastFunc adapts a function to the Broadcaster interface.
type BroadcastFunc func(sessionID string, ev Event)

func (f BroadcastFunc) Broadcast(sessionID string, ev Event) { f(sessionID, ev) }

type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(string, Event) {}

type NopRecorder struct{}

func (NopRecorder) Record(string, Event) error { return nil }
