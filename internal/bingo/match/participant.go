package match

import (
	"sync"

	"github.com/discovered-games/careerbingo/internal/bingo/grid"
)

type ParticipantKind uint8

const (
	KindHuman ParticipantKind = iota + 1
	KindSimulated
)

func (k ParticipantKind) String() string {
	if k == KindSimulated {
		return "simulated"
	}
	return "human"
}

type RejectReason string

const (
	ReasonStaleRound         RejectReason = "stale_round"
	ReasonRoundClosed        RejectReason = "round_closed"
	ReasonUnknownParticipant RejectReason = "unknown_participant"
	ReasonInvalidPosition    RejectReason = "invalid_position"
	ReasonAlreadyUnlocked    RejectReason = "already_unlocked"
	ReasonDuplicate          RejectReason = "duplicate_submission"
	ReasonIncorrect          RejectReason = "incorrect"
)

// SubmissionResult is the definitive accept/reject answer returned to every
// submitter.
type SubmissionResult struct {
	Accepted bool         `json:"accepted"`
	Reason   RejectReason `json:"reason,omitempty"`
	Points   int          `json:"points"`
	NewScore int          `json:"newScore"`
}

func NewParticipant(id, name string, kind ParticipantKind, g grid.Grid, profile Profile) *Participant {
	p := &Participant{
		ID:        id,
		Name:      name,
		Kind:      kind,
		Grid:      g,
		Profile:   profile,
		connected: true,
	}
	// the center cell starts free
	p.unlocked = p.unlocked.With(grid.Center)
	return p
}

// Participant owns its unlock set, completed lines and score. All mutation
// happens under its own mutex; no cross-participant lock exists.
type Participant struct {
	ID      string
	Name    string
	Kind    ParticipantKind
	Grid    grid.Grid
	Profile Profile

	mtx       sync.Mutex
	unlocked  grid.Cells
	lines     grid.LineSet
	score     int
	correct   int
	incorrect int
	winner    bool
	lastRound int
	connected bool
}

// submit validates a click against this participant's grid for the given
// round. Rejection order: already unlocked (idempotent no-op), duplicate
// decision this round, wrong entity (recorded). points is the award for a
// correct click, base plus speed bonus.
func (p *Participant) submit(roundSeq, pos int, correctCode string, points int) SubmissionResult {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.unlocked.Has(pos) {
		return SubmissionResult{Reason: ReasonAlreadyUnlocked, NewScore: p.score}
	}

	if p.lastRound == roundSeq {
		return SubmissionResult{Reason: ReasonDuplicate, NewScore: p.score}
	}

	if p.Grid.Entities[pos].Code != correctCode {
		p.lastRound = roundSeq
		p.incorrect++
		return SubmissionResult{Reason: ReasonIncorrect, NewScore: p.score}
	}

	p.unlocked = p.unlocked.With(pos)
	p.lastRound = roundSeq
	p.correct++
	p.score += points

	return SubmissionResult{Accepted: true, Points: points, NewScore: p.score}
}

// recordLines stores newly completed lines detected during round resolution.
func (p *Participant) recordLines(lines []grid.Line) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	for _, l := range lines {
		p.lines = p.lines.With(l)
	}
}

func (p *Participant) newLines() []grid.Line {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return grid.Completed(p.unlocked, p.lines)
}

func (p *Participant) markWinner() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.winner = true
}

func (p *Participant) IsWinner() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.winner
}

func (p *Participant) Unlocked() grid.Cells {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.unlocked
}

func (p *Participant) CompletedLines() grid.LineSet {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.lines
}

func (p *Participant) Score() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.score
}

func (p *Participant) Stats() (correct, incorrect int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.correct, p.incorrect
}

// Connection state is a presence signal only; a disconnect never pauses a
// round.
func (p *Participant) SetConnected(connected bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.connected = connected
}

func (p *Participant) IsConnected() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.connected
}
