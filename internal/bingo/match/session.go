package match

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/discovered-games/careerbingo/internal/bingo/grid"
	"github.com/discovered-games/careerbingo/internal/catalog"
	"github.com/discovered-games/careerbingo/internal/clock"
	"github.com/discovered-games/careerbingo/internal/content"
	"github.com/discovered-games/careerbingo/internal/logging"
	"go.uber.org/zap"
)

const (
	StatePending uint8 = iota + 1
	StateActive
	StateCompleted
)

type CompletionReason string

const (
	ReasonRoundsExhausted  CompletionReason = "rounds_exhausted"
	ReasonSlotsExhausted   CompletionReason = "slots_exhausted"
	ReasonContentExhausted CompletionReason = "content_exhausted"
	ReasonAbandoned        CompletionReason = "abandoned"
	ReasonInternalError    CompletionReason = "internal_error"
)

var (
	ErrContextClosed      = fmt.Errorf("context closed")
	ErrAlreadyStarted     = fmt.Errorf("session already started")
	ErrSessionCompleted   = fmt.Errorf("session completed")
	ErrSessionFull        = fmt.Errorf("session full")
	ErrNoParticipants     = fmt.Errorf("session has no participants")
	ErrDuplicateJoin      = fmt.Errorf("participant already joined")
	ErrUnknownParticipant = fmt.Errorf("participant not found")
)

// Score is one participant's final standing.
type Score struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	Points        int    `json:"points"`
	Lines         int    `json:"lines"`
	Correct       int    `json:"correct"`
	Incorrect     int    `json:"incorrect"`
	Winner        bool   `json:"winner"`
}

// RoundInfo is bookkeeping kept per closed round.
type RoundInfo struct {
	Seq        int       `json:"seq"`
	EntityCode string    `json:"entityCode"`
	Repeat     bool      `json:"repeat"`
	Answered   int       `json:"answered"`
	Deadline   time.Time `json:"deadline"`
}

// Snapshot is what a reconnecting participant receives instead of a replay
// of missed rounds.
type Snapshot struct {
	SessionID string       `json:"sessionId"`
	Room      string       `json:"room"`
	State     uint8        `json:"state"`
	RoundSeq  int          `json:"roundSeq"`
	Prompt    string       `json:"prompt"`
	Deadline  time.Time    `json:"deadline"`
	Unlocked  grid.Cells   `json:"unlocked"`
	Lines     grid.LineSet `json:"lines"`
	Score     int          `json:"score"`
	Scores    []Score      `json:"scores"`
}

type round struct {
	seq      int
	entity   catalog.Entity
	prompt   string
	repeat   bool
	deadline time.Time

	mtx      sync.Mutex
	open     bool
	arrivals []*Participant
}

func NewSession(config Config) *Session {
	config = config.withDefaults()
	return &Session{
		Config:    config,
		ID:        config.SessionID,
		Room:      config.Room,
		CreatedAt: config.Clock.Now(),
		clk:       config.Clock,
		state:     StatePending,
		byID:      map[string]*Participant{},
		used:      map[string]struct{}{},
		cancelCh:  make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Session runs one game for a room: a bounded sequence of timed rounds over
// a fixed roster and a single slot pool. One goroutine per active session
// drives the loop; submissions arrive concurrently from any number of
// goroutines.
type Session struct {
	Config Config

	ID        string
	Room      string
	CreatedAt time.Time

	clk    clock.Clock
	logger *zap.SugaredLogger

	mtx          sync.RWMutex
	state        uint8
	participants []*Participant
	byID         map[string]*Participant
	curr         *round
	used         map[string]struct{}
	roundLog     []RoundInfo
	slots        *SlotPool
	reason       CompletionReason
	winners      int

	sema       sync.Once
	cancelOnce sync.Once
	cancelCh   chan struct{}
	doneCh     chan struct{}
	cancel     func()
}

// AddParticipant registers a participant. The grid invariant is checked at
// the door; a broken grid never enters a session. Capacity and the join
// cutoff are enforced here, under the session lock, so concurrent joins
// cannot overfill the roster between a check and the append.
func (s *Session) AddParticipant(p *Participant) error {
	if err := p.Grid.Validate(); err != nil {
		return fmt.Errorf("participant grid: %w", err)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.state == StateCompleted {
		return ErrSessionCompleted
	}
	if _, ok := s.byID[p.ID]; ok {
		return ErrDuplicateJoin
	}
	if len(s.participants) >= s.Config.MaxParticipants {
		return ErrSessionFull
	}
	if s.state == StateActive && s.curr != nil && s.curr.seq > s.Config.JoinCutoffRounds {
		return ErrSessionFull
	}

	s.participants = append(s.participants, p)
	s.byID[p.ID] = p
	return nil
}

// Start computes the slot pool from the roster and launches the round loop.
func (s *Session) Start(ctx context.Context) error {
	s.mtx.Lock()
	if s.state != StatePending {
		s.mtx.Unlock()
		return ErrAlreadyStarted
	}
	if len(s.participants) == 0 {
		s.mtx.Unlock()
		return ErrNoParticipants
	}

	s.slots = NewSlotPool(len(s.participants))
	s.state = StateActive
	s.mtx.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.logger = logging.FromContext(ctx).Named("match.session")
	s.sema.Do(func() {
		go s.loop(ctx)
	})

	s.logger.Infof("session %s started, room %s, slots %d", s.ID, s.Room, s.slots.Total())
	return nil
}

// Cancel ends the session from outside: the current round closes, in-flight
// simulated decisions are dropped and the session completes as abandoned.
// A pending session has no loop to observe the signal, so it completes
// right here.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.cancelCh)
	})

	s.mtx.RLock()
	pending := s.state == StatePending
	s.mtx.RUnlock()

	if pending {
		s.complete(ReasonAbandoned)
	}
}

func (s *Session) loop(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("match.loop")
	defer func() {
		if s.cancel != nil {
			s.cancel()
		}
	}()

	for seq := 1; seq <= s.Config.RoundsNum; seq++ {
		entity, repeat, err := s.nextEntity()
		if err != nil {
			if errors.Is(err, content.ErrExhausted) {
				logger.Infof("content exhausted on round %d, session %s", seq, s.ID)
				s.complete(ReasonContentExhausted)
				return
			}
			logger.Errorf("next entity: %v", err)
			s.complete(ReasonInternalError)
			return
		}

		r, queue := s.openRound(seq, entity, repeat)
		logger.Infof("round %d opened, session %s, room %s, deadline %s", seq, s.ID, s.Room, r.deadline)

		waitErr := s.await(ctx, r, queue)
		s.closeRound(r)
		if waitErr != nil {
			logger.Infof("session %s cancelled during round %d", s.ID, seq)
			s.complete(ReasonAbandoned)
			return
		}

		if err := s.resolve(logger, r); err != nil {
			logger.Errorf("resolve round %d: %v", seq, err)
			s.complete(ReasonInternalError)
			return
		}

		if s.slots.Remaining() == 0 {
			s.complete(ReasonSlotsExhausted)
			return
		}

		if seq == s.Config.RoundsNum {
			break
		}

		select {
		case <-ctx.Done():
			s.complete(ReasonAbandoned)
			return
		case <-s.cancelCh:
			s.complete(ReasonAbandoned)
			return
		case <-s.clk.After(s.Config.InterRoundPause):
		}
	}

	s.complete(ReasonRoundsExhausted)
}

// nextEntity draws the next question entity. Fresh entities first; once the
// provider reports no fresh ones remain, repeats are allowed and flagged.
func (s *Session) nextEntity() (catalog.Entity, bool, error) {
	s.mtx.RLock()
	excluding := make(map[string]struct{}, len(s.used))
	for code := range s.used {
		excluding[code] = struct{}{}
	}
	s.mtx.RUnlock()

	entity, err := s.Config.Provider.NextEntity(s.ID, excluding)
	if err == nil {
		s.mtx.Lock()
		s.used[entity.Code] = struct{}{}
		s.mtx.Unlock()
		return entity, false, nil
	}

	if !errors.Is(err, content.ErrExhausted) {
		return catalog.Entity{}, false, fmt.Errorf("provider: %w", err)
	}

	entity, err = s.Config.Provider.NextEntity(s.ID, nil)
	if err != nil {
		return catalog.Entity{}, false, fmt.Errorf("provider with repeats: %w", err)
	}

	return entity, true, nil
}

func (s *Session) openRound(seq int, entity catalog.Entity, repeat bool) (*round, *decisionQueue) {
	now := s.clk.Now()
	r := &round{
		seq:      seq,
		entity:   entity,
		prompt:   entity.Prompt,
		repeat:   repeat,
		deadline: now.Add(s.Config.RoundTime),
		open:     true,
	}

	s.mtx.Lock()
	s.curr = r
	roster := make([]*Participant, len(s.participants))
	copy(roster, s.participants)
	s.mtx.Unlock()

	// schedule every simulated participant's click; delivery happens
	// through the same Submit path as human clicks
	queue := newDecisionQueue()
	for _, p := range roster {
		if p.Kind != KindSimulated {
			continue
		}
		d := decide(p, seq, entity, s.Config.RoundTime)
		queue.push(now.Add(d.Delay), d)
	}

	s.Config.Broadcaster.Broadcast(s.ID, RoundStarted{
		RoundSeq: seq,
		Prompt:   r.prompt,
		Repeat:   repeat,
		Deadline: r.deadline,
	})

	return r, queue
}

// await suspends until the round deadline, draining due simulated decisions
// along the way. Returns early on cancellation or slot exhaustion.
func (s *Session) await(ctx context.Context, r *round, queue *decisionQueue) error {
	for {
		now := s.clk.Now()
		next := r.deadline
		if d, ok := queue.peek(); ok && d.fireAt.Before(next) {
			next = d.fireAt
		}

		select {
		case <-ctx.Done():
			return ErrContextClosed
		case <-s.cancelCh:
			return ErrContextClosed
		case <-s.slots.Exhausted():
			return nil
		case now = <-s.clk.After(next.Sub(now)):
			for {
				d, ok := queue.peek()
				if !ok || d.fireAt.After(now) {
					break
				}
				queue.pop()
				s.Submit(d.decision.ParticipantID, d.decision.RoundSeq, d.decision.Position)
			}
			if !now.Before(r.deadline) {
				return nil
			}
		}
	}
}

// closeRound is a one-way transition; later submissions are rejected, never
// queued.
func (s *Session) closeRound(r *round) {
	r.mtx.Lock()
	r.open = false
	r.mtx.Unlock()
}

// Submit validates one click from any participant, human or simulated.
// Rejection priority: stale round, closed round, invalid position, already
// unlocked, duplicate decision, wrong entity.
func (s *Session) Submit(participantID string, roundSeq, pos int) SubmissionResult {
	s.mtx.RLock()
	state := s.state
	r := s.curr
	p := s.byID[participantID]
	s.mtx.RUnlock()

	if p == nil {
		return SubmissionResult{Reason: ReasonUnknownParticipant}
	}
	if state != StateActive || r == nil {
		return SubmissionResult{Reason: ReasonRoundClosed, NewScore: p.Score()}
	}

	if r.seq != roundSeq {
		return SubmissionResult{Reason: ReasonStaleRound, NewScore: p.Score()}
	}

	if pos < 0 || pos >= grid.CellCount {
		return SubmissionResult{Reason: ReasonInvalidPosition, NewScore: p.Score()}
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if !r.open {
		return SubmissionResult{Reason: ReasonRoundClosed, NewScore: p.Score()}
	}

	points := s.Config.BasePoints + s.speedBonus(r)
	res := p.submit(roundSeq, pos, r.entity.Code, points)

	if res.Accepted {
		r.arrivals = append(r.arrivals, p)
	}

	// only consumed decisions reach observers; local rejections stay
	// between the session and the submitter
	if res.Accepted || res.Reason == ReasonIncorrect {
		ev := ParticipantAnswered{
			ParticipantID: p.ID,
			RoundSeq:      roundSeq,
			Position:      pos,
			Correct:       res.Accepted,
			NewScore:      res.NewScore,
		}
		s.Config.Broadcaster.Broadcast(s.ID, ev)
		s.record(ev)
	}

	return res
}

func (s *Session) speedBonus(r *round) int {
	if s.Config.SpeedBonusMax <= 0 || s.Config.RoundTime <= 0 {
		return 0
	}

	remaining := r.deadline.Sub(s.clk.Now())
	if remaining <= 0 {
		return 0
	}
	if remaining > s.Config.RoundTime {
		remaining = s.Config.RoundTime
	}

	return int(int64(s.Config.SpeedBonusMax) * int64(remaining) / int64(s.Config.RoundTime))
}

// resolve walks accepted correct submissions in arrival order: line
// detection first, then one slot claim per newly winning participant. A
// lost claim still records the line.
func (s *Session) resolve(logger *zap.SugaredLogger, r *round) error {
	r.mtx.Lock()
	arrivals := make([]*Participant, len(r.arrivals))
	copy(arrivals, r.arrivals)
	r.mtx.Unlock()

	for _, p := range arrivals {
		lines := p.newLines()
		if len(lines) == 0 {
			continue
		}

		p.recordLines(lines)
		for _, l := range lines {
			ev := LineCompleted{ParticipantID: p.ID, RoundSeq: r.seq, Line: l}
			s.Config.Broadcaster.Broadcast(s.ID, ev)
			s.record(ev)
		}

		if p.IsWinner() {
			continue
		}

		granted, remaining := s.slots.Claim()
		if remaining < 0 {
			return fmt.Errorf("slot pool went negative: %d", remaining)
		}
		if !granted {
			logger.Infof("participant %s completed a line after slots ran out, session %s", p.ID, s.ID)
			continue
		}

		p.markWinner()
		s.mtx.Lock()
		s.winners++
		s.mtx.Unlock()

		ev := SlotClaimed{ParticipantID: p.ID, RoundSeq: r.seq, RemainingSlots: remaining}
		s.Config.Broadcaster.Broadcast(s.ID, ev)
		s.record(ev)
	}

	s.mtx.Lock()
	s.roundLog = append(s.roundLog, RoundInfo{
		Seq:        r.seq,
		EntityCode: r.entity.Code,
		Repeat:     r.repeat,
		Answered:   len(arrivals),
		Deadline:   r.deadline,
	})
	s.mtx.Unlock()

	return nil
}

func (s *Session) complete(reason CompletionReason) {
	s.mtx.Lock()
	if s.state == StateCompleted {
		s.mtx.Unlock()
		return
	}
	s.state = StateCompleted
	s.reason = reason
	s.mtx.Unlock()

	ev := SessionCompleted{Reason: reason, FinalScores: s.Scores()}
	s.Config.Broadcaster.Broadcast(s.ID, ev)
	s.record(ev)

	if s.Config.DoneFn != nil {
		if err := s.Config.DoneFn(s); err != nil {
			s.log().Errorf("done function: %v", err)
		}
	}

	s.log().Infof("session %s completed, reason %s", s.ID, reason)
	close(s.doneCh)
}

func (s *Session) record(ev Event) {
	if err := s.Config.Recorder.Record(s.ID, ev); err != nil {
		s.log().Errorf("record %s: %v", ev.Kind(), err)
	}
}

func (s *Session) log() *zap.SugaredLogger {
	if s.logger != nil {
		return s.logger
	}
	return logging.DefaultLogger().Named("match.session")
}

// Scores returns the standings sorted by points.
func (s *Session) Scores() []Score {
	s.mtx.RLock()
	roster := make([]*Participant, len(s.participants))
	copy(roster, s.participants)
	s.mtx.RUnlock()

	scores := make([]Score, 0, len(roster))
	for _, p := range roster {
		correct, incorrect := p.Stats()
		scores = append(scores, Score{
			ParticipantID: p.ID,
			Name:          p.Name,
			Kind:          p.Kind.String(),
			Points:        p.Score(),
			Lines:         p.CompletedLines().Count(),
			Correct:       correct,
			Incorrect:     incorrect,
			Winner:        p.IsWinner(),
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Points > scores[j].Points
	})

	return scores
}

// Resync returns the current state for a reconnecting participant. Missed
// rounds are not replayed.
func (s *Session) Resync(participantID string) (Snapshot, error) {
	s.mtx.RLock()
	p := s.byID[participantID]
	r := s.curr
	state := s.state
	s.mtx.RUnlock()

	if p == nil {
		return Snapshot{}, ErrUnknownParticipant
	}

	snap := Snapshot{
		SessionID: s.ID,
		Room:      s.Room,
		State:     state,
		Unlocked:  p.Unlocked(),
		Lines:     p.CompletedLines(),
		Score:     p.Score(),
		Scores:    s.Scores(),
	}
	if r != nil {
		snap.RoundSeq = r.seq
		snap.Prompt = r.prompt
		snap.Deadline = r.deadline
	}

	return snap, nil
}

func (s *Session) State() uint8 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.state
}

func (s *Session) Reason() CompletionReason {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.reason
}

func (s *Session) Done() <-chan struct{} {
	return s.doneCh
}

func (s *Session) CurrentRoundSeq() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if s.curr == nil {
		return 0
	}
	return s.curr.seq
}

func (s *Session) Rounds() []RoundInfo {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out := make([]RoundInfo, len(s.roundLog))
	copy(out, s.roundLog)
	return out
}

func (s *Session) Participants() []*Participant {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out := make([]*Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

func (s *Session) ParticipantsLen() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.participants)
}

func (s *Session) Winners() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.winners
}

func (s *Session) Slots() *SlotPool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.slots
}

func (s *Session) Participant(id string) (*Participant, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}
