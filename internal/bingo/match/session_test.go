package match

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/discovered-games/careerbingo/internal/bingo/grid"
	"github.com/discovered-games/careerbingo/internal/catalog"
	"github.com/discovered-games/careerbingo/internal/clock"
	"github.com/discovered-games/careerbingo/internal/content"
)

type scriptProvider struct {
	mtx      sync.Mutex
	entities []catalog.Entity
}

func (p *scriptProvider) NextEntity(string, map[string]struct{}) (catalog.Entity, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if len(p.entities) == 0 {
		return catalog.Entity{}, content.ErrExhausted
	}
	e := p.entities[0]
	p.entities = p.entities[1:]
	return e, nil
}

type recordingBroadcaster struct {
	mtx    sync.Mutex
	events []Event
}

func (b *recordingBroadcaster) Broadcast(_ string, ev Event) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.events = append(b.events, ev)
}

func (b *recordingBroadcaster) byKind(kind string) []Event {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	var out []Event
	for _, ev := range b.events {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

func newTestSession(entities []catalog.Entity, rounds int) (*Session, *clock.Fake, *recordingBroadcaster) {
	fake := clock.NewFake(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	broadcaster := &recordingBroadcaster{}
	session := NewSession(Config{
		SessionID:       "s-test",
		Room:            "classroom",
		RoundsNum:       rounds,
		RoundTime:       30 * time.Second,
		InterRoundPause: 0,
		BasePoints:      100,
		SpeedBonusMax:   0,
		Provider:        &scriptProvider{entities: entities},
		Broadcaster:     broadcaster,
		Clock:           fake,
	})
	return session, fake, broadcaster
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitDone(t *testing.T, session *Session) {
	t.Helper()
	select {
	case <-session.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("session did not complete")
	}
}

func entity(code string) catalog.Entity {
	return catalog.Entity{Code: code, Title: code, Prompt: "clue " + code}
}

// Round entity equals the participant's pre-unlocked center entity: the
// center itself never produces already_unlocked and no points get awarded
// twice.
func TestScenarioCenterEntityRound(t *testing.T) {
	t.Parallel()

	session, fake, broadcaster := newTestSession([]catalog.Entity{entity("teacher")}, 1)
	p := NewParticipant("p1", "Alice", KindHuman, testGrid("teacher"), Profile{})
	if err := session.AddParticipant(p); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	eventually(t, func() bool { return session.CurrentRoundSeq() == 1 }, "round 1 never opened")

	// clicking elsewhere: the entity only sits at the center, so this is
	// simply wrong
	if res := session.Submit("p1", 1, 0); res.Reason != ReasonIncorrect {
		t.Fatalf("expected incorrect, got %+v", res)
	}

	// the pre-unlocked center reports already_unlocked, not a new unlock
	if res := session.Submit("p1", 1, grid.Center); res.Reason != ReasonAlreadyUnlocked {
		t.Fatalf("expected already_unlocked, got %+v", res)
	}

	fake.Advance(30 * time.Second)
	waitDone(t, session)

	if session.Reason() != ReasonRoundsExhausted {
		t.Fatalf("expected rounds_exhausted, got %s", session.Reason())
	}
	if p.Score() != 0 {
		t.Fatalf("score awarded without a correct click: %d", p.Score())
	}
	if answered := broadcaster.byKind("participant_answered"); len(answered) != 1 {
		t.Fatalf("expected 1 answered event (the incorrect click), got %d", len(answered))
	}
}

// Four participants, two slots: the first two line completions in arrival
// order win slots, the third records the line without one, and the session
// ends on slot exhaustion.
func TestScenarioSlotExhaustion(t *testing.T) {
	t.Parallel()

	session, fake, broadcaster := newTestSession([]catalog.Entity{entity("career-04")}, 20)

	h1 := NewParticipant("h1", "Alice", KindHuman, testGrid("teacher"), Profile{})
	h2 := NewParticipant("h2", "Bob", KindHuman, testGrid("doctor"), Profile{})
	s1 := NewParticipant("s1", "bot-1", KindSimulated, testGrid("pilot"), Profile{
		Accuracy: 1.0, BaseDelay: 5 * time.Second,
	})
	s2 := NewParticipant("s2", "bot-2", KindSimulated, testGrid("nurse"), Profile{
		Accuracy: 0, BaseDelay: 10 * time.Second,
	})

	// h1, h2 and s1 are one cell short of row 0 (career-04 at position 4)
	for _, p := range []*Participant{h1, h2, s1} {
		p.unlocked = p.unlocked.With(0).With(1).With(2).With(3)
	}

	for _, p := range []*Participant{h1, h2, s1, s2} {
		if err := session.AddParticipant(p); err != nil {
			t.Fatalf("add participant: %v", err)
		}
	}

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.Slots().Total() != 2 {
		t.Fatalf("expected 2 slots for 4 participants, got %d", session.Slots().Total())
	}
	eventually(t, func() bool { return session.CurrentRoundSeq() == 1 }, "round 1 never opened")

	if res := session.Submit("h1", 1, 4); !res.Accepted {
		t.Fatalf("h1 submit: %+v", res)
	}
	if res := session.Submit("h2", 1, 4); !res.Accepted {
		t.Fatalf("h2 submit: %+v", res)
	}

	// run out the clock; the simulated clicks fire on the way
	fake.Advance(30 * time.Second)
	waitDone(t, session)

	if session.Reason() != ReasonSlotsExhausted {
		t.Fatalf("expected slots_exhausted, got %s", session.Reason())
	}

	lines := broadcaster.byKind("line_completed")
	if len(lines) != 3 {
		t.Fatalf("expected 3 completed lines, got %d", len(lines))
	}

	claims := broadcaster.byKind("slot_claimed")
	if len(claims) != 2 {
		t.Fatalf("expected 2 slot claims, got %d", len(claims))
	}
	first, second := claims[0].(SlotClaimed), claims[1].(SlotClaimed)
	if first.ParticipantID != "h1" || second.ParticipantID != "h2" {
		t.Fatalf("claims out of arrival order: %s then %s", first.ParticipantID, second.ParticipantID)
	}

	// the losing line is still recorded for scoring
	if !h1.IsWinner() || !h2.IsWinner() || s1.IsWinner() {
		t.Fatal("winner flags do not match slot grants")
	}
	if s1.CompletedLines().Count() != 1 {
		t.Fatalf("s1 line not recorded, lines=%d", s1.CompletedLines().Count())
	}
	if session.Winners() != 2 {
		t.Fatalf("expected 2 winners, got %d", session.Winners())
	}
}

// A round elapsing with zero correct submissions closes cleanly and the
// loop moves on.
func TestScenarioEmptyRound(t *testing.T) {
	t.Parallel()

	session, fake, _ := newTestSession([]catalog.Entity{entity("career-00"), entity("career-01")}, 2)
	p := NewParticipant("p1", "Alice", KindHuman, testGrid("teacher"), Profile{})
	if err := session.AddParticipant(p); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	eventually(t, func() bool { return session.CurrentRoundSeq() == 1 }, "round 1 never opened")
	fake.Advance(30 * time.Second)
	eventually(t, func() bool { return session.CurrentRoundSeq() == 2 }, "round 2 never opened")

	rounds := session.Rounds()
	if len(rounds) != 1 || rounds[0].Answered != 0 {
		t.Fatalf("unexpected round log: %+v", rounds)
	}
	if p.Unlocked().Count() != 1 {
		t.Fatalf("cells unlocked without submissions: %d", p.Unlocked().Count())
	}

	fake.Advance(30 * time.Second)
	waitDone(t, session)
	if session.Reason() != ReasonRoundsExhausted {
		t.Fatalf("expected rounds_exhausted, got %s", session.Reason())
	}
}

// The provider running dry mid-session ends it early with content_exhausted
// and prior state stays queryable.
func TestScenarioContentExhausted(t *testing.T) {
	t.Parallel()

	session, fake, broadcaster := newTestSession([]catalog.Entity{entity("career-00"), entity("career-01")}, 20)
	p := NewParticipant("p1", "Alice", KindHuman, testGrid("teacher"), Profile{})
	if err := session.AddParticipant(p); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	eventually(t, func() bool { return session.CurrentRoundSeq() == 1 }, "round 1 never opened")
	if res := session.Submit("p1", 1, 0); !res.Accepted {
		t.Fatalf("submit: %+v", res)
	}
	fake.Advance(30 * time.Second)
	eventually(t, func() bool { return session.CurrentRoundSeq() == 2 }, "round 2 never opened")
	fake.Advance(30 * time.Second)
	waitDone(t, session)

	if session.Reason() != ReasonContentExhausted {
		t.Fatalf("expected content_exhausted, got %s", session.Reason())
	}

	rounds := session.Rounds()
	if len(rounds) != 2 {
		t.Fatalf("expected 2 resolved rounds, got %d", len(rounds))
	}
	if rounds[0].Answered != 1 {
		t.Fatalf("round 1 lost its submission: %+v", rounds[0])
	}
	if p.Score() != 100 {
		t.Fatalf("prior score not intact: %d", p.Score())
	}

	completed := broadcaster.byKind("session_completed")
	if len(completed) != 1 {
		t.Fatalf("expected 1 session_completed event, got %d", len(completed))
	}
	if ev := completed[0].(SessionCompleted); ev.Reason != ReasonContentExhausted || len(ev.FinalScores) != 1 {
		t.Fatalf("unexpected completion event: %+v", ev)
	}
}

func TestSubmitStaleAndClosedRounds(t *testing.T) {
	t.Parallel()

	session, fake, _ := newTestSession([]catalog.Entity{entity("career-00")}, 1)
	p := NewParticipant("p1", "Alice", KindHuman, testGrid("teacher"), Profile{})
	if err := session.AddParticipant(p); err != nil {
		t.Fatalf("add participant: %v", err)
	}

	// before start there is no round to accept anything
	if res := session.Submit("p1", 1, 0); res.Reason != ReasonRoundClosed {
		t.Fatalf("expected round_closed before start, got %+v", res)
	}

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	eventually(t, func() bool { return session.CurrentRoundSeq() == 1 }, "round 1 never opened")

	if res := session.Submit("p1", 7, 0); res.Reason != ReasonStaleRound {
		t.Fatalf("expected stale_round, got %+v", res)
	}
	if res := session.Submit("p1", 1, 99); res.Reason != ReasonInvalidPosition {
		t.Fatalf("expected invalid_position, got %+v", res)
	}
	if res := session.Submit("ghost", 1, 0); res.Reason != ReasonUnknownParticipant {
		t.Fatalf("expected unknown_participant, got %+v", res)
	}

	fake.Advance(30 * time.Second)
	waitDone(t, session)

	// late submission after completion is rejected, never queued
	if res := session.Submit("p1", 1, 0); res.Reason != ReasonRoundClosed {
		t.Fatalf("expected round_closed after completion, got %+v", res)
	}
}

func TestAddParticipantCapacity(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	session := NewSession(Config{
		SessionID:       "s-cap",
		Room:            "classroom",
		MaxParticipants: 2,
		Provider:        &scriptProvider{},
		Clock:           fake,
	})

	for i, center := range []string{"teacher", "doctor"} {
		p := NewParticipant(fmt.Sprintf("p%d", i), "p", KindHuman, testGrid(center), Profile{})
		if err := session.AddParticipant(p); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	late := NewParticipant("late", "late", KindHuman, testGrid("pilot"), Profile{})
	if err := session.AddParticipant(late); err != ErrSessionFull {
		t.Fatalf("expected ErrSessionFull, got %v", err)
	}
	if session.ParticipantsLen() != 2 {
		t.Fatalf("roster holds %d participants, capacity 2", session.ParticipantsLen())
	}
}

func TestAddParticipantAfterCutoff(t *testing.T) {
	t.Parallel()

	session, fake, _ := newTestSession([]catalog.Entity{entity("career-00"), entity("career-01")}, 2)
	p := NewParticipant("p1", "Alice", KindHuman, testGrid("teacher"), Profile{})
	if err := session.AddParticipant(p); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// joining during the cutoff round is still allowed
	eventually(t, func() bool { return session.CurrentRoundSeq() == 1 }, "round 1 never opened")
	early := NewParticipant("p2", "Bob", KindHuman, testGrid("doctor"), Profile{})
	if err := session.AddParticipant(early); err != nil {
		t.Fatalf("join during round 1: %v", err)
	}

	fake.Advance(30 * time.Second)
	eventually(t, func() bool { return session.CurrentRoundSeq() == 2 }, "round 2 never opened")

	late := NewParticipant("p3", "Eve", KindHuman, testGrid("pilot"), Profile{})
	if err := session.AddParticipant(late); err != ErrSessionFull {
		t.Fatalf("expected ErrSessionFull past the cutoff, got %v", err)
	}

	fake.Advance(30 * time.Second)
	waitDone(t, session)
}

func TestCancelAbandonsSession(t *testing.T) {
	t.Parallel()

	session, _, _ := newTestSession([]catalog.Entity{entity("career-00")}, 20)
	p := NewParticipant("p1", "Alice", KindHuman, testGrid("teacher"), Profile{})
	if err := session.AddParticipant(p); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	eventually(t, func() bool { return session.CurrentRoundSeq() == 1 }, "round 1 never opened")

	session.Cancel()
	waitDone(t, session)

	if session.Reason() != ReasonAbandoned {
		t.Fatalf("expected abandoned, got %s", session.Reason())
	}
	if session.State() != StateCompleted {
		t.Fatalf("expected completed state, got %d", session.State())
	}
}

// A pending session has no loop to react to the cancel signal; Cancel must
// complete it directly so Done observers are released.
func TestCancelPendingSession(t *testing.T) {
	t.Parallel()

	session, _, broadcaster := newTestSession([]catalog.Entity{entity("career-00")}, 1)
	p := NewParticipant("p1", "Alice", KindHuman, testGrid("teacher"), Profile{})
	if err := session.AddParticipant(p); err != nil {
		t.Fatalf("add participant: %v", err)
	}

	session.Cancel()
	waitDone(t, session)

	if session.State() != StateCompleted || session.Reason() != ReasonAbandoned {
		t.Fatalf("expected completed/abandoned, got %d/%s", session.State(), session.Reason())
	}
	if completed := broadcaster.byKind("session_completed"); len(completed) != 1 {
		t.Fatalf("expected 1 session_completed event, got %d", len(completed))
	}
}

func TestResyncSnapshot(t *testing.T) {
	t.Parallel()

	session, fake, _ := newTestSession([]catalog.Entity{entity("career-00")}, 1)
	p := NewParticipant("p1", "Alice", KindHuman, testGrid("teacher"), Profile{})
	if err := session.AddParticipant(p); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	eventually(t, func() bool { return session.CurrentRoundSeq() == 1 }, "round 1 never opened")

	if res := session.Submit("p1", 1, 0); !res.Accepted {
		t.Fatalf("submit: %+v", res)
	}

	p.SetConnected(false)
	p.SetConnected(true)

	snap, err := session.Resync("p1")
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if snap.RoundSeq != 1 || snap.Prompt != "clue career-00" {
		t.Fatalf("unexpected snapshot round: %+v", snap)
	}
	if !snap.Unlocked.Has(0) || snap.Score != 100 {
		t.Fatalf("snapshot missing participant state: %+v", snap)
	}

	if _, err := session.Resync("ghost"); err != ErrUnknownParticipant {
		t.Fatalf("expected ErrUnknownParticipant, got %v", err)
	}

	fake.Advance(30 * time.Second)
	waitDone(t, session)
}

func TestStartGuards(t *testing.T) {
	t.Parallel()

	session, _, _ := newTestSession(nil, 1)
	if err := session.Start(context.Background()); err != ErrNoParticipants {
		t.Fatalf("expected ErrNoParticipants, got %v", err)
	}

	p := NewParticipant("p1", "Alice", KindHuman, testGrid("teacher"), Profile{})
	if err := session.AddParticipant(p); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := session.AddParticipant(p); err != ErrDuplicateJoin {
		t.Fatalf("expected ErrDuplicateJoin, got %v", err)
	}

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.Start(context.Background()); err != ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}

	waitDone(t, session) // provider empty: completes with content_exhausted
	if session.Reason() != ReasonContentExhausted {
		t.Fatalf("expected content_exhausted, got %s", session.Reason())
	}
}
