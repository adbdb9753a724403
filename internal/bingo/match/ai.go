package match

import (
	"time"

	"github.com/discovered-games/careerbingo/internal/bingo/grid"
	"github.com/discovered-games/careerbingo/internal/catalog"
	"github.com/valyala/fastrand"
)

// Profile drives a simulated participant: how often it finds the right cell
// and how long it pretends to think.
type Profile struct {
	// Probability of targeting the correct cell, 0..1
	Accuracy float64 `json:"accuracy"`
	// Midpoint of the response time
	BaseDelay time.Duration `json:"baseDelay"`
	// Uniform jitter applied on both sides of BaseDelay
	DelayJitter time.Duration `json:"delayJitter"`
}

// Difficulty tiers from the shipped game.
var (
	ProfileEasy   = Profile{Accuracy: 0.60, BaseDelay: 12 * time.Second, DelayJitter: 6 * time.Second}
	ProfileMedium = Profile{Accuracy: 0.80, BaseDelay: 8 * time.Second, DelayJitter: 4 * time.Second}
	ProfileHard   = Profile{Accuracy: 0.95, BaseDelay: 5 * time.Second, DelayJitter: 3 * time.Second}
)

func ProfileForTier(tier string) Profile {
	switch tier {
	case "easy":
		return ProfileEasy
	case "hard":
		return ProfileHard
	default:
		return ProfileMedium
	}
}

// Decision is a simulated click scheduled for later delivery through the
// same submission path as a human click.
type Decision struct {
	ParticipantID string
	RoundSeq      int
	Position      int
	Correct       bool
	Delay         time.Duration
}

const accuracyScale = 10000

// decide rolls the participant's profile against the round entity. The
// delay is clamped to the round's remaining open time. The engine never
// touches participant state; delivery goes through Session.Submit.
func decide(p *Participant, roundSeq int, correct catalog.Entity, remaining time.Duration) Decision {
	d := Decision{ParticipantID: p.ID, RoundSeq: roundSeq}

	correctPos, onGrid := p.Grid.Find(correct.Code)
	hit := onGrid && fastrand.Uint32n(accuracyScale) < uint32(p.Profile.Accuracy*accuracyScale)

	if hit {
		d.Position = correctPos
		d.Correct = true
	} else {
		d.Position = randomWrongPosition(p.Grid, correct.Code)
	}

	d.Delay = rollDelay(p.Profile, remaining)
	return d
}

func rollDelay(profile Profile, remaining time.Duration) time.Duration {
	delay := profile.BaseDelay
	if profile.DelayJitter > 0 {
		span := 2 * profile.DelayJitter
		delay += time.Duration(fastrand.Uint32n(uint32(span/time.Millisecond)))*time.Millisecond - profile.DelayJitter
	}

	if delay < time.Second {
		delay = time.Second
	}
	if delay > remaining {
		delay = remaining
	}
	if delay < 0 {
		delay = 0
	}

	return delay
}

func randomWrongPosition(g grid.Grid, correctCode string) int {
	for {
		pos := int(fastrand.Uint32n(grid.CellCount))
		if g.Entities[pos].Code != correctCode {
			return pos
		}
	}
}
