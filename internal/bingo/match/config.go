package match

import (
	"time"

	"github.com/discovered-games/careerbingo/internal/clock"
	"github.com/discovered-games/careerbingo/internal/content"
)

type Config struct {
	SessionID string `json:"sessionId"`
	Room      string `json:"room"`

	RoundsNum        int           `json:"roundsNum"`
	RoundTime        time.Duration `json:"roundTime"`
	InterRoundPause  time.Duration `json:"interRoundPause"`
	BasePoints       int           `json:"basePoints"`
	SpeedBonusMax    int           `json:"speedBonusMax"`
	MaxParticipants  int           `json:"maxParticipants"`
	JoinCutoffRounds int           `json:"joinCutoffRounds"`

	Provider    content.Provider     `json:"-"`
	Broadcaster Broadcaster          `json:"-"`
	Recorder    Recorder             `json:"-"`
	Clock       clock.Clock          `json:"-"`
	DoneFn      func(*Session) error `json:"-"`
}

func (c Config) withDefaults() Config {
	if c.RoundsNum <= 0 {
		c.RoundsNum = 20
	}
	if c.RoundTime <= 0 {
		c.RoundTime = 30 * time.Second
	}
	if c.InterRoundPause < 0 {
		c.InterRoundPause = 0
	}
	if c.BasePoints <= 0 {
		c.BasePoints = 100
	}
	if c.SpeedBonusMax < 0 {
		c.SpeedBonusMax = 0
	}
	if c.MaxParticipants <= 0 {
		c.MaxParticipants = 24
	}
	if c.JoinCutoffRounds <= 0 {
		c.JoinCutoffRounds = 1
	}
	if c.Broadcaster == nil {
		c.Broadcaster = NopBroadcaster{}
	}
	if c.Recorder == nil {
		c.Recorder = NopRecorder{}
	}
	if c.Clock == nil {
		c.Clock = clock.NewReal()
	}
	return c
}
