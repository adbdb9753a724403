package bingo

import (
	"time"

	"github.com/discovered-games/careerbingo/internal/database"
)

type Config struct {
	// Logging verbosity
	Debug bool `envconfig:"BINGO_DEBUG" default:"false"`

	// Number of items in the event-log read cache
	CacheSize int `envconfig:"BINGO_CACHE_SIZE" default:"1024"`

	// Port on which the health check is launched
	Port string `envconfig:"BINGO_PORT" default:"1234"`

	// profile port
	ProfPort string `envconfig:"BINGO_PROF_PORT" default:"8888"`

	// Optional JSON file replacing the built-in career catalog
	CatalogPath string `envconfig:"BINGO_CATALOG_PATH"`

	// Rounds per session
	RoundsNum int `envconfig:"BINGO_ROUNDS_NUM" default:"20"`

	// How long a round accepts answers
	RoundTime time.Duration `envconfig:"BINGO_ROUND_TIME" default:"30s"`

	// Pause between round resolution and the next round
	InterRoundPause time.Duration `envconfig:"BINGO_INTER_ROUND_PAUSE" default:"5s"`

	// Roster capacity per session
	MaxParticipants int `envconfig:"BINGO_MAX_PARTICIPANTS" default:"24"`

	// Latest round a participant may still join an active session
	JoinCutoffRounds int `envconfig:"BINGO_JOIN_CUTOFF_ROUNDS" default:"1"`

	// Points for a correct click before the speed bonus
	BasePoints int `envconfig:"BINGO_BASE_POINTS" default:"100"`

	// Extra points for answering the instant a round opens, scaling down
	// to zero at the deadline
	SpeedBonusMax int `envconfig:"BINGO_SPEED_BONUS_MAX" default:"50"`

	DB database.Config
}
