package grid

import (
	"fmt"

	"github.com/discovered-games/careerbingo/internal/catalog"
	"github.com/valyala/fastrand"
)

const (
	// Side is the board dimension.
	Side = 5
	// CellCount is the number of positions on a board.
	CellCount = Side * Side
	// Center is the pre-unlocked middle position (row 2, col 2).
	Center = 12
)

var (
	ErrInsufficientCatalog = fmt.Errorf("catalog too small to fill a grid")
	ErrDuplicateEntity     = fmt.Errorf("grid holds a duplicate entity")
)

// Cells is a bitset over the 25 board positions.
type Cells uint32

func (c Cells) Has(pos int) bool {
	return c&(1<<uint(pos)) != 0
}

func (c Cells) With(pos int) Cells {
	return c | (1 << uint(pos))
}

func (c Cells) Count() int {
	var n int
	for pos := 0; pos < CellCount; pos++ {
		if c.Has(pos) {
			n++
		}
	}
	return n
}

// Grid is one participant's private 5x5 arrangement of catalog entities.
// Immutable after generation; only the owning participant's unlocked bitset
// changes during play.
type Grid struct {
	Entities [CellCount]catalog.Entity
}

// Generate draws 24 distinct entities from pool excluding center, permutes
// them over the non-center positions and pins center at position 12.
func Generate(pool []catalog.Entity, center catalog.Entity) (Grid, error) {
	candidates := make([]catalog.Entity, 0, len(pool))
	seen := map[string]struct{}{center.Code: {}}
	for _, e := range pool {
		if _, ok := seen[e.Code]; ok {
			continue
		}
		seen[e.Code] = struct{}{}
		candidates = append(candidates, e)
	}

	if len(candidates) < CellCount-1 {
		return Grid{}, ErrInsufficientCatalog
	}

	// Fisher-Yates over the candidate prefix; the first 24 survivors fill
	// the board.
	for i := len(candidates) - 1; i > 0; i-- {
		j := int(fastrand.Uint32n(uint32(i + 1)))
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	var g Grid
	g.Entities[Center] = center
	next := 0
	for pos := 0; pos < CellCount; pos++ {
		if pos == Center {
			continue
		}
		g.Entities[pos] = candidates[next]
		next++
	}

	return g, nil
}

// Find returns the position holding the entity code.
func (g Grid) Find(code string) (int, bool) {
	for pos, e := range g.Entities {
		if e.Code == code {
			return pos, true
		}
	}
	return 0, false
}

// Validate checks the collision-free invariant. A failure here is fatal for
// the owning session.
func (g Grid) Validate() error {
	seen := map[string]struct{}{}
	for _, e := range g.Entities {
		if e.Code == "" {
			return fmt.Errorf("grid cell holds no entity")
		}
		if _, ok := seen[e.Code]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateEntity, e.Code)
		}
		seen[e.Code] = struct{}{}
	}
	return nil
}
