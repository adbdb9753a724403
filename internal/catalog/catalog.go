package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

var ErrEmptyCatalog = fmt.Errorf("catalog contains no entities")

// Entity is one career code with its display metadata. The prompt is the
// opaque clue broadcast at round start instead of the code itself.
type Entity struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

type Catalog struct {
	entities []Entity
	byCode   map[string]int
}

func New(entities []Entity) (*Catalog, error) {
	if len(entities) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{byCode: make(map[string]int, len(entities))}
	for _, e := range entities {
		if _, ok := c.byCode[e.Code]; ok {
			continue
		}
		c.byCode[e.Code] = len(c.entities)
		c.entities = append(c.entities, e)
	}

	return c, nil
}

func NewFromFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var entities []Entity
	if err := json.Unmarshal(raw, &entities); err != nil {
		return nil, fmt.Errorf("json unmarshal catalog: %w", err)
	}

	return New(entities)
}

func (c *Catalog) Len() int {
	return len(c.entities)
}

func (c *Catalog) Entities() []Entity {
	out := make([]Entity, len(c.entities))
	copy(out, c.entities)
	return out
}

func (c *Catalog) ByCode(code string) (Entity, bool) {
	idx, ok := c.byCode[code]
	if !ok {
		return Entity{}, false
	}
	return c.entities[idx], true
}

func (c *Catalog) At(idx int) Entity {
	return c.entities[idx]
}
