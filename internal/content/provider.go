package content

import (
	"fmt"

	"github.com/discovered-games/careerbingo/internal/catalog"
	"github.com/valyala/fastrand"
)

// ErrExhausted is returned when the provider cannot supply an entity outside
// the excluded set.
var ErrExhausted = fmt.Errorf("content provider exhausted")

// Provider supplies the next question entity for a session. Implementations
// must never return an entity present in excluding.
type Provider interface {
	NextEntity(sessionID string, excluding map[string]struct{}) (catalog.Entity, error)
}

func NewCatalogProvider(cat *catalog.Catalog) *CatalogProvider {
	return &CatalogProvider{cat: cat}
}

// CatalogProvider draws uniformly from a shared read-only catalog.
type CatalogProvider struct {
	cat *catalog.Catalog
}

var _ Provider = (*CatalogProvider)(nil)

func (p *CatalogProvider) NextEntity(sessionID string, excluding map[string]struct{}) (catalog.Entity, error) {
	var candidates []catalog.Entity
	for _, e := range p.cat.Entities() {
		if _, ok := excluding[e.Code]; ok {
			continue
		}
		candidates = append(candidates, e)
	}

	if len(candidates) == 0 {
		return catalog.Entity{}, ErrExhausted
	}

	return candidates[fastrand.Uint32n(uint32(len(candidates)))], nil
}
