package zakat

import (
	"fmt"
	"strings"
	"sync"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// MethodologyCatalog resolves methodology ids to immutable rule sets.
// Resolved entries are cached for the life of the process.
type MethodologyCatalog struct {
	resolved sync.Map // zakat.MethodologyID -> zakat.Methodology
}

// NewMethodologyCatalog creates an empty catalog cache
func NewMethodologyCatalog() *MethodologyCatalog {
	return &MethodologyCatalog{}
}

// Resolve returns the methodology for id. Ids are case-insensitive.
func (c *MethodologyCatalog) Resolve(id string) (zakat.Methodology, error) {
	key := zakat.MethodologyID(strings.ToLower(strings.TrimSpace(id)))
	if cached, ok := c.resolved.Load(key); ok {
		return cached.(zakat.Methodology).Clone(), nil
	}

	m, ok := zakat.LookupMethodology(key)
	if !ok {
		return zakat.Methodology{}, fmt.Errorf("%w: %q", zakat.ErrUnknownMethodology, id)
	}
	actual, _ := c.resolved.LoadOrStore(key, m)
	return actual.(zakat.Methodology).Clone(), nil
}

// List returns every methodology in catalog order
func (c *MethodologyCatalog) List() []zakat.Methodology {
	return zakat.Methodologies()
}
