package services

import (
	"sync"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// docInfo is the attribution record for one document.
type docInfo struct {
	name  string
	title string
}

// Catalog maps document IDs to attribution data per tenant. Like the
// index registry, a reload replaces a tenant's map wholesale instead of
// mutating it, so concurrent readers see a consistent set.
type Catalog struct {
	mu      sync.RWMutex
	tenants map[domain.TenantID]map[string]docInfo
}

func NewCatalog() *Catalog {
	return &Catalog{tenants: make(map[domain.TenantID]map[string]docInfo)}
}

// replace swaps a tenant's attribution map from a document set.
func (c *Catalog) replace(tenant domain.TenantID, docs []domain.Document) {
	m := make(map[string]docInfo, len(docs))
	for _, d := range docs {
		m[d.ID] = docInfo{name: d.Name, title: d.Title}
	}
	c.mu.Lock()
	c.tenants[tenant] = m
	c.mu.Unlock()
}

// lookup returns the attribution record for a document, if known.
func (c *Catalog) lookup(tenant domain.TenantID, docID string) (docInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.tenants[tenant][docID]
	return info, ok
}
