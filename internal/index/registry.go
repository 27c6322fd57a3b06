package index

import (
	"sync"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// Registry maps tenants to their active index snapshot. Reload swaps
// the snapshot reference; the contents are never mutated in place, so
// readers that already hold a snapshot keep a consistent view.
type Registry struct {
	mu        sync.RWMutex
	dim       int
	snapshots map[domain.TenantID]*Snapshot
}

// NewRegistry creates a registry for vectors of the given dimension.
func NewRegistry(dim int) *Registry {
	return &Registry{
		dim:       dim,
		snapshots: make(map[domain.TenantID]*Snapshot),
	}
}

// Dimensions returns the configured vector dimension.
func (r *Registry) Dimensions() int { return r.dim }

// Get returns the tenant's active snapshot. Tenants without one get an
// empty snapshot, so searching before the first ingestion returns no
// results rather than an error.
func (r *Registry) Get(tenant domain.TenantID) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.snapshots[tenant]; ok {
		return s
	}
	return Empty(r.dim)
}

// Swap atomically replaces the tenant's active snapshot and returns
// the previous one (nil if none).
func (r *Registry) Swap(tenant domain.TenantID, s *Snapshot) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.snapshots[tenant]
	r.snapshots[tenant] = s
	return prev
}

// Tenants returns the tenants that currently hold a snapshot.
func (r *Registry) Tenants() []domain.TenantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.TenantID, 0, len(r.snapshots))
	for t := range r.snapshots {
		out = append(out, t)
	}
	return out
}
