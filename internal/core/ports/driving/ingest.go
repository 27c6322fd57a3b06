package driving

import (
	"context"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// IngestService coordinates document ingestion and knowledge base
// reloads. Reloads are atomic from the reader's perspective: in-flight
// retrievals complete against the pre-reload index snapshot.
type IngestService interface {
	// IngestDocument ingests one uploaded document for a tenant and
	// swaps the tenant's index to include it.
	IngestDocument(ctx context.Context, raw *domain.RawDocument) (*domain.ReloadReport, error)

	// Reload re-runs ingestion over the tenant's knowledge directory
	// and atomically swaps the tenant's active index. Per-document
	// failures are reported, not fatal to the batch.
	Reload(ctx context.Context, tenant domain.TenantID) (*domain.ReloadReport, error)

	// Warmup loads persisted indexes for all configured tenants at
	// startup. A corrupt index leaves that tenant empty; other tenants
	// are unaffected.
	Warmup(ctx context.Context) error
}
