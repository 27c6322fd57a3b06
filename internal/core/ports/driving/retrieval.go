package driving

import (
	"context"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// RetrievalService provides grounded-context retrieval to external actors.
type RetrievalService interface {
	// Retrieve embeds the query, searches the tenant's index, and
	// returns ranked chunks with source attribution. A best match below
	// the relevance floor yields an explicit no-context result.
	Retrieve(ctx context.Context, tenant domain.TenantID, query string, opts domain.RetrieveOptions) (*domain.RetrievalResult, error)
}

// Answer is one grounded response from the ask flow.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Grounded indicates whether retrieved context backed the answer.
	Grounded bool

	// Sources are the retrieved chunks the prompt was built from.
	Sources []domain.RetrievedChunk
}

// AskService runs the full retrieve-then-generate flow.
type AskService interface {
	// Ask answers a question using retrieved context and the LLM
	// collaborator. With no relevant context, generation proceeds
	// ungrounded and the answer is flagged accordingly.
	Ask(ctx context.Context, tenant domain.TenantID, question string, history []string) (*Answer, error)

	// AskStream is Ask with the completion delivered as fragments.
	AskStream(ctx context.Context, tenant domain.TenantID, question string, history []string, emit func(fragment string) error) (*Answer, error)
}
