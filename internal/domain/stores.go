package domain

import (
	"context"

	"github.com/google/uuid"
)

// ResponseCache stores provider responses keyed by (request, provider).
// Implementations return store.ErrNotFound on miss.
type ResponseCache interface {
	Get(ctx context.Context, requestID uuid.UUID, providerID string) (*ProviderResponse, error)
	Put(ctx context.Context, resp *ProviderResponse) error
}

// HistoryStore is the append-only long-term record of validation results.
// Eviction and retention policy belong to the store, not the engine.
type HistoryStore interface {
	Append(ctx context.Context, result *CrossValidationResult) error
	// List returns up to limit results, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*CrossValidationResult, error)
	Count(ctx context.Context) (int, error)
	// FindSimilar returns the best prior result whose hypothesis embedding has
	// cosine similarity >= threshold, scoped to the given domain tag.
	// Returns store.ErrNotFound when nothing qualifies.
	FindSimilar(ctx context.Context, embedding []float32, domainTag string, threshold float32) (*CrossValidationResult, error)
}

// Invoker is the replaceable provider-invocation boundary. Implementations own
// all network concerns; the engine only enforces timeouts through ctx.
type Invoker interface {
	Invoke(ctx context.Context, desc ProviderDescriptor, prompt string) (*RawVerdict, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
