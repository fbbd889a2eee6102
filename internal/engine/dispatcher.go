package engine

import (
	"context"
	"sync"

	"github.com/crossval/quorum/internal/domain"
	"go.uber.org/zap"
)

const defaultConcurrencyLimit = 3

// Dispatcher fans a request out to the selected providers in bounded batches
// and applies fallback chains to failures.
type Dispatcher struct {
	gateway     *Gateway
	registry    *Registry
	concurrency int
	logger      *zap.Logger
}

func NewDispatcher(gateway *Gateway, registry *Registry, concurrency int, logger *zap.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = defaultConcurrencyLimit
	}
	return &Dispatcher{
		gateway:     gateway,
		registry:    registry,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Dispatch queries the selected providers in batches of the concurrency limit.
// Every sub-task in a batch finishes before the next batch starts; there is no
// first-response-wins shortcut because agreement analysis needs every answer.
// After all batches, failed providers get their fallback chain tried
// sequentially, skipping providers already queried for this request. The full
// set is returned, error responses included; the caller decides what to keep.
func (d *Dispatcher) Dispatch(ctx context.Context, req *domain.ValidationRequest, selected []domain.ProviderDescriptor) []domain.ProviderResponse {
	responses := make([]domain.ProviderResponse, len(selected))
	queried := make(map[string]bool, len(selected))
	for _, desc := range selected {
		queried[desc.ID] = true
	}

	for start := 0; start < len(selected); start += d.concurrency {
		end := start + d.concurrency
		if end > len(selected) {
			end = len(selected)
		}
		batch := selected[start:end]

		var wg sync.WaitGroup
		for i, desc := range batch {
			wg.Add(1)
			go func(slot int, desc domain.ProviderDescriptor) {
				defer wg.Done()
				responses[slot] = *d.gateway.Query(ctx, req, desc)
			}(start+i, desc)
		}
		wg.Wait()
	}

	results := responses
	if req.FallbackEnabled {
		for _, resp := range responses {
			if !resp.Failed() {
				continue
			}
			if fb := d.tryFallbacks(ctx, req, resp.ProviderID, queried); fb != nil {
				results = append(results, *fb)
			}
		}
	}

	return results
}

// tryFallbacks walks the failed provider's precomputed alternates in order,
// sequentially, until one succeeds or the chain is exhausted. Alternates
// already queried for this request are skipped; each attempt marks the
// alternate as queried so chains never revisit a provider.
func (d *Dispatcher) tryFallbacks(ctx context.Context, req *domain.ValidationRequest, failedID string, queried map[string]bool) *domain.ProviderResponse {
	for _, altID := range d.registry.Fallbacks(failedID) {
		if queried[altID] {
			continue
		}
		queried[altID] = true

		alt, ok := d.registry.Get(altID)
		if !ok {
			continue
		}

		d.logger.Info("trying fallback provider",
			zap.String("request_id", req.ID.String()),
			zap.String("failed_provider", failedID),
			zap.String("fallback_provider", altID))

		resp := d.gateway.Query(ctx, req, alt)
		if !resp.Failed() {
			return resp
		}
	}
	return nil
}
