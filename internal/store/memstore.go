package store

import (
	"context"
	"math"
	"sync"

	"github.com/crossval/quorum/internal/domain"
	"github.com/google/uuid"
)

type cacheKey struct {
	requestID  uuid.UUID
	providerID string
}

// MemoryResponseCache is the in-process response cache used when no database
// is configured, and by tests.
type MemoryResponseCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*domain.ProviderResponse
}

func NewMemoryResponseCache() *MemoryResponseCache {
	return &MemoryResponseCache{entries: make(map[cacheKey]*domain.ProviderResponse)}
}

func (c *MemoryResponseCache) Get(ctx context.Context, requestID uuid.UUID, providerID string) (*domain.ProviderResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	resp, ok := c.entries[cacheKey{requestID: requestID, providerID: providerID}]
	if !ok {
		return nil, ErrNotFound
	}
	return resp, nil
}

func (c *MemoryResponseCache) Put(ctx context.Context, resp *domain.ProviderResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{requestID: resp.RequestID, providerID: resp.ProviderID}] = resp
	return nil
}

// MemoryHistoryStore is the in-process append-only history. It grows
// unboundedly; eviction is the persistence collaborator's concern.
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	results []*domain.CrossValidationResult
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{}
}

func (s *MemoryHistoryStore) Append(ctx context.Context, result *domain.CrossValidationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *MemoryHistoryStore) List(ctx context.Context, limit int) ([]*domain.CrossValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.results)
	if limit <= 0 || limit > n {
		limit = n
	}
	// Newest first.
	out := make([]*domain.CrossValidationResult, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.results[i])
	}
	return out, nil
}

func (s *MemoryHistoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results), nil
}

func (s *MemoryHistoryStore) FindSimilar(ctx context.Context, embedding []float32, domainTag string, threshold float32) (*domain.CrossValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.CrossValidationResult
	var bestScore float32
	for _, result := range s.results {
		if result.Domain != domainTag || len(result.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(embedding, result.Embedding)
		if score >= threshold && score > bestScore {
			best = result
			bestScore = score
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
