package store

import (
	"context"
	"errors"
	"testing"

	"github.com/crossval/quorum/internal/domain"
	"github.com/google/uuid"
)

func TestMemoryResponseCache(t *testing.T) {
	cache := NewMemoryResponseCache()
	ctx := context.Background()

	requestID := uuid.New()
	if _, err := cache.Get(ctx, requestID, "alpha"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty cache, got %v", err)
	}

	resp := &domain.ProviderResponse{
		RequestID:  requestID,
		ProviderID: "alpha",
		Verdict:    true,
		Confidence: 0.9,
	}
	if err := cache.Put(ctx, resp); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := cache.Get(ctx, requestID, "alpha")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Confidence != 0.9 || !got.Verdict {
		t.Fatalf("unexpected cached response %+v", got)
	}

	// Same provider under a different request is a separate key.
	if _, err := cache.Get(ctx, uuid.New(), "alpha"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected miss for a different request, got %v", err)
	}
}

func TestMemoryHistoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryHistoryStore()
	ctx := context.Background()

	first := &domain.CrossValidationResult{RequestID: uuid.New(), Hypothesis: "first"}
	second := &domain.CrossValidationResult{RequestID: uuid.New(), Hypothesis: "second"}
	_ = s.Append(ctx, first)
	_ = s.Append(ctx, second)

	results, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Hypothesis != "second" || results[1].Hypothesis != "first" {
		t.Fatal("expected newest-first ordering")
	}

	limited, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].Hypothesis != "second" {
		t.Fatalf("expected only the newest entry, got %+v", limited)
	}

	if n, _ := s.Count(ctx); n != 2 {
		t.Fatalf("expected count 2, got %d", n)
	}
}

func TestMemoryHistoryStore_FindSimilar(t *testing.T) {
	s := NewMemoryHistoryStore()
	ctx := context.Background()

	target := &domain.CrossValidationResult{
		RequestID: uuid.New(),
		Domain:    "physics",
		Embedding: []float32{1, 0, 0},
	}
	offDomain := &domain.CrossValidationResult{
		RequestID: uuid.New(),
		Domain:    "biology",
		Embedding: []float32{1, 0, 0},
	}
	farAway := &domain.CrossValidationResult{
		RequestID: uuid.New(),
		Domain:    "physics",
		Embedding: []float32{0, 1, 0},
	}
	_ = s.Append(ctx, target)
	_ = s.Append(ctx, offDomain)
	_ = s.Append(ctx, farAway)

	got, err := s.FindSimilar(ctx, []float32{1, 0, 0}, "physics", 0.95)
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}
	if got.RequestID != target.RequestID {
		t.Fatalf("expected the in-domain near-identical entry, got %s", got.RequestID)
	}

	// Orthogonal embeddings score 0 and never clear the threshold.
	if _, err := s.FindSimilar(ctx, []float32{0, 0, 1}, "physics", 0.95); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for dissimilar embedding, got %v", err)
	}

	// Entries without an embedding are skipped.
	_ = s.Append(ctx, &domain.CrossValidationResult{RequestID: uuid.New(), Domain: "physics"})
	if _, err := s.FindSimilar(ctx, []float32{0, 0, 1}, "physics", 0.95); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
