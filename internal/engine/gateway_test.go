package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crossval/quorum/internal/domain"
	"github.com/crossval/quorum/internal/provider"
	"github.com/crossval/quorum/internal/store"
	"github.com/google/uuid"
)

func TestGateway_CachesPerRequestAndProvider(t *testing.T) {
	mock := provider.NewMockInvoker()
	g := NewGateway(mock, store.NewMemoryResponseCache(), testLogger())
	desc := testDescriptors()[0]

	req := &domain.ValidationRequest{ID: uuid.New(), Hypothesis: "the sky is blue"}

	first := g.Query(context.Background(), req, desc)
	second := g.Query(context.Background(), req, desc)

	if mock.CallCount(desc.ID) != 1 {
		t.Fatalf("expected exactly one invocation, got %d", mock.CallCount(desc.ID))
	}
	if first.Verdict != second.Verdict || first.Confidence != second.Confidence ||
		first.Latency != second.Latency || first.Cost != second.Cost {
		t.Fatal("expected cached response to be identical to the first")
	}

	// A different request with the same provider misses the cache.
	other := &domain.ValidationRequest{ID: uuid.New(), Hypothesis: "the sky is blue"}
	_ = g.Query(context.Background(), other, desc)
	if mock.CallCount(desc.ID) != 2 {
		t.Fatalf("expected a fresh invocation per request ID, got %d calls", mock.CallCount(desc.ID))
	}
}

func TestGateway_ErrorBecomesResponse(t *testing.T) {
	mock := provider.NewMockInvoker()
	g := NewGateway(mock, store.NewMemoryResponseCache(), testLogger())
	desc := testDescriptors()[0]

	mock.ScriptError(desc.ID, errors.New("provider down"))

	req := &domain.ValidationRequest{ID: uuid.New(), Hypothesis: "h"}
	resp := g.Query(context.Background(), req, desc)

	if !resp.Failed() {
		t.Fatal("expected an error-carrying response")
	}
	if resp.Verdict || resp.Confidence != 0 {
		t.Fatalf("error responses must carry verdict=false confidence=0, got %v/%f",
			resp.Verdict, resp.Confidence)
	}
	if resp.ProviderID != desc.ID || resp.RequestID != req.ID {
		t.Fatal("error response must still identify the request and provider")
	}
}

func TestGateway_ErrorNotCached(t *testing.T) {
	mock := provider.NewMockInvoker()
	g := NewGateway(mock, store.NewMemoryResponseCache(), testLogger())
	desc := testDescriptors()[1]

	mock.ScriptError(desc.ID, errors.New("transient"))
	req := &domain.ValidationRequest{ID: uuid.New(), Hypothesis: "h"}
	if resp := g.Query(context.Background(), req, desc); !resp.Failed() {
		t.Fatal("expected failure on first query")
	}

	// After the provider recovers, the same request gets a real answer.
	mock.Reset()
	resp := g.Query(context.Background(), req, desc)
	if resp.Failed() {
		t.Fatalf("expected success after recovery, got error %q", resp.Err)
	}
}

func TestGateway_CostFromTokens(t *testing.T) {
	mock := provider.NewMockInvoker()
	mock.ScriptVerdict("alpha", true, 0.9) // scripted verdicts use 200 tokens
	g := NewGateway(mock, store.NewMemoryResponseCache(), testLogger())
	desc := testDescriptors()[0] // 0.01 per kilo-token

	req := &domain.ValidationRequest{ID: uuid.New(), Hypothesis: "h"}
	resp := g.Query(context.Background(), req, desc)

	want := 200.0 / 1000.0 * 0.01
	if resp.Cost != want {
		t.Fatalf("expected cost %f, got %f", want, resp.Cost)
	}
}

func TestGateway_RateLimitThrottles(t *testing.T) {
	mock := provider.NewMockInvoker()
	g := NewGateway(mock, store.NewMemoryResponseCache(), testLogger())

	desc := testDescriptors()[0]
	desc.RateRPS = 1
	desc.RateBurst = 1

	// The burst admits exactly one call. The next token is a full second out,
	// so a short deadline fails at the limiter, before the provider.
	first := g.Query(context.Background(), &domain.ValidationRequest{ID: uuid.New(), Hypothesis: "h"}, desc)
	if first.Failed() {
		t.Fatalf("first query must pass within the burst, got error %q", first.Err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	second := g.Query(ctx, &domain.ValidationRequest{ID: uuid.New(), Hypothesis: "h"}, desc)
	if !second.Failed() {
		t.Fatal("expected the token bucket to reject the second query")
	}
	if mock.CallCount(desc.ID) != 1 {
		t.Fatalf("throttled queries must not reach the provider, got %d calls", mock.CallCount(desc.ID))
	}
}

func TestGateway_NoRateLimitWhenUnset(t *testing.T) {
	mock := provider.NewMockInvoker()
	g := NewGateway(mock, store.NewMemoryResponseCache(), testLogger())
	desc := testDescriptors()[0] // no RateRPS configured

	for i := 0; i < 2; i++ {
		req := &domain.ValidationRequest{ID: uuid.New(), Hypothesis: "h"}
		if resp := g.Query(context.Background(), req, desc); resp.Failed() {
			t.Fatalf("query %d: expected success without rate limits, got %q", i, resp.Err)
		}
	}
	if mock.CallCount(desc.ID) != 2 {
		t.Fatalf("expected both queries to reach the provider, got %d calls", mock.CallCount(desc.ID))
	}
}

func TestGateway_ContextCancellation(t *testing.T) {
	mock := provider.NewMockInvoker()
	g := NewGateway(mock, store.NewMemoryResponseCache(), testLogger())
	desc := testDescriptors()[0]

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := &domain.ValidationRequest{ID: uuid.New(), Hypothesis: "h"}
	resp := g.Query(ctx, req, desc)
	if !resp.Failed() {
		t.Fatal("expected cancelled context to produce an error response")
	}
}
