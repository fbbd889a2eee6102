package engine

import (
	"math"
	"testing"
	"time"

	"github.com/crossval/quorum/internal/domain"
)

func weightSum(r *Registry) float64 {
	sum := 0.0
	for _, w := range r.WeightSnapshot() {
		sum += w
	}
	return sum
}

func TestRegistry_WeightsSumToOne(t *testing.T) {
	r := testRegistry()

	if got := weightSum(r); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected initial weights to sum to 1, got %f", got)
	}

	// Weights must stay normalized through outcome recording and rebalancing.
	r.RecordOutcome("alpha", true, 100*time.Millisecond, 0.001)
	r.RecordOutcome("beta", false, 500*time.Millisecond, 0)
	r.Rebalance([]string{"alpha", "beta"})

	if got := weightSum(r); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected rebalanced weights to sum to 1, got %f", got)
	}
}

func TestRegistry_FailuresReduceWeight(t *testing.T) {
	r := testRegistry()

	for i := 0; i < 5; i++ {
		r.RecordOutcome("alpha", true, 100*time.Millisecond, 0.001)
		r.RecordOutcome("beta", false, 500*time.Millisecond, 0)
		r.RecordOutcome("gamma", true, 100*time.Millisecond, 0.001)
	}
	r.Rebalance([]string{"alpha", "beta", "gamma"})

	if r.Weight("beta") >= r.Weight("alpha") {
		t.Fatalf("expected failing provider to weigh less than succeeding one, beta=%f alpha=%f",
			r.Weight("beta"), r.Weight("alpha"))
	}
	if r.Weight("beta") >= 1.0/3.0 {
		t.Fatalf("expected failing provider below equal share, got %f", r.Weight("beta"))
	}
}

func TestRegistry_SuccessRaisesSuccessEMA(t *testing.T) {
	r := testRegistry()

	// gamma starts at its static reliability of 0.88
	for i := 0; i < 10; i++ {
		r.RecordOutcome("gamma", true, 100*time.Millisecond, 0.001)
	}

	perf := r.Performance()
	for _, p := range perf {
		if p.ProviderID != "gamma" {
			continue
		}
		if p.SuccessRate <= 0.88 {
			t.Fatalf("expected success EMA above 0.88 after consistent successes, got %f", p.SuccessRate)
		}
		if p.Queries != 10 {
			t.Fatalf("expected 10 queries recorded, got %d", p.Queries)
		}
		return
	}
	t.Fatal("gamma missing from performance snapshot")
}

func TestRegistry_FallbackPlan(t *testing.T) {
	r := testRegistry()

	// Alternates are ordered by reliability descending, never include self.
	chain := r.Fallbacks("gamma")
	if len(chain) != 2 {
		t.Fatalf("expected 2 fallbacks for gamma, got %d", len(chain))
	}
	if chain[0] != "alpha" || chain[1] != "beta" {
		t.Fatalf("expected fallback order [alpha beta], got %v", chain)
	}
	for _, id := range chain {
		if id == "gamma" {
			t.Fatal("fallback chain must not contain the provider itself")
		}
	}
}

func TestRegistry_FallbackPlanCapped(t *testing.T) {
	descriptors := testDescriptors()
	descriptors = append(descriptors,
		domain.ProviderDescriptor{ID: "delta", Kind: domain.KindMock, Reliability: 0.7},
		domain.ProviderDescriptor{ID: "epsilon", Kind: domain.KindMock, Reliability: 0.6},
	)
	r := NewRegistry(descriptors, testLogger())

	if chain := r.Fallbacks("alpha"); len(chain) != 3 {
		t.Fatalf("expected fallback chain capped at 3, got %d", len(chain))
	}
}

func TestRegistry_AddRecomputesFallbacks(t *testing.T) {
	r := testRegistry()
	r.Add(domain.ProviderDescriptor{ID: "omega", Kind: domain.KindMock, Reliability: 0.99})

	chain := r.Fallbacks("gamma")
	if len(chain) == 0 || chain[0] != "omega" {
		t.Fatalf("expected omega first in recomputed chain, got %v", chain)
	}
	if got := weightSum(r); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected weights renormalized after Add, got sum %f", got)
	}
}
