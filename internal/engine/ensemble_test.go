package engine

import (
	"math"
	"testing"

	"github.com/crossval/quorum/internal/domain"
)

func TestAggregator_UnanimousTrue(t *testing.T) {
	registry := testRegistry()
	a := NewAggregator(registry)

	responses := []domain.ProviderResponse{
		successResponse("alpha", true, 0.9),
		successResponse("beta", true, 0.85),
		successResponse("gamma", true, 0.8),
	}
	outcome := a.Aggregate(responses)

	if !outcome.Verdict {
		t.Fatal("expected verdict true")
	}
	// Every vote is true, so weightedScore == totalWeight.
	if math.Abs(outcome.Confidence-1.0) > 1e-9 {
		t.Fatalf("expected confidence 1.0, got %f", outcome.Confidence)
	}
}

func TestAggregator_WeightedSplit(t *testing.T) {
	registry := testRegistry()
	a := NewAggregator(registry)

	responses := []domain.ProviderResponse{
		successResponse("alpha", true, 0.9),
		successResponse("beta", false, 0.9),
		successResponse("gamma", true, 0.9),
	}
	outcome := a.Aggregate(responses)

	// Equal initial weights and equal confidences: two true votes out of three.
	want := 2.0 / 3.0
	if math.Abs(outcome.Confidence-want) > 1e-9 {
		t.Fatalf("expected confidence %f, got %f", want, outcome.Confidence)
	}
	if !outcome.Verdict {
		t.Fatal("expected verdict true at confidence 2/3")
	}
}

func TestAggregator_ConfidenceScalesVotes(t *testing.T) {
	registry := testRegistry()
	a := NewAggregator(registry)

	// A confident false vote outweighs two hesitant true votes.
	responses := []domain.ProviderResponse{
		successResponse("alpha", true, 0.1),
		successResponse("beta", false, 0.95),
		successResponse("gamma", true, 0.1),
	}
	outcome := a.Aggregate(responses)

	if outcome.Verdict {
		t.Fatalf("expected verdict false, got confidence %f", outcome.Confidence)
	}
}

func TestAggregator_FailedResponsesExcluded(t *testing.T) {
	registry := testRegistry()
	a := NewAggregator(registry)

	responses := []domain.ProviderResponse{
		successResponse("alpha", true, 0.9),
		failedResponse("beta"),
	}
	outcome := a.Aggregate(responses)

	if !outcome.Verdict || math.Abs(outcome.Confidence-1.0) > 1e-9 {
		t.Fatalf("failed responses must not dilute the vote, got %f", outcome.Confidence)
	}
}

func TestAggregator_EmptySet(t *testing.T) {
	registry := testRegistry()
	a := NewAggregator(registry)

	outcome := a.Aggregate(nil)
	if outcome.Verdict || outcome.Confidence != 0 || outcome.Reliability != 0 {
		t.Fatalf("expected zeroed outcome for empty set, got %+v", outcome)
	}
}

func TestAggregator_Reliability(t *testing.T) {
	registry := testRegistry()
	a := NewAggregator(registry)

	// Two of three respond successfully with confidences 0.9 and 0.7; the
	// static mean covers all three responders (0.95, 0.92, 0.88), failed
	// responses included.
	responses := []domain.ProviderResponse{
		successResponse("alpha", true, 0.9),
		successResponse("beta", true, 0.7),
		failedResponse("gamma"),
	}
	outcome := a.Aggregate(responses)

	successFraction := 2.0 / 3.0
	meanConfidence := 0.8
	meanStatic := (0.95 + 0.92 + 0.88) / 3.0
	want := (successFraction + meanConfidence + meanStatic) / 3.0

	if math.Abs(outcome.Reliability-want) > 1e-9 {
		t.Fatalf("expected reliability %f, got %f", want, outcome.Reliability)
	}
}

func TestAggregator_ReliabilityCoversFallbackResponders(t *testing.T) {
	registry := testRegistry()
	a := NewAggregator(registry)

	// beta answered as a fallback after gamma dropped out of the plan. Its
	// static reliability must enter the mean; providers that never produced a
	// response must not.
	responses := []domain.ProviderResponse{
		successResponse("alpha", true, 0.9),
		successResponse("beta", true, 0.7),
	}
	outcome := a.Aggregate(responses)

	successFraction := 1.0
	meanConfidence := 0.8
	meanStatic := (0.95 + 0.92) / 2.0
	want := (successFraction + meanConfidence + meanStatic) / 3.0

	if math.Abs(outcome.Reliability-want) > 1e-9 {
		t.Fatalf("expected reliability %f over the responders, got %f", want, outcome.Reliability)
	}
}
