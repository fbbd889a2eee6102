package engine

import (
	"errors"
	"testing"

	"github.com/crossval/quorum/internal/domain"
)

func TestSelector_RespectsBudget(t *testing.T) {
	s := NewSelector(testRegistry(), testLogger())

	// Estimated costs: alpha 0.01, beta 0.005, gamma 0.002.
	req := &domain.ValidationRequest{Hypothesis: "h", MaxCost: 0.008}
	sel, err := s.Select(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sel.EstimatedCost > req.MaxCost {
		t.Fatalf("estimated cost %f exceeds budget %f", sel.EstimatedCost, req.MaxCost)
	}
	if len(sel.Providers) < 2 {
		t.Fatalf("expected at least 2 providers within budget, got %d", len(sel.Providers))
	}
	if sel.BudgetForced {
		t.Fatal("budget admitted two providers, force flag must be clear")
	}
}

func TestSelector_SelectsUpToThree(t *testing.T) {
	s := NewSelector(testRegistry(), testLogger())

	req := &domain.ValidationRequest{Hypothesis: "h", MaxCost: 1.0}
	sel, err := s.Select(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sel.Providers) != 3 {
		t.Fatalf("expected 3 providers with ample budget, got %d", len(sel.Providers))
	}
}

func TestSelector_ForcedMinimum(t *testing.T) {
	s := NewSelector(testRegistry(), testLogger())

	// Budget admits at most one provider (gamma at 0.002) so the two most
	// reliable are forced in regardless of cost.
	req := &domain.ValidationRequest{Hypothesis: "h", MaxCost: 0.003}
	sel, err := s.Select(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !sel.BudgetForced {
		t.Fatal("expected forced-minimum selection to be flagged")
	}
	if len(sel.Providers) != 2 {
		t.Fatalf("expected exactly 2 forced providers, got %d", len(sel.Providers))
	}
	if sel.Providers[0].ID != "alpha" || sel.Providers[1].ID != "beta" {
		t.Fatalf("expected the two most reliable providers, got %s and %s",
			sel.Providers[0].ID, sel.Providers[1].ID)
	}
}

func TestSelector_SingleProviderRegistryNotForced(t *testing.T) {
	only := testDescriptors()[:1]
	s := NewSelector(NewRegistry(only, testLogger()), testLogger())

	// One provider exists and the budget covers it. Nothing was skipped for
	// cost, so the forced-minimum flag stays clear.
	req := &domain.ValidationRequest{Hypothesis: "h", MaxCost: 1.0}
	sel, err := s.Select(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sel.Providers) != 1 || sel.Providers[0].ID != "alpha" {
		t.Fatalf("expected the lone provider, got %v", sel.Providers)
	}
	if sel.BudgetForced {
		t.Fatal("budget was not the constraint, force flag must be clear")
	}
}

func TestSelector_SingleProviderOverBudgetForced(t *testing.T) {
	only := testDescriptors()[:1]
	s := NewSelector(NewRegistry(only, testLogger()), testLogger())

	// The lone provider costs more than the budget, so it is forced in.
	req := &domain.ValidationRequest{Hypothesis: "h", MaxCost: 0.001}
	sel, err := s.Select(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sel.Providers) != 1 || !sel.BudgetForced {
		t.Fatalf("expected the lone provider forced in, got %+v", sel)
	}
}

func TestSelector_ExplicitListVerbatim(t *testing.T) {
	s := NewSelector(testRegistry(), testLogger())

	req := &domain.ValidationRequest{
		Hypothesis: "h",
		MaxCost:    0.001, // would admit nothing, explicit list wins anyway
		Providers:  []string{"gamma", "alpha"},
	}
	sel, err := s.Select(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sel.Providers) != 2 || sel.Providers[0].ID != "gamma" || sel.Providers[1].ID != "alpha" {
		t.Fatalf("expected explicit order [gamma alpha], got %v", sel.Providers)
	}
}

func TestSelector_ExplicitUnknownSkipped(t *testing.T) {
	s := NewSelector(testRegistry(), testLogger())

	req := &domain.ValidationRequest{
		Hypothesis: "h",
		MaxCost:    1.0,
		Providers:  []string{"nope", "beta"},
	}
	sel, err := s.Select(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sel.Providers) != 1 || sel.Providers[0].ID != "beta" {
		t.Fatalf("expected unknown IDs skipped, got %v", sel.Providers)
	}
}

func TestSelector_AllUnknownExplicit(t *testing.T) {
	s := NewSelector(testRegistry(), testLogger())

	req := &domain.ValidationRequest{Hypothesis: "h", MaxCost: 1.0, Providers: []string{"nope"}}
	if _, err := s.Select(req); !errors.Is(err, ErrNoProvidersAvailable) {
		t.Fatalf("expected ErrNoProvidersAvailable, got %v", err)
	}
}

func TestSelector_EmptyRegistry(t *testing.T) {
	s := NewSelector(NewRegistry(nil, testLogger()), testLogger())

	req := &domain.ValidationRequest{Hypothesis: "h", MaxCost: 1.0}
	if _, err := s.Select(req); !errors.Is(err, ErrNoProvidersAvailable) {
		t.Fatalf("expected ErrNoProvidersAvailable, got %v", err)
	}
}
