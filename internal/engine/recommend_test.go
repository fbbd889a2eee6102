package engine

import (
	"strings"
	"testing"

	"github.com/crossval/quorum/internal/domain"
)

func containsSubstring(recs []string, sub string) bool {
	for _, r := range recs {
		if strings.Contains(r, sub) {
			return true
		}
	}
	return false
}

func TestRecommend_Conflict(t *testing.T) {
	recs := Recommend(domain.AgreementConflict, nil, nil, false)
	if !containsSubstring(recs, "manual review") {
		t.Fatalf("expected manual review recommendation, got %v", recs)
	}
}

func TestRecommend_ProviderBias(t *testing.T) {
	biases := []domain.BiasFinding{{Type: domain.BiasProvider, ProviderID: "alpha"}}
	recs := Recommend(domain.AgreementUnanimous, biases, nil, false)
	if !containsSubstring(recs, "consider alternative providers for alpha") {
		t.Fatalf("expected provider-bias recommendation, got %v", recs)
	}
}

func TestRecommend_AmbiguousHypothesis(t *testing.T) {
	disagreements := []domain.Disagreement{
		{ProviderA: "a", ProviderB: "b"},
		{ProviderA: "a", ProviderB: "c"},
		{ProviderA: "b", ProviderB: "c"},
	}
	recs := Recommend(domain.AgreementDisagreement, nil, disagreements, false)
	if !containsSubstring(recs, "ambiguous") {
		t.Fatalf("expected ambiguity recommendation for >2 disagreements, got %v", recs)
	}
}

func TestRecommend_TwoDisagreementsNotAmbiguous(t *testing.T) {
	disagreements := []domain.Disagreement{
		{ProviderA: "a", ProviderB: "b"},
		{ProviderA: "a", ProviderB: "c"},
	}
	recs := Recommend(domain.AgreementDisagreement, nil, disagreements, false)
	if containsSubstring(recs, "ambiguous") {
		t.Fatalf("two disagreements must not trigger the ambiguity text, got %v", recs)
	}
}

func TestRecommend_BudgetForced(t *testing.T) {
	recs := Recommend(domain.AgreementUnanimous, nil, nil, true)
	if !containsSubstring(recs, "budget") {
		t.Fatalf("expected budget-forced caveat, got %v", recs)
	}
}

func TestRecommend_CleanResultIsPositive(t *testing.T) {
	recs := Recommend(domain.AgreementUnanimous, nil, nil, false)
	if len(recs) != 1 || !containsSubstring(recs, "well supported") {
		t.Fatalf("expected a single positive recommendation, got %v", recs)
	}
}
