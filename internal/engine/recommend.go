package engine

import (
	"fmt"

	"github.com/crossval/quorum/internal/domain"
)

const ambiguousDisagreementCount = 2

// Recommend maps the agreement level, bias findings, and disagreement count to
// actionable text. Pure function, no state.
func Recommend(level domain.AgreementLevel, biases []domain.BiasFinding, disagreements []domain.Disagreement, budgetForced bool) []string {
	var recs []string

	switch level {
	case domain.AgreementConflict:
		recs = append(recs, "manual review required: providers returned conflicting verdicts")
	case domain.AgreementDisagreement:
		recs = append(recs, "verdicts are split; collect additional independent opinions before acting")
	case domain.AgreementMajority:
		recs = append(recs, "only a majority agrees; consider one more provider for confirmation")
	}

	for _, b := range biases {
		switch b.Type {
		case domain.BiasProvider:
			recs = append(recs, fmt.Sprintf("consider alternative providers for %s", b.ProviderID))
		case domain.BiasConfirmation:
			recs = append(recs, "confidences are suspiciously uniform; verify provider independence")
		case domain.BiasArchitecture:
			recs = append(recs, fmt.Sprintf("architecture family %s deviates from overall consensus; diversify provider families", b.Family))
		case domain.BiasSampling:
			recs = append(recs, fmt.Sprintf("provider %s is under-sampled; rotate it into selection", b.ProviderID))
		}
	}

	if len(disagreements) > ambiguousDisagreementCount {
		recs = append(recs, "hypothesis may be ambiguous; consider splitting it into narrower claims")
	}

	if budgetForced {
		recs = append(recs, "budget forced a minimum provider set; treat this confidence as provisional")
	}

	if len(recs) == 0 {
		recs = append(recs, "verdict is well supported across providers")
	}
	return recs
}
