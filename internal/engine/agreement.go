package engine

import (
	"math"
	"sync"

	"github.com/crossval/quorum/internal/domain"
)

const (
	strongConsensusThreshold = 0.8
	majorityThreshold        = 0.5
	conflictConfidenceDelta  = 0.5
)

type pairKey struct {
	a, b string
}

// orderedPair normalizes an unordered provider pair.
func orderedPair(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

type pairStats struct {
	samples    int
	agreements int
}

// AgreementMatrix tracks, per unordered provider pair, how often the two
// providers returned the same verdict. Safe for concurrent use.
type AgreementMatrix struct {
	mu    sync.Mutex
	cells map[pairKey]*pairStats
}

func NewAgreementMatrix() *AgreementMatrix {
	return &AgreementMatrix{cells: make(map[pairKey]*pairStats)}
}

func (m *AgreementMatrix) record(a, b string, agreed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := orderedPair(a, b)
	cell, ok := m.cells[key]
	if !ok {
		cell = &pairStats{}
		m.cells[key] = cell
	}
	cell.samples++
	if agreed {
		cell.agreements++
	}
}

// Rate returns the agreement rate and sample count for a provider pair.
func (m *AgreementMatrix) Rate(a, b string) (float64, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cell, ok := m.cells[orderedPair(a, b)]
	if !ok || cell.samples == 0 {
		return 0, 0
	}
	return float64(cell.agreements) / float64(cell.samples), cell.samples
}

// Snapshot returns every cell for reporting.
func (m *AgreementMatrix) Snapshot() []domain.PairAgreement {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PairAgreement, 0, len(m.cells))
	for key, cell := range m.cells {
		out = append(out, domain.PairAgreement{
			ProviderA:     key.a,
			ProviderB:     key.b,
			Samples:       cell.samples,
			AgreementRate: float64(cell.agreements) / float64(cell.samples),
		})
	}
	return out
}

// Analyzer classifies verdict distributions and maintains the pairwise
// agreement history.
type Analyzer struct {
	matrix *AgreementMatrix
}

func NewAnalyzer(matrix *AgreementMatrix) *Analyzer {
	return &Analyzer{matrix: matrix}
}

// Analyze computes the agreement level and the pairwise disagreements over
// the successful response subset, and records every pair in the matrix. Any
// disagreeing pair with a confidence delta above 0.5 overrides the level to
// Conflict. An empty set classifies as Conflict.
func (a *Analyzer) Analyze(responses []domain.ProviderResponse) (domain.AgreementLevel, []domain.Disagreement) {
	successful := make([]domain.ProviderResponse, 0, len(responses))
	for _, r := range responses {
		if !r.Failed() {
			successful = append(successful, r)
		}
	}
	if len(successful) == 0 {
		return domain.AgreementConflict, nil
	}

	valid := 0
	for _, r := range successful {
		if r.Verdict {
			valid++
		}
	}
	validRatio := float64(valid) / float64(len(successful))

	level := classify(validRatio)

	var disagreements []domain.Disagreement
	conflict := false
	for i := 0; i < len(successful); i++ {
		for j := i + 1; j < len(successful); j++ {
			ri, rj := successful[i], successful[j]
			agreed := ri.Verdict == rj.Verdict
			a.matrix.record(ri.ProviderID, rj.ProviderID, agreed)
			if agreed {
				continue
			}
			delta := math.Abs(ri.Confidence - rj.Confidence)
			disagreements = append(disagreements, domain.Disagreement{
				ProviderA:       ri.ProviderID,
				ProviderB:       rj.ProviderID,
				VerdictA:        ri.Verdict,
				VerdictB:        rj.Verdict,
				ConfidenceDelta: delta,
			})
			if delta > conflictConfidenceDelta {
				conflict = true
			}
		}
	}
	if conflict {
		level = domain.AgreementConflict
	}
	return level, disagreements
}

func classify(validRatio float64) domain.AgreementLevel {
	switch {
	case validRatio == 0 || validRatio == 1:
		return domain.AgreementUnanimous
	case validRatio >= strongConsensusThreshold:
		return domain.AgreementStrongConsensus
	case validRatio >= majorityThreshold:
		return domain.AgreementMajority
	default:
		return domain.AgreementDisagreement
	}
}
