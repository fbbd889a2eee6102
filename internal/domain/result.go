package domain

import (
	"time"

	"github.com/google/uuid"
)

type AgreementLevel string

const (
	AgreementUnanimous       AgreementLevel = "unanimous"
	AgreementStrongConsensus AgreementLevel = "strong_consensus"
	AgreementMajority        AgreementLevel = "majority"
	AgreementDisagreement    AgreementLevel = "disagreement"
	AgreementConflict        AgreementLevel = "conflict"
)

func ValidAgreementLevel(l string) bool {
	switch AgreementLevel(l) {
	case AgreementUnanimous, AgreementStrongConsensus, AgreementMajority,
		AgreementDisagreement, AgreementConflict:
		return true
	}
	return false
}

// Disagreement records a pair of successful responses with differing verdicts.
type Disagreement struct {
	ProviderA       string  `json:"provider_a"`
	ProviderB       string  `json:"provider_b"`
	VerdictA        bool    `json:"verdict_a"`
	VerdictB        bool    `json:"verdict_b"`
	ConfidenceDelta float64 `json:"confidence_delta"`
}

type BiasType string

const (
	BiasProvider     BiasType = "provider"
	BiasConfirmation BiasType = "confirmation"
	BiasArchitecture BiasType = "architecture"
	BiasSampling     BiasType = "sampling"
)

// BiasFinding is one detected bias signature for one request.
type BiasFinding struct {
	Type       BiasType  `json:"type"`
	ProviderID string    `json:"provider_id,omitempty"`
	Family     string    `json:"family,omitempty"`
	Detail     string    `json:"detail"`
	Severity   float64   `json:"severity"`
	DetectedAt time.Time `json:"detected_at"`
}

// CrossValidationResult is the unit of history: constructed once per request,
// appended to the history store, never mutated afterward.
type CrossValidationResult struct {
	RequestID       uuid.UUID          `json:"request_id"`
	Hypothesis      string             `json:"hypothesis"`
	Domain          string             `json:"domain,omitempty"`
	Verdict         bool               `json:"verdict"`
	Confidence      float64            `json:"confidence"`
	Agreement       AgreementLevel     `json:"agreement"`
	Responses       []ProviderResponse `json:"responses"`
	Disagreements   []Disagreement     `json:"disagreements,omitempty"`
	Biases          []BiasFinding      `json:"biases,omitempty"`
	Weights         map[string]float64 `json:"weights"` // snapshot used for this request
	TotalCost       float64            `json:"total_cost"`
	TotalLatency    time.Duration      `json:"total_latency"`
	Reliability     float64            `json:"reliability"`
	Recommendations []string           `json:"recommendations"`
	BudgetForced    bool               `json:"budget_forced,omitempty"`
	ReusedFrom      *uuid.UUID         `json:"reused_from,omitempty"`
	Embedding       []float32          `json:"-"`
	CreatedAt       time.Time          `json:"created_at"`
}

// SuccessfulResponses returns the subset of responses that carry no error.
func (r *CrossValidationResult) SuccessfulResponses() []ProviderResponse {
	out := make([]ProviderResponse, 0, len(r.Responses))
	for _, resp := range r.Responses {
		if !resp.Failed() {
			out = append(out, resp)
		}
	}
	return out
}

// PairAgreement is one cell of the agreement matrix, for reporting.
type PairAgreement struct {
	ProviderA     string  `json:"provider_a"`
	ProviderB     string  `json:"provider_b"`
	Samples       int     `json:"samples"`
	AgreementRate float64 `json:"agreement_rate"`
}

// Report is a read-only projection of engine history. No write side effects.
type Report struct {
	GeneratedAt           time.Time              `json:"generated_at"`
	TotalValidations      int                    `json:"total_validations"`
	TotalCost             float64                `json:"total_cost"`
	BudgetLimit           float64                `json:"budget_limit,omitempty"`
	AgreementDistribution map[AgreementLevel]int `json:"agreement_distribution"`
	BiasCounts            map[BiasType]int       `json:"bias_counts"`
	ProviderPerformance   []ProviderPerformance  `json:"provider_performance"`
	AgreementMatrix       []PairAgreement        `json:"agreement_matrix"`
	Recommendations       []string               `json:"recommendations"`
}
