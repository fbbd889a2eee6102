package domain

import (
	"time"

	"github.com/google/uuid"
)

// RawVerdict is what a provider client returns from one invocation, before the
// gateway wraps it with latency, cost, and identity.
type RawVerdict struct {
	Verdict    bool     `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Evidence   []string `json:"evidence,omitempty"`
	Concerns   []string `json:"concerns,omitempty"`
	TokensUsed int      `json:"tokens_used"`
}

// ProviderResponse is one provider's answer to one request. Immutable once
// produced. A response with a non-empty Err is excluded from all aggregation
// math but retained for diagnostics.
type ProviderResponse struct {
	RequestID  uuid.UUID     `json:"request_id"`
	ProviderID string        `json:"provider_id"`
	Verdict    bool          `json:"verdict"`
	Confidence float64       `json:"confidence"`
	Reasoning  string        `json:"reasoning,omitempty"`
	Evidence   []string      `json:"evidence,omitempty"`
	Concerns   []string      `json:"concerns,omitempty"`
	Latency    time.Duration `json:"latency"`
	Cost       float64       `json:"cost"`
	Timestamp  time.Time     `json:"timestamp"`
	Err        string        `json:"error,omitempty"`
}

// Failed reports whether the response carries a transport or timeout error.
func (r *ProviderResponse) Failed() bool {
	return r.Err != ""
}
