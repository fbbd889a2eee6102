package domain

import (
	"time"
)

// ProviderKind identifies which client implementation talks to the provider.
type ProviderKind string

const (
	KindOpenAI    ProviderKind = "openai"
	KindAnthropic ProviderKind = "anthropic"
	KindGemini    ProviderKind = "gemini"
	KindCerebras  ProviderKind = "cerebras"
	KindMock      ProviderKind = "mock"
)

func ValidProviderKind(k string) bool {
	switch ProviderKind(k) {
	case KindOpenAI, KindAnthropic, KindGemini, KindCerebras, KindMock:
		return true
	}
	return false
}

// ProviderDescriptor is the immutable static configuration for one provider.
// Behavior differences between providers are fully captured here; there is a
// single uniform gateway, no per-provider code paths.
type ProviderDescriptor struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Kind             ProviderKind  `json:"kind"`
	Family           string        `json:"family"` // architecture family, used for bias grouping
	CostPerKiloToken float64       `json:"cost_per_kilo_token"`
	MeanLatency      time.Duration `json:"mean_latency"`
	Reliability      float64       `json:"reliability"` // static score in [0,1]
	Capabilities     []string      `json:"capabilities,omitempty"`
	RateRPS          float64       `json:"rate_rps,omitempty"`
	RateBurst        int           `json:"rate_burst,omitempty"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	Temperature      float32       `json:"temperature,omitempty"`
}

// EstimatedCost is the cost assumed by the selector before any call is made,
// based on the descriptor's token ceiling.
func (d ProviderDescriptor) EstimatedCost() float64 {
	tokens := d.MaxTokens
	if tokens <= 0 {
		tokens = DefaultMaxTokens
	}
	return float64(tokens) / 1000.0 * d.CostPerKiloToken
}

// DefaultMaxTokens is the assumed work size when a descriptor does not set one.
const DefaultMaxTokens = 1000

// ProviderWeight is the mutable per-provider trust state. Weights across all
// providers sum to 1 after each rebalance.
type ProviderWeight struct {
	ProviderID string        `json:"provider_id"`
	Weight     float64       `json:"weight"`
	SuccessEMA float64       `json:"success_ema"`
	LatencyEMA time.Duration `json:"latency_ema"`
	TotalCost  float64       `json:"total_cost"`
	Queries    int           `json:"queries"`
}

// ProviderPerformance is the read-only projection of a provider's weight state
// used in reports.
type ProviderPerformance struct {
	ProviderID  string        `json:"provider_id"`
	Weight      float64       `json:"weight"`
	SuccessRate float64       `json:"success_rate"`
	LatencyEMA  time.Duration `json:"latency_ema"`
	TotalCost   float64       `json:"total_cost"`
	Queries     int           `json:"queries"`
}
