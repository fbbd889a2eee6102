package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRequestTimeout bounds a validation request when the caller does not
// set one.
const DefaultRequestTimeout = 30 * time.Second

var (
	ErrHypothesisEmpty   = errors.New("hypothesis is empty")
	ErrNegativeBudget    = errors.New("max cost must not be negative")
	ErrInvalidConfidence = errors.New("required confidence must be in [0,1]")
)

// ValidationRequest describes one hypothesis to cross-validate. Immutable once
// handed to the engine.
type ValidationRequest struct {
	ID                 uuid.UUID      `json:"id"`
	Hypothesis         string         `json:"hypothesis"`
	Domain             string         `json:"domain,omitempty"`
	Context            map[string]any `json:"context,omitempty"`
	RequiredConfidence float64        `json:"required_confidence,omitempty"`
	MaxCost            float64        `json:"max_cost"`
	Timeout            time.Duration  `json:"timeout,omitempty"`
	Priority           int            `json:"priority,omitempty"`
	Providers          []string       `json:"providers,omitempty"` // explicit provider IDs, used verbatim
	FallbackEnabled    bool           `json:"fallback_enabled"`
}

// Validate reports configuration errors that must fail before any dispatch.
func (r *ValidationRequest) Validate() error {
	if strings.TrimSpace(r.Hypothesis) == "" {
		return ErrHypothesisEmpty
	}
	if r.MaxCost < 0 {
		return ErrNegativeBudget
	}
	if r.RequiredConfidence < 0 || r.RequiredConfidence > 1 {
		return ErrInvalidConfidence
	}
	return nil
}

// EffectiveTimeout returns the request timeout, falling back to the default.
func (r *ValidationRequest) EffectiveTimeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultRequestTimeout
	}
	return r.Timeout
}
