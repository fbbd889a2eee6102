package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/crossval/quorum/internal/domain"
	"github.com/crossval/quorum/internal/engine"
)

type ValidationHandler struct {
	eng *engine.Engine
}

func NewValidationHandler(eng *engine.Engine) *ValidationHandler {
	return &ValidationHandler{eng: eng}
}

type validateRequest struct {
	Hypothesis         string         `json:"hypothesis"`
	Domain             string         `json:"domain,omitempty"`
	Context            map[string]any `json:"context,omitempty"`
	RequiredConfidence float64        `json:"required_confidence,omitempty"`
	MaxCost            float64        `json:"max_cost,omitempty"`
	TimeoutSeconds     float64        `json:"timeout_seconds,omitempty"`
	Priority           int            `json:"priority,omitempty"`
	Providers          []string       `json:"providers,omitempty"`
	FallbackEnabled    *bool          `json:"fallback_enabled,omitempty"`
}

func (h *ValidationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vr := &domain.ValidationRequest{
		Hypothesis:         req.Hypothesis,
		Domain:             req.Domain,
		Context:            req.Context,
		RequiredConfidence: req.RequiredConfidence,
		MaxCost:            req.MaxCost,
		Priority:           req.Priority,
		Providers:          req.Providers,
		FallbackEnabled:    true,
	}
	if req.FallbackEnabled != nil {
		vr.FallbackEnabled = *req.FallbackEnabled
	}
	if req.TimeoutSeconds > 0 {
		vr.Timeout = time.Duration(req.TimeoutSeconds * float64(time.Second))
	}

	result, err := h.eng.ValidateHypothesis(r.Context(), vr)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, engine.ErrBudgetExhausted):
			writeError(w, http.StatusPaymentRequired, err.Error())
		case errors.Is(err, engine.ErrNoProvidersAvailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "validation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
