package engine

import (
	"errors"
	"sort"

	"github.com/crossval/quorum/internal/domain"
	"go.uber.org/zap"
)

var ErrNoProvidersAvailable = errors.New("no providers available")

const targetProviderCount = 3

// Selection is the ordered provider set chosen for one request.
type Selection struct {
	Providers     []domain.ProviderDescriptor
	EstimatedCost float64
	// BudgetForced marks the forced-minimum-availability case: fewer than two
	// providers fit the budget, so the two most reliable were included anyway.
	BudgetForced bool
}

// Selector chooses which providers to query under the request's cost ceiling.
type Selector struct {
	registry *Registry
	logger   *zap.Logger
}

func NewSelector(registry *Registry, logger *zap.Logger) *Selector {
	return &Selector{registry: registry, logger: logger}
}

// Select returns the ordered provider list for a request. An explicit provider
// list on the request is honored verbatim; otherwise candidates are ranked by
// reliability per unit cost and added greedily while the budget holds, up to
// three providers. Availability takes precedence over budget purity: if budget
// admits fewer than two providers, the two most reliable are forced in.
func (s *Selector) Select(req *domain.ValidationRequest) (Selection, error) {
	candidates := s.registry.Providers()
	if len(candidates) == 0 {
		return Selection{}, ErrNoProvidersAvailable
	}

	if len(req.Providers) > 0 {
		return s.explicit(req, candidates)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return valueScore(candidates[i]) > valueScore(candidates[j])
	})

	var sel Selection
	remaining := req.MaxCost
	for _, c := range candidates {
		if len(sel.Providers) >= targetProviderCount {
			break
		}
		cost := c.EstimatedCost()
		if cost > remaining {
			continue
		}
		sel.Providers = append(sel.Providers, c)
		sel.EstimatedCost += cost
		remaining -= cost
	}

	// Force the minimum only when cost actually excluded someone: a registry
	// that simply has fewer than two providers was not budget-constrained.
	if len(sel.Providers) < 2 && len(sel.Providers) < len(candidates) {
		return s.forceMinimum(candidates), nil
	}
	return sel, nil
}

// explicit resolves the request's provider list against the registry, keeping
// the caller's order. Unknown IDs are skipped with a warning.
func (s *Selector) explicit(req *domain.ValidationRequest, candidates []domain.ProviderDescriptor) (Selection, error) {
	byID := make(map[string]domain.ProviderDescriptor, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	var sel Selection
	for _, id := range req.Providers {
		d, ok := byID[id]
		if !ok {
			s.logger.Warn("explicit provider not in registry", zap.String("provider_id", id))
			continue
		}
		sel.Providers = append(sel.Providers, d)
		sel.EstimatedCost += d.EstimatedCost()
	}
	if len(sel.Providers) == 0 {
		return Selection{}, ErrNoProvidersAvailable
	}
	return sel, nil
}

// forceMinimum picks the two highest-reliability providers regardless of cost.
func (s *Selector) forceMinimum(candidates []domain.ProviderDescriptor) Selection {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Reliability > candidates[j].Reliability
	})
	n := 2
	if len(candidates) < n {
		n = len(candidates)
	}
	sel := Selection{BudgetForced: true}
	for _, c := range candidates[:n] {
		sel.Providers = append(sel.Providers, c)
		sel.EstimatedCost += c.EstimatedCost()
	}
	s.logger.Warn("budget admits fewer than two providers, forcing minimum availability",
		zap.Int("forced", len(sel.Providers)),
		zap.Float64("estimated_cost", sel.EstimatedCost))
	return sel
}

// valueScore ranks a provider by reliability per unit of estimated cost. Free
// providers rank purely by reliability, above any paid provider.
func valueScore(d domain.ProviderDescriptor) float64 {
	cost := d.EstimatedCost()
	if cost <= 0 {
		return d.Reliability * 1e9
	}
	return d.Reliability / cost
}
