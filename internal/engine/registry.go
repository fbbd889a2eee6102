package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/crossval/quorum/internal/domain"
	"go.uber.org/zap"
)

const (
	// Weight blend between static reliability and observed success history.
	staticReliabilityShare = 0.3
	successHistoryShare    = 0.7

	// Smoothing factor for the success and latency moving averages.
	emaAlpha = 0.3

	maxFallbacksPerProvider = 3
)

// Registry owns provider descriptors, their dynamic trust weights, and the
// precomputed fallback chains. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	providers map[string]domain.ProviderDescriptor
	weights   map[string]*domain.ProviderWeight
	fallbacks map[string][]string
	logger    *zap.Logger
}

func NewRegistry(descriptors []domain.ProviderDescriptor, logger *zap.Logger) *Registry {
	r := &Registry{
		providers: make(map[string]domain.ProviderDescriptor),
		weights:   make(map[string]*domain.ProviderWeight),
		fallbacks: make(map[string][]string),
		logger:    logger,
	}
	for _, d := range descriptors {
		r.add(d)
	}
	r.planFallbacks()
	r.renormalize()
	return r
}

// add registers a descriptor and seeds its weight state. Caller holds no lock;
// only used during construction and Add.
func (r *Registry) add(d domain.ProviderDescriptor) {
	if _, exists := r.providers[d.ID]; !exists {
		r.order = append(r.order, d.ID)
	}
	r.providers[d.ID] = d
	r.weights[d.ID] = &domain.ProviderWeight{
		ProviderID: d.ID,
		Weight:     1, // renormalized below
		SuccessEMA: d.Reliability,
		LatencyEMA: d.MeanLatency,
	}
}

// Add registers a new provider and recomputes fallback chains and weights.
func (r *Registry) Add(d domain.ProviderDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(d)
	r.planFallbacks()
	r.renormalize()
	r.logger.Info("provider registered", zap.String("provider_id", d.ID), zap.String("family", d.Family))
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

func (r *Registry) Get(id string) (domain.ProviderDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.providers[id]
	return d, ok
}

// Providers returns descriptors in registration order.
func (r *Registry) Providers() []domain.ProviderDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ProviderDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

// Fallbacks returns the precomputed alternate chain for a provider, best first.
func (r *Registry) Fallbacks(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := r.fallbacks[id]
	out := make([]string, len(chain))
	copy(out, chain)
	return out
}

// planFallbacks recomputes, for each provider, up to three alternates ordered
// by reliability descending then cost ascending. Caller holds the lock.
func (r *Registry) planFallbacks() {
	for _, id := range r.order {
		candidates := make([]domain.ProviderDescriptor, 0, len(r.order)-1)
		for _, otherID := range r.order {
			if otherID == id {
				continue
			}
			candidates = append(candidates, r.providers[otherID])
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Reliability != candidates[j].Reliability {
				return candidates[i].Reliability > candidates[j].Reliability
			}
			return candidates[i].CostPerKiloToken < candidates[j].CostPerKiloToken
		})
		if len(candidates) > maxFallbacksPerProvider {
			candidates = candidates[:maxFallbacksPerProvider]
		}
		chain := make([]string, len(candidates))
		for i, c := range candidates {
			chain[i] = c.ID
		}
		r.fallbacks[id] = chain
	}
}

// Weight returns the current normalized weight for a provider.
func (r *Registry) Weight(id string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if w, ok := r.weights[id]; ok {
		return w.Weight
	}
	return 0
}

// WeightSnapshot returns a copy of all normalized weights.
func (r *Registry) WeightSnapshot() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]float64, len(r.weights))
	for id, w := range r.weights {
		out[id] = w.Weight
	}
	return out
}

// RecordOutcome folds one query outcome into a provider's moving averages and
// cost ledger.
func (r *Registry) RecordOutcome(id string, success bool, latency time.Duration, cost float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.weights[id]
	if !ok {
		return
	}
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	w.SuccessEMA = emaAlpha*outcome + (1-emaAlpha)*w.SuccessEMA
	w.LatencyEMA = time.Duration(emaAlpha*float64(latency) + (1-emaAlpha)*float64(w.LatencyEMA))
	w.TotalCost += cost
	w.Queries++
}

// Rebalance recomputes weights for the queried providers from their static
// reliability and success history, then renormalizes all weights to sum to 1.
func (r *Registry) Rebalance(queried []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range queried {
		w, ok := r.weights[id]
		if !ok {
			continue
		}
		d := r.providers[id]
		w.Weight = staticReliabilityShare*d.Reliability + successHistoryShare*w.SuccessEMA
	}
	r.renormalize()
}

// renormalize scales weights to sum to 1. Caller holds the lock.
func (r *Registry) renormalize() {
	total := 0.0
	for _, w := range r.weights {
		total += w.Weight
	}
	if total <= 0 {
		if len(r.weights) == 0 {
			return
		}
		equal := 1.0 / float64(len(r.weights))
		for _, w := range r.weights {
			w.Weight = equal
		}
		return
	}
	for _, w := range r.weights {
		w.Weight /= total
	}
}

// Performance returns a reporting snapshot of every provider's weight state,
// in registration order.
func (r *Registry) Performance() []domain.ProviderPerformance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ProviderPerformance, 0, len(r.order))
	for _, id := range r.order {
		w := r.weights[id]
		out = append(out, domain.ProviderPerformance{
			ProviderID:  id,
			Weight:      w.Weight,
			SuccessRate: w.SuccessEMA,
			LatencyEMA:  w.LatencyEMA,
			TotalCost:   w.TotalCost,
			Queries:     w.Queries,
		})
	}
	return out
}
