package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/crossval/quorum/internal/domain"
)

const (
	providerBiasMinHistory = 10
	providerBiasThreshold  = 0.3

	confirmationBiasMinResponses = 3
	confirmationBiasStdDev       = 0.05

	architectureBiasThreshold = 0.3

	samplingBiasWindow    = 20
	samplingBiasThreshold = 0.3
)

// BiasDetector runs four independent bias checks against a response set and
// the long-term history, and keeps a per-type running log for trend reporting.
type BiasDetector struct {
	registry *Registry

	mu  sync.Mutex
	log map[domain.BiasType][]domain.BiasFinding
}

func NewBiasDetector(registry *Registry) *BiasDetector {
	return &BiasDetector{
		registry: registry,
		log:      make(map[domain.BiasType][]domain.BiasFinding),
	}
}

// Inspect runs all four checks. Each check yields zero or one finding.
func (b *BiasDetector) Inspect(responses []domain.ProviderResponse, history []*domain.CrossValidationResult) []domain.BiasFinding {
	successful := make([]domain.ProviderResponse, 0, len(responses))
	for _, r := range responses {
		if !r.Failed() {
			successful = append(successful, r)
		}
	}

	var findings []domain.BiasFinding
	if f := b.providerBias(successful, history); f != nil {
		findings = append(findings, *f)
	}
	if f := b.confirmationBias(successful); f != nil {
		findings = append(findings, *f)
	}
	if f := b.architectureBias(successful); f != nil {
		findings = append(findings, *f)
	}
	if f := b.samplingBias(history); f != nil {
		findings = append(findings, *f)
	}

	b.mu.Lock()
	for _, f := range findings {
		b.log[f.Type] = append(b.log[f.Type], f)
	}
	b.mu.Unlock()

	return findings
}

// providerBias flags a provider whose current valid-rate deviates from its
// historical valid-rate by more than the threshold, given enough history.
func (b *BiasDetector) providerBias(successful []domain.ProviderResponse, history []*domain.CrossValidationResult) *domain.BiasFinding {
	for _, resp := range successful {
		entries, validRate := historicalValidRate(history, resp.ProviderID)
		if entries < providerBiasMinHistory {
			continue
		}
		current := 0.0
		if resp.Verdict {
			current = 1.0
		}
		delta := math.Abs(current - validRate)
		if delta > providerBiasThreshold {
			return &domain.BiasFinding{
				Type:       domain.BiasProvider,
				ProviderID: resp.ProviderID,
				Detail: fmt.Sprintf("provider %s valid-rate shifted from %.2f historical to %.2f current",
					resp.ProviderID, validRate, current),
				Severity:   delta,
				DetectedAt: time.Now().UTC(),
			}
		}
	}
	return nil
}

func historicalValidRate(history []*domain.CrossValidationResult, providerID string) (entries int, validRate float64) {
	valid := 0
	for _, result := range history {
		for _, resp := range result.Responses {
			if resp.ProviderID != providerID || resp.Failed() {
				continue
			}
			entries++
			if resp.Verdict {
				valid++
			}
		}
	}
	if entries == 0 {
		return 0, 0
	}
	return entries, float64(valid) / float64(entries)
}

// confirmationBias flags suspiciously uniform confidences: three or more
// responses whose confidence standard deviation is below the floor suggest
// correlated rather than independent judgments.
func (b *BiasDetector) confirmationBias(successful []domain.ProviderResponse) *domain.BiasFinding {
	if len(successful) < confirmationBiasMinResponses {
		return nil
	}
	mean := 0.0
	for _, r := range successful {
		mean += r.Confidence
	}
	mean /= float64(len(successful))

	// Sample standard deviation: n-1 in the denominator, not n.
	variance := 0.0
	for _, r := range successful {
		d := r.Confidence - mean
		variance += d * d
	}
	variance /= float64(len(successful) - 1)
	stddev := math.Sqrt(variance)

	if stddev < confirmationBiasStdDev {
		return &domain.BiasFinding{
			Type: domain.BiasConfirmation,
			Detail: fmt.Sprintf("confidence stddev %.4f across %d responses is suspiciously uniform",
				stddev, len(successful)),
			Severity:   confirmationBiasStdDev - stddev,
			DetectedAt: time.Now().UTC(),
		}
	}
	return nil
}

// architectureBias partitions the current responses by descriptor family and
// flags any family whose internal agreement rate deviates from the overall
// agreement rate by more than the threshold. Family membership is descriptor
// configuration, not code.
func (b *BiasDetector) architectureBias(successful []domain.ProviderResponse) *domain.BiasFinding {
	overallAgree, overallPairs := agreementRate(successful)
	if overallPairs == 0 {
		return nil
	}

	families := make(map[string][]domain.ProviderResponse)
	for _, r := range successful {
		d, ok := b.registry.Get(r.ProviderID)
		if !ok || d.Family == "" {
			continue
		}
		families[d.Family] = append(families[d.Family], r)
	}

	for family, members := range families {
		famAgree, famPairs := agreementRate(members)
		if famPairs == 0 {
			continue
		}
		delta := math.Abs(famAgree - overallAgree)
		if delta > architectureBiasThreshold {
			return &domain.BiasFinding{
				Type:   domain.BiasArchitecture,
				Family: family,
				Detail: fmt.Sprintf("family %s internal agreement %.2f deviates from overall %.2f",
					family, famAgree, overallAgree),
				Severity:   delta,
				DetectedAt: time.Now().UTC(),
			}
		}
	}
	return nil
}

// agreementRate is the fraction of response pairs with matching verdicts.
func agreementRate(responses []domain.ProviderResponse) (rate float64, pairs int) {
	agree := 0
	for i := 0; i < len(responses); i++ {
		for j := i + 1; j < len(responses); j++ {
			pairs++
			if responses[i].Verdict == responses[j].Verdict {
				agree++
			}
		}
	}
	if pairs == 0 {
		return 0, 0
	}
	return float64(agree) / float64(pairs), pairs
}

// samplingBias flags a provider whose usage over the recent history window is
// far below the average usage across all registered providers.
func (b *BiasDetector) samplingBias(history []*domain.CrossValidationResult) *domain.BiasFinding {
	if len(history) < samplingBiasWindow {
		return nil
	}
	window := history[:samplingBiasWindow] // history is newest first

	usage := make(map[string]int)
	for _, result := range window {
		seen := make(map[string]bool)
		for _, resp := range result.Responses {
			if !seen[resp.ProviderID] {
				seen[resp.ProviderID] = true
				usage[resp.ProviderID]++
			}
		}
	}

	providers := b.registry.Providers()
	if len(providers) == 0 {
		return nil
	}
	total := 0
	for _, d := range providers {
		total += usage[d.ID]
	}
	avg := float64(total) / float64(len(providers))
	if avg == 0 {
		return nil
	}

	for _, d := range providers {
		count := float64(usage[d.ID])
		if count < samplingBiasThreshold*avg {
			return &domain.BiasFinding{
				Type:       domain.BiasSampling,
				ProviderID: d.ID,
				Detail: fmt.Sprintf("provider %s used %d times in last %d validations (average %.1f)",
					d.ID, usage[d.ID], samplingBiasWindow, avg),
				Severity:   1 - count/avg,
				DetectedAt: time.Now().UTC(),
			}
		}
	}
	return nil
}

// Counts returns the running number of findings per bias type.
func (b *BiasDetector) Counts() map[domain.BiasType]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[domain.BiasType]int, len(b.log))
	for t, findings := range b.log {
		out[t] = len(findings)
	}
	return out
}

// Trend returns the running log for one bias type, oldest first.
func (b *BiasDetector) Trend(t domain.BiasType) []domain.BiasFinding {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.BiasFinding, len(b.log[t]))
	copy(out, b.log[t])
	return out
}
