package provider

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/crossval/quorum/internal/domain"
)

// MockCall records one invocation for assertions.
type MockCall struct {
	ProviderID string
	Prompt     string
}

// MockInvoker is a deterministic, seedable test double for the provider
// boundary. Set Verdicts/Errors per provider ID to script behavior; unscripted
// providers get a stable verdict derived from the seed, provider, and prompt.
type MockInvoker struct {
	mu sync.Mutex

	Seed     int64
	Verdicts map[string]*domain.RawVerdict
	Errors   map[string]error
	Latency  time.Duration

	// Call tracking for assertions
	Calls []MockCall
}

func NewMockInvoker() *MockInvoker {
	return &MockInvoker{
		Verdicts: make(map[string]*domain.RawVerdict),
		Errors:   make(map[string]error),
	}
}

func (m *MockInvoker) Invoke(ctx context.Context, desc domain.ProviderDescriptor, prompt string) (*domain.RawVerdict, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{ProviderID: desc.ID, Prompt: prompt})
	err := m.Errors[desc.ID]
	scripted := m.Verdicts[desc.ID]
	latency := m.Latency
	seed := m.Seed
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if scripted != nil {
		v := *scripted
		return &v, nil
	}

	// Deterministic fixture: same seed, provider, and prompt always produce
	// the same verdict and confidence.
	h := fnv.New64a()
	_, _ = h.Write([]byte(desc.ID))
	_, _ = h.Write([]byte(prompt))
	sum := h.Sum64() ^ uint64(seed)

	return &domain.RawVerdict{
		Verdict:    sum%2 == 0,
		Confidence: 0.5 + float64(sum%50)/100.0,
		Reasoning:  "mock verdict",
		TokensUsed: 100 + int(sum%400),
	}, nil
}

// ScriptVerdict sets a fixed verdict for a provider.
func (m *MockInvoker) ScriptVerdict(providerID string, verdict bool, confidence float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Verdicts[providerID] = &domain.RawVerdict{
		Verdict:    verdict,
		Confidence: confidence,
		Reasoning:  "scripted verdict",
		TokensUsed: 200,
	}
}

// ScriptError makes a provider fail with the given error.
func (m *MockInvoker) ScriptError(providerID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[providerID] = err
}

// CallCount returns the number of invocations for a provider.
func (m *MockInvoker) CallCount(providerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.ProviderID == providerID {
			n++
		}
	}
	return n
}

// Reset clears all scripted behavior and recorded calls.
func (m *MockInvoker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Verdicts = make(map[string]*domain.RawVerdict)
	m.Errors = make(map[string]error)
	m.Calls = nil
	m.Latency = 0
}
