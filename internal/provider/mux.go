package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/crossval/quorum/internal/domain"
)

// Mux routes invocations to per-provider clients. Clients are registered under
// the descriptor ID; a kind-level fallback lets several descriptors of the
// same kind share one client.
type Mux struct {
	mu     sync.RWMutex
	byID   map[string]domain.Invoker
	byKind map[domain.ProviderKind]domain.Invoker
}

func NewMux() *Mux {
	return &Mux{
		byID:   make(map[string]domain.Invoker),
		byKind: make(map[domain.ProviderKind]domain.Invoker),
	}
}

// Register binds a client to one provider ID.
func (m *Mux) Register(providerID string, inv domain.Invoker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[providerID] = inv
}

// RegisterKind binds a client to every descriptor of the given kind that has
// no ID-level registration.
func (m *Mux) RegisterKind(kind domain.ProviderKind, inv domain.Invoker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKind[kind] = inv
}

func (m *Mux) Invoke(ctx context.Context, desc domain.ProviderDescriptor, prompt string) (*domain.RawVerdict, error) {
	m.mu.RLock()
	inv, ok := m.byID[desc.ID]
	if !ok {
		inv, ok = m.byKind[desc.Kind]
	}
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no client registered for provider %s (kind %s)", desc.ID, desc.Kind)
	}
	return inv.Invoke(ctx, desc, prompt)
}
