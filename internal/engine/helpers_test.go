package engine

import (
	"time"

	"github.com/crossval/quorum/internal/domain"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// testDescriptors returns three providers with distinct reliability, cost, and
// family so selection and bias grouping are exercised.
func testDescriptors() []domain.ProviderDescriptor {
	return []domain.ProviderDescriptor{
		{
			ID:               "alpha",
			Name:             "alpha-model",
			Kind:             domain.KindMock,
			Family:           "transformer-a",
			CostPerKiloToken: 0.01,
			MeanLatency:      200 * time.Millisecond,
			Reliability:      0.95,
		},
		{
			ID:               "beta",
			Name:             "beta-model",
			Kind:             domain.KindMock,
			Family:           "transformer-b",
			CostPerKiloToken: 0.005,
			MeanLatency:      150 * time.Millisecond,
			Reliability:      0.92,
		},
		{
			ID:               "gamma",
			Name:             "gamma-model",
			Kind:             domain.KindMock,
			Family:           "transformer-a",
			CostPerKiloToken: 0.002,
			MeanLatency:      300 * time.Millisecond,
			Reliability:      0.88,
		},
	}
}

func testRegistry() *Registry {
	return NewRegistry(testDescriptors(), testLogger())
}
