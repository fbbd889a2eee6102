package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

const mockDimensions = 64

// MockClient produces deterministic embeddings for tests and offline runs.
// Identical text always yields the identical unit vector.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, mockDimensions)
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()

	var norm float64
	for i := range vec {
		// xorshift keeps the sequence deterministic per input text.
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		vec[i] = float32(int64(state%2000)-1000) / 1000.0
		norm += float64(vec[i]) * float64(vec[i])
	}
	if norm > 0 {
		scale := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}
