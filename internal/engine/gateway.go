package engine

import (
	"context"
	"sync"
	"time"

	"github.com/crossval/quorum/internal/domain"
	"github.com/crossval/quorum/internal/provider"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Gateway executes one query against one provider: cache check, rate limit,
// invocation, cost accounting. Transport failures and timeouts become
// error-carrying responses; nothing is raised past this boundary.
type Gateway struct {
	invoker domain.Invoker
	cache   domain.ResponseCache
	logger  *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewGateway(invoker domain.Invoker, cache domain.ResponseCache, logger *zap.Logger) *Gateway {
	return &Gateway{
		invoker:  invoker,
		cache:    cache,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiter returns the token bucket for a provider, creating it from the
// descriptor's rate limits on first use. Providers without limits get an
// unlimited bucket.
func (g *Gateway) limiter(d domain.ProviderDescriptor) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	if l, ok := g.limiters[d.ID]; ok {
		return l
	}

	limit := rate.Inf
	burst := 1
	if d.RateRPS > 0 {
		limit = rate.Limit(d.RateRPS)
		burst = d.RateBurst
		if burst <= 0 {
			burst = 1
		}
	}
	l := rate.NewLimiter(limit, burst)
	g.limiters[d.ID] = l
	return l
}

// Query returns the provider's response for the request, served from cache
// when the same (request, provider) pair was already answered.
func (g *Gateway) Query(ctx context.Context, req *domain.ValidationRequest, desc domain.ProviderDescriptor) *domain.ProviderResponse {
	if cached, err := g.cache.Get(ctx, req.ID, desc.ID); err == nil && cached != nil {
		g.logger.Debug("cache hit",
			zap.String("request_id", req.ID.String()),
			zap.String("provider_id", desc.ID))
		return cached
	}

	start := time.Now()

	if err := g.limiter(desc).Wait(ctx); err != nil {
		return g.errorResponse(req, desc, start, err)
	}

	raw, err := g.invoker.Invoke(ctx, desc, provider.ValidationPrompt(req))
	if err != nil {
		return g.errorResponse(req, desc, start, err)
	}

	resp := &domain.ProviderResponse{
		RequestID:  req.ID,
		ProviderID: desc.ID,
		Verdict:    raw.Verdict,
		Confidence: raw.Confidence,
		Reasoning:  raw.Reasoning,
		Evidence:   raw.Evidence,
		Concerns:   raw.Concerns,
		Latency:    time.Since(start),
		Cost:       float64(raw.TokensUsed) / 1000.0 * desc.CostPerKiloToken,
		Timestamp:  time.Now().UTC(),
	}

	if err := g.cache.Put(ctx, resp); err != nil {
		g.logger.Warn("cache write failed",
			zap.String("request_id", req.ID.String()),
			zap.String("provider_id", desc.ID),
			zap.Error(err))
	}
	return resp
}

func (g *Gateway) errorResponse(req *domain.ValidationRequest, desc domain.ProviderDescriptor, start time.Time, err error) *domain.ProviderResponse {
	g.logger.Debug("provider call failed",
		zap.String("request_id", req.ID.String()),
		zap.String("provider_id", desc.ID),
		zap.Error(err))
	return &domain.ProviderResponse{
		RequestID:  req.ID,
		ProviderID: desc.ID,
		Verdict:    false,
		Confidence: 0,
		Latency:    time.Since(start),
		Timestamp:  time.Now().UTC(),
		Err:        err.Error(),
	}
}
