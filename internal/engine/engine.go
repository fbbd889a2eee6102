package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crossval/quorum/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBudgetExhausted = errors.New("global budget exhausted")
	ErrInvalidRequest  = errors.New("invalid validation request")
)

// Config carries the engine's tunables.
type Config struct {
	// ConcurrencyLimit bounds in-flight provider queries per request.
	ConcurrencyLimit int
	// BudgetLimit is the cumulative cost ceiling across all requests.
	// Zero means unlimited.
	BudgetLimit float64
	// SimilarityThreshold gates semantic reuse of prior results. Only used
	// when an embedding client is configured.
	SimilarityThreshold float32
}

// Engine is the validation façade: it orchestrates selection, dispatch,
// agreement analysis, bias detection, and aggregation per request, and owns
// the cross-request history and budget state.
type Engine struct {
	cfg        Config
	registry   *Registry
	selector   *Selector
	gateway    *Gateway
	dispatcher *Dispatcher
	matrix     *AgreementMatrix
	analyzer   *Analyzer
	biases     *BiasDetector
	aggregator *Aggregator
	history    domain.HistoryStore
	embedder   domain.EmbeddingClient
	logger     *zap.Logger

	mu    sync.Mutex
	spent float64
}

// New wires the engine from its collaborators. embedder may be nil, which
// disables semantic reuse of prior results.
func New(cfg Config, registry *Registry, invoker domain.Invoker, cache domain.ResponseCache, history domain.HistoryStore, embedder domain.EmbeddingClient, logger *zap.Logger) *Engine {
	gateway := NewGateway(invoker, cache, logger)
	matrix := NewAgreementMatrix()
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.95
	}
	return &Engine{
		cfg:        cfg,
		registry:   registry,
		selector:   NewSelector(registry, logger),
		gateway:    gateway,
		dispatcher: NewDispatcher(gateway, registry, cfg.ConcurrencyLimit, logger),
		matrix:     matrix,
		analyzer:   NewAnalyzer(matrix),
		biases:     NewBiasDetector(registry),
		aggregator: NewAggregator(registry),
		history:    history,
		embedder:   embedder,
		logger:     logger,
	}
}

// Registry exposes the provider registry for read-only API projections.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Spent returns the cumulative cost across all requests.
func (e *Engine) Spent() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spent
}

// ValidateHypothesis runs one cross-validation request end to end. It returns
// an error only for configuration problems (malformed request, empty registry,
// exhausted global budget); provider-side failures degrade the result instead.
func (e *Engine) ValidateHypothesis(ctx context.Context, req *domain.ValidationRequest) (*domain.CrossValidationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if e.registry.Len() == 0 {
		return nil, ErrNoProvidersAvailable
	}
	if e.cfg.BudgetLimit > 0 && e.Spent() >= e.cfg.BudgetLimit {
		return nil, ErrBudgetExhausted
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	var embedding []float32
	if e.embedder != nil {
		if reused := e.tryReuse(ctx, req, &embedding); reused != nil {
			return reused, nil
		}
	}

	selection, err := e.selector.Select(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	dispatchCtx, cancel := context.WithTimeout(ctx, req.EffectiveTimeout())
	defer cancel()

	responses := e.dispatcher.Dispatch(dispatchCtx, req, selection.Providers)
	elapsed := time.Since(start)

	// Record outcomes before rebalancing so the weight update sees the
	// freshest success history.
	queried := make([]string, 0, len(responses))
	totalCost := 0.0
	successes := 0
	for _, r := range responses {
		e.registry.RecordOutcome(r.ProviderID, !r.Failed(), r.Latency, r.Cost)
		queried = append(queried, r.ProviderID)
		totalCost += r.Cost
		if !r.Failed() {
			successes++
		}
	}

	level, disagreements := e.analyzer.Analyze(responses)

	history, err := e.history.List(ctx, 0)
	if err != nil {
		e.logger.Warn("history read failed", zap.Error(err))
	}
	findings := e.biases.Inspect(responses, history)

	// Snapshot weights before rebalancing: the result must report the weights
	// the vote was computed with, not the post-request values.
	weights := e.registry.WeightSnapshot()
	outcome := e.aggregator.Aggregate(responses)
	e.registry.Rebalance(queried)

	resultResponses := responses
	if successes == 0 {
		// Exhaustion: callers still get a result, degraded to Conflict with
		// zero confidence and an empty response list.
		resultResponses = nil
	}

	result := &domain.CrossValidationResult{
		RequestID:       req.ID,
		Hypothesis:      req.Hypothesis,
		Domain:          req.Domain,
		Verdict:         outcome.Verdict,
		Confidence:      outcome.Confidence,
		Agreement:       level,
		Responses:       resultResponses,
		Disagreements:   disagreements,
		Biases:          findings,
		Weights:         weights,
		TotalCost:       totalCost,
		TotalLatency:    elapsed,
		Reliability:     outcome.Reliability,
		Recommendations: Recommend(level, findings, disagreements, selection.BudgetForced),
		BudgetForced:    selection.BudgetForced,
		Embedding:       embedding,
		CreatedAt:       time.Now().UTC(),
	}

	if err := e.history.Append(ctx, result); err != nil {
		e.logger.Warn("history append failed", zap.Error(err))
	}

	e.mu.Lock()
	e.spent += totalCost
	e.mu.Unlock()

	e.logger.Info("hypothesis validated",
		zap.String("request_id", req.ID.String()),
		zap.Bool("verdict", result.Verdict),
		zap.Float64("confidence", result.Confidence),
		zap.String("agreement", string(result.Agreement)),
		zap.Int("providers", len(responses)),
		zap.Int("succeeded", successes),
		zap.Float64("cost", totalCost),
		zap.Duration("latency", elapsed))

	return result, nil
}

// tryReuse embeds the hypothesis and looks for a prior validation of a
// near-identical hypothesis in the same domain. On a hit it returns a fresh
// result carrying the prior verdict at zero cost. The computed embedding is
// handed back for reuse by the normal path.
func (e *Engine) tryReuse(ctx context.Context, req *domain.ValidationRequest, embedding *[]float32) *domain.CrossValidationResult {
	emb, err := e.embedder.Embed(ctx, req.Hypothesis)
	if err != nil {
		e.logger.Warn("hypothesis embedding failed", zap.Error(err))
		return nil
	}
	*embedding = emb

	prior, err := e.history.FindSimilar(ctx, emb, req.Domain, e.cfg.SimilarityThreshold)
	if err != nil || prior == nil {
		return nil
	}

	e.logger.Info("reusing prior validation",
		zap.String("request_id", req.ID.String()),
		zap.String("prior_request_id", prior.RequestID.String()))

	priorID := prior.RequestID
	result := &domain.CrossValidationResult{
		RequestID:       req.ID,
		Hypothesis:      req.Hypothesis,
		Domain:          req.Domain,
		Verdict:         prior.Verdict,
		Confidence:      prior.Confidence,
		Agreement:       prior.Agreement,
		Responses:       prior.Responses,
		Disagreements:   prior.Disagreements,
		Weights:         e.registry.WeightSnapshot(),
		Reliability:     prior.Reliability,
		Recommendations: append([]string{"verdict reused from a prior validation of a near-identical hypothesis"}, prior.Recommendations...),
		ReusedFrom:      &priorID,
		Embedding:       emb,
		CreatedAt:       time.Now().UTC(),
	}

	if err := e.history.Append(ctx, result); err != nil {
		e.logger.Warn("history append failed", zap.Error(err))
	}
	return result
}
