package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/crossval/quorum/internal/domain"
	"go.uber.org/zap"
)

// GenerateReport projects the engine's history into a read-only report.
// No write side effects.
func (e *Engine) GenerateReport(ctx context.Context) (*domain.Report, error) {
	history, err := e.history.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	distribution := make(map[domain.AgreementLevel]int)
	totalCost := 0.0
	for _, result := range history {
		distribution[result.Agreement]++
		totalCost += result.TotalCost
	}

	report := &domain.Report{
		GeneratedAt:           time.Now().UTC(),
		TotalValidations:      len(history),
		TotalCost:             totalCost,
		BudgetLimit:           e.cfg.BudgetLimit,
		AgreementDistribution: distribution,
		BiasCounts:            e.biases.Counts(),
		ProviderPerformance:   e.registry.Performance(),
		AgreementMatrix:       e.matrix.Snapshot(),
		Recommendations:       e.reportRecommendations(distribution, len(history)),
	}

	e.logger.Debug("report generated", zap.Int("validations", report.TotalValidations))
	return report, nil
}

// reportRecommendations summarizes cross-request trends.
func (e *Engine) reportRecommendations(distribution map[domain.AgreementLevel]int, total int) []string {
	var recs []string
	if total == 0 {
		return []string{"no validations recorded yet"}
	}

	conflicts := distribution[domain.AgreementConflict] + distribution[domain.AgreementDisagreement]
	if float64(conflicts)/float64(total) > 0.3 {
		recs = append(recs, "over 30% of validations ended in disagreement or conflict; review hypothesis quality and provider diversity")
	}

	if e.cfg.BudgetLimit > 0 {
		spent := e.Spent()
		if spent >= 0.8*e.cfg.BudgetLimit {
			recs = append(recs, fmt.Sprintf("cumulative spend %.4f is above 80%% of the %.4f budget", spent, e.cfg.BudgetLimit))
		}
	}

	for biasType, count := range e.biases.Counts() {
		if count > 0 {
			recs = append(recs, fmt.Sprintf("%d %s-bias findings recorded; see bias trend log", count, biasType))
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "validation history is healthy")
	}
	return recs
}
