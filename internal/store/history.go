package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crossval/quorum/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// HistoryStore persists validation results. The full result is stored as a
// JSONB payload; the columns exist for querying and similarity search.
type HistoryStore struct {
	db *pgxpool.Pool
}

func NewHistoryStore(db *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Append(ctx context.Context, result *domain.CrossValidationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	var embedding *pgvector.Vector
	if len(result.Embedding) > 0 {
		v := pgvector.NewVector(result.Embedding)
		embedding = &v
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO validation_results (request_id, hypothesis, domain, verdict, confidence, agreement, total_cost, payload, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		result.RequestID, result.Hypothesis, result.Domain, result.Verdict, result.Confidence,
		result.Agreement, result.TotalCost, payload, embedding, result.CreatedAt,
	)
	return err
}

func (s *HistoryStore) List(ctx context.Context, limit int) ([]*domain.CrossValidationResult, error) {
	query := `SELECT payload FROM validation_results ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history query: %w", err)
	}
	defer rows.Close()

	var results []*domain.CrossValidationResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		result := &domain.CrossValidationResult{}
		if err := json.Unmarshal(payload, result); err != nil {
			return nil, fmt.Errorf("unmarshal history payload: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (s *HistoryStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM validation_results`).Scan(&n)
	return n, err
}

func (s *HistoryStore) FindSimilar(ctx context.Context, embedding []float32, domainTag string, threshold float32) (*domain.CrossValidationResult, error) {
	vec := pgvector.NewVector(embedding)

	var payload []byte
	err := s.db.QueryRow(ctx,
		`SELECT payload, 1 - (embedding <=> $1) AS score
		 FROM validation_results
		 WHERE domain = $2 AND embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $3
		 ORDER BY score DESC
		 LIMIT 1`,
		vec, domainTag, threshold,
	).Scan(&payload, new(float32))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find similar query: %w", err)
	}

	result := &domain.CrossValidationResult{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, fmt.Errorf("unmarshal history payload: %w", err)
	}
	return result, nil
}
