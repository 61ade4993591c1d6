package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"trivia-duel-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// PoolLoader loads question pools stored as JSONB in Postgres, one row per
// mode/difficulty pair.
type PoolLoader struct {
	pool *pgxpool.Pool
}

func NewPoolLoader(pool *pgxpool.Pool) *PoolLoader {
	return &PoolLoader{pool: pool}
}

func (l *PoolLoader) LoadPool(ctx context.Context, mode domain.Mode, difficulty domain.Difficulty) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE mode=$1 AND difficulty=$2`, string(mode), string(difficulty)).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question pool: %w", err)
	}
	return questions, nil
}
