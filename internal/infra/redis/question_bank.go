package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"trivia-duel-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// PoolLoader fetches a question pool from a backing store (e.g., Postgres).
type PoolLoader interface {
	LoadPool(ctx context.Context, mode domain.Mode, difficulty domain.Difficulty) ([]domain.Question, error)
}

// QuestionBank caches question pools in Redis (one JSON value per
// mode/difficulty pair) and falls back to a loader on cache miss.
// Pools are stored as: SET questions:{mode}:{difficulty} <json> EX ttl
type QuestionBank struct {
	client *redis.Client
	loader PoolLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader PoolLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Draw returns count distinct questions selected at random from the cached
// pool for the given mode and difficulty.
func (b *QuestionBank) Draw(ctx context.Context, mode domain.Mode, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	pool, err := b.pool(ctx, mode, difficulty)
	if err != nil {
		return nil, err
	}
	if count > len(pool) {
		return nil, domain.ErrInsufficientQuestions
	}

	b.mu.Lock()
	perm := b.rnd.Perm(len(pool))
	b.mu.Unlock()

	drawn := make([]domain.Question, 0, count)
	for _, idx := range perm[:count] {
		drawn = append(drawn, pool[idx])
	}
	return drawn, nil
}

func (b *QuestionBank) pool(ctx context.Context, mode domain.Mode, difficulty domain.Difficulty) ([]domain.Question, error) {
	key := b.poolKey(mode, difficulty)

	if raw, err := b.client.Get(ctx, key).Bytes(); err == nil {
		var pool []domain.Question
		if err := json.Unmarshal(raw, &pool); err == nil && len(pool) > 0 {
			return pool, nil
		}
	}

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := b.client.Get(ctx, key).Bytes(); err == nil {
			var pool []domain.Question
			if err := json.Unmarshal(raw, &pool); err == nil && len(pool) > 0 {
				return pool, nil
			}
		}

		pool, err := b.loader.LoadPool(ctx, mode, difficulty)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(pool); err == nil {
			_ = b.client.Set(ctx, key, raw, b.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (b *QuestionBank) poolKey(mode domain.Mode, difficulty domain.Difficulty) string {
	return "questions:" + string(mode) + ":" + string(difficulty)
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
