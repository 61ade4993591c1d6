package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"trivia-duel-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// PoolLoader fetches a question pool from a backing store (e.g., Postgres).
type PoolLoader interface {
	LoadPool(ctx context.Context, mode domain.Mode, difficulty domain.Difficulty) ([]domain.Question, error)
}

// QuestionBank caches pools with TTL to avoid repeated store hits and draws
// randomized question sets without replacement.
type QuestionBank struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.Mutex
	rnd   *rand.Rand
	cache map[string]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionBank(loader PoolLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
	}
}

// Draw returns count distinct questions selected at random from the pool for
// the given mode and difficulty.
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
	key := poolKey(mode, difficulty)
	now := b.clock()

	b.mu.Lock()
	if entry, ok := b.cache[key]; ok && entry.expiresAt.After(now) {
		b.mu.Unlock()
		return entry.questions, nil
	}
	b.mu.Unlock()

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		now := b.clock()
		b.mu.Lock()
		if entry, ok := b.cache[key]; ok && entry.expiresAt.After(now) {
			b.mu.Unlock()
			return entry.questions, nil
		}
		b.mu.Unlock()

		questions, err := b.loader.LoadPool(ctx, mode, difficulty)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.cache[key] = cachedPool{
			questions: questions,
			expiresAt: now.Add(b.ttlWithJitter()),
		}
		b.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

func poolKey(mode domain.Mode, difficulty domain.Difficulty) string {
	return string(mode) + ":" + string(difficulty)
}

// StaticPoolLoader serves pools from an in-memory map (useful for tests and
// demo deployments without Postgres).
type StaticPoolLoader struct {
	pools map[string][]domain.Question
}

func NewStaticPoolLoader(pools map[string][]domain.Question) *StaticPoolLoader {
	return &StaticPoolLoader{pools: pools}
}

// PoolKey builds the map key used by StaticPoolLoader.
func PoolKey(mode domain.Mode, difficulty domain.Difficulty) string {
	return poolKey(mode, difficulty)
}

func (l *StaticPoolLoader) LoadPool(_ context.Context, mode domain.Mode, difficulty domain.Difficulty) ([]domain.Question, error) {
	if pool, ok := l.pools[poolKey(mode, difficulty)]; ok {
		return pool, nil
	}
	return nil, domain.ErrInsufficientQuestions
}
