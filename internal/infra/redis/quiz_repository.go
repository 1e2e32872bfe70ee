package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"article-quiz-client/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz detail from a backing store (the backend API or the archive).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID domain.QuizID) (domain.Quiz, error)
}

// QuizRepository caches quiz detail in Redis and falls back to a loader on cache miss.
// Detail is stored as: SET quiz:{quizID}:detail {json} EX ttl
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID domain.QuizID) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(string(quizID), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		if ttl := r.ttlWithJitter(); ttl > 0 {
			if raw, err := json.Marshal(quiz); err == nil {
				_ = r.client.Set(ctx, r.detailKey(quizID), raw, ttl).Err()
			}
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops the cached detail, e.g. after its best score changed.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID domain.QuizID) {
	_ = r.client.Del(ctx, r.detailKey(quizID)).Err()
}

// cached treats any Redis failure as a miss so the loader remains the source of truth.
func (r *QuizRepository) cached(ctx context.Context, quizID domain.QuizID) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, r.detailKey(quizID)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) detailKey(quizID domain.QuizID) string {
	return "quiz:" + string(quizID) + ":detail"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
