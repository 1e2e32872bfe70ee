package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"article-quiz-client/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz detail from a backing store (the backend API or the archive).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID domain.QuizID) (domain.Quiz, error)
}

// QuizRepository caches quiz detail with TTL and collapses concurrent loads of the same id.
// A zero TTL disables caching but still de-duplicates in-flight loads.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[domain.QuizID]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.QuizID]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID domain.QuizID) (domain.Quiz, error) {
	if quiz, ok := r.cached(quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(string(quizID), func() (interface{}, error) {
		if quiz, ok := r.cached(quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		if r.ttl > 0 {
			r.mu.Lock()
			r.cache[quizID] = cachedQuiz{
				quiz:      quiz,
				expiresAt: r.clock().Add(r.ttlWithJitter()),
			}
			r.mu.Unlock()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops a cached quiz, e.g. after its best score changed.
func (r *QuizRepository) Invalidate(_ context.Context, quizID domain.QuizID) {
	r.mu.Lock()
	delete(r.cache, quizID)
	r.mu.Unlock()
}

func (r *QuizRepository) cached(quizID domain.QuizID) (domain.Quiz, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
		return entry.quiz, true
	}
	return domain.Quiz{}, false
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
// It also serves the listing so a demo needs no backend.
type StaticQuizLoader struct {
	mu      sync.RWMutex
	quizzes map[domain.QuizID]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[domain.QuizID]domain.Quiz) *StaticQuizLoader {
	copied := make(map[domain.QuizID]domain.Quiz, len(quizzes))
	for id, quiz := range quizzes {
		copied[id] = quiz
	}
	return &StaticQuizLoader{quizzes: copied}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID domain.QuizID) (domain.Quiz, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// ListQuizzes returns every quiz's listing entry ordered by id.
func (l *StaticQuizLoader) ListQuizzes(_ context.Context) ([]domain.HistoryEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := make([]domain.HistoryEntry, 0, len(l.quizzes))
	for _, quiz := range l.quizzes {
		entries = append(entries, quiz.Entry())
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Put adds or replaces a quiz.
func (l *StaticQuizLoader) Put(quiz domain.Quiz) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quizzes[quiz.ID] = quiz
}
