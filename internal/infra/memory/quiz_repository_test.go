package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"article-quiz-client/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[domain.QuizID]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}

	repo.Invalidate(context.Background(), "quiz-1")
	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 3: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.count())
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[domain.QuizID]domain.Quiz{"quiz-1": sampleQuiz()}),
	}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.count() != 2 {
		t.Fatalf("expected expired entry to reload, loader calls %d", loader.count())
	}
}

func TestQuizRepositoryZeroTTLDoesNotCache(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[domain.QuizID]domain.Quiz{"quiz-1": sampleQuiz()}),
	}
	repo := NewQuizRepository(loader, 0)

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.count() != 2 {
		t.Fatalf("expected no caching, loader calls %d", loader.count())
	}
}

func TestQuizRepositoryCollapsesConcurrentLoads(t *testing.T) {
	release := make(chan struct{})
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[domain.QuizID]domain.Quiz{"quiz-1": sampleQuiz()}),
		release:    release,
	}
	repo := NewQuizRepository(loader, 0)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
				t.Errorf("get quiz: %v", err)
			}
		}()
	}
	for loader.count() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if loader.count() != 1 {
		t.Fatalf("expected one in-flight load, got %d", loader.count())
	}
}

func TestQuizRepositoryPropagatesNotFound(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "nope"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestStaticQuizLoaderLists(t *testing.T) {
	loader := NewStaticQuizLoader(nil)
	loader.Put(sampleQuiz())
	entries, err := loader.ListQuizzes(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Arithmetic" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

type countingLoader struct {
	QuizLoader
	calls   atomic.Int32
	release chan struct{}
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID domain.QuizID) (domain.Quiz, error) {
	l.calls.Add(1)
	if l.release != nil {
		<-l.release
	}
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func (l *countingLoader) count() int {
	return int(l.calls.Load())
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Arithmetic",
		URL:   "https://example.org/arithmetic",
		Questions: []domain.Question{
			{
				Prompt:  "What is 2 + 2?",
				Options: []string{"3", "4", "5"},
				Answer:  "4",
			},
		},
	}
}
