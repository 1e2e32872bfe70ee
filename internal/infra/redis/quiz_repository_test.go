package redis

import (
	"context"
	"testing"
	"time"

	"article-quiz-client/internal/domain"
	"article-quiz-client/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[domain.QuizID]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1:detail") {
		t.Fatalf("expected detail key to be set")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get cached quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Title != quiz.Title || len(cached.Questions) != 1 || cached.Questions[0].Answer != "4" {
		t.Fatalf("cached quiz lost detail: %+v", cached)
	}
	if cached.TopScore == nil || *cached.TopScore != 1 {
		t.Fatalf("expected top score preserved, got %v", cached.TopScore)
	}

	repo.Invalidate(context.Background(), "quiz-1")
	if mr.Exists("quiz:quiz-1:detail") {
		t.Fatalf("expected detail key removed")
	}
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestQuizRepositoryFallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[domain.QuizID]domain.Quiz{"quiz-1": sampleQuiz()}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("expected loader fallback, got %v", err)
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID domain.QuizID) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	top := 1
	return domain.Quiz{
		ID:       "quiz-1",
		Title:    "Arithmetic",
		URL:      "https://example.org/arithmetic",
		TopScore: &top,
		Questions: []domain.Question{
			{
				Prompt:  "What is 2 + 2?",
				Options: []string{"3", "4", "5"},
				Answer:  "4",
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
