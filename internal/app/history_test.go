package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"article-quiz-client/internal/app"
	"article-quiz-client/internal/domain"
	"article-quiz-client/internal/infra/memory"
)

type staticLister struct {
	entries []domain.HistoryEntry
	err     error
}

func (l staticLister) ListQuizzes(context.Context) ([]domain.HistoryEntry, error) {
	return l.entries, l.err
}

func day(y int, m time.Month, d int) domain.Timestamp {
	return domain.Timestamp{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func TestHistoryLoadSortsNewestFirst(t *testing.T) {
	lister := staticLister{entries: []domain.HistoryEntry{
		{ID: "1", Title: "January", CreatedAt: day(2024, 1, 1)},
		{ID: "3", Title: "March", CreatedAt: day(2024, 3, 1)},
		{ID: "2", Title: "February", CreatedAt: day(2024, 2, 1)},
	}}
	index := app.NewHistoryIndex(lister, nil, nil)
	if err := index.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	entries := index.Entries()
	got := []domain.QuizID{entries[0].ID, entries[1].ID, entries[2].ID}
	want := []domain.QuizID{"3", "2", "1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestHistoryLoadIsStableForEqualTimestamps(t *testing.T) {
	lister := staticLister{entries: []domain.HistoryEntry{
		{ID: "a", CreatedAt: day(2024, 1, 1)},
		{ID: "b", CreatedAt: day(2024, 1, 1)},
		{ID: "c", CreatedAt: day(2024, 1, 2)},
	}}
	index := app.NewHistoryIndex(lister, nil, nil)
	_ = index.Load(context.Background())

	entries := index.Entries()
	if entries[0].ID != "c" || entries[1].ID != "a" || entries[2].ID != "b" {
		t.Fatalf("unexpected order %+v", entries)
	}
}

func TestHistoryFilter(t *testing.T) {
	lister := staticLister{entries: []domain.HistoryEntry{
		{ID: "1", Title: "Alan Turing", URL: "https://en.wikipedia.org/wiki/Turing", CreatedAt: day(2024, 2, 1)},
		{ID: "2", Title: "Python", URL: "https://en.wikipedia.org/wiki/Python_(language)", CreatedAt: day(2024, 1, 1)},
	}}
	index := app.NewHistoryIndex(lister, nil, nil)
	_ = index.Load(context.Background())

	if got := index.Filter("turing"); len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("filter turing = %+v", got)
	}
	if got := index.Filter("py"); len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("filter py = %+v", got)
	}
	if got := index.Filter("PYTHON_("); len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("filter on url = %+v", got)
	}
	if got := index.Filter(""); len(got) != 2 {
		t.Fatalf("empty filter = %+v", got)
	}
	got := index.Filter("zzz")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
	if index.Empty() {
		t.Fatalf("no-match must not look like empty history")
	}
}

func TestHistoryLoadFailureLeavesEmptyListWithError(t *testing.T) {
	index := app.NewHistoryIndex(staticLister{err: errors.New("offline")}, nil, nil)
	if err := index.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if !index.Loaded() || index.Err() == nil || !index.Empty() {
		t.Fatalf("expected empty-with-error state")
	}
	if got := index.Filter(""); len(got) != 0 {
		t.Fatalf("expected no entries, got %+v", got)
	}
}

func TestResolveDetailFailureKeepsList(t *testing.T) {
	quiz := sampleQuiz()
	lister := staticLister{entries: []domain.HistoryEntry{quiz.Entry()}}
	repo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[domain.QuizID]domain.Quiz{
		quiz.ID: quiz,
	}), time.Minute)
	index := app.NewHistoryIndex(lister, repo, nil)
	_ = index.Load(context.Background())

	detail, err := index.ResolveDetail(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(detail.Questions) != 2 {
		t.Fatalf("unexpected detail %+v", detail)
	}

	if _, err := index.ResolveDetail(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if got := index.Entries(); len(got) != 1 || index.Err() != nil {
		t.Fatalf("detail failure corrupted list: %+v err=%v", got, index.Err())
	}
}
