package memory

import (
	"context"
	"testing"

	"article-quiz-client/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if _, ok, err := store.Load(ctx, "quiz-1"); ok || err != nil {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	saved := app.SavedSession{
		QuizID: "quiz-1",
		States: []app.AnswerState{{Status: app.StatusRevealed, Selected: "4"}},
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}
	saved.States[0].Selected = "mutated"

	loaded, ok, err := store.Load(ctx, "quiz-1")
	if err != nil || !ok {
		t.Fatalf("expected session present, ok=%v err=%v", ok, err)
	}
	if loaded.States[0].Selected != "4" {
		t.Fatalf("expected stored copy, got %+v", loaded.States)
	}

	if err := store.Delete(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "quiz-1"); ok {
		t.Fatalf("expected session removed")
	}
}
