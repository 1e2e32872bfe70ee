package memory

import (
	"context"
	"sync"

	"article-quiz-client/internal/app"
	"article-quiz-client/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Progress survives switching quizzes but not a process restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.QuizID]app.SavedSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.QuizID]app.SavedSession),
	}
}

func (s *SessionStore) Load(_ context.Context, quizID domain.QuizID) (app.SavedSession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	saved, ok := s.sessions[quizID]
	if !ok {
		return app.SavedSession{}, false, nil
	}
	return cloneSaved(saved), true, nil
}

func (s *SessionStore) Save(_ context.Context, saved app.SavedSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[saved.QuizID] = cloneSaved(saved)
	return nil
}

func (s *SessionStore) Delete(_ context.Context, quizID domain.QuizID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, quizID)
	return nil
}

func cloneSaved(saved app.SavedSession) app.SavedSession {
	states := make([]app.AnswerState, len(saved.States))
	copy(states, saved.States)
	saved.States = states
	return saved
}
