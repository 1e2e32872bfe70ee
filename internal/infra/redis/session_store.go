package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"article-quiz-client/internal/app"
	"article-quiz-client/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-backed implementation of app.SessionRepository.
// Each quiz's progress is one JSON value that expires after ttl of inactivity,
// so an attempt can be resumed after the process restarts.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, quizID domain.QuizID) (app.SavedSession, bool, error) {
	raw, err := s.client.Get(ctx, s.key(quizID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return app.SavedSession{}, false, nil
	}
	if err != nil {
		return app.SavedSession{}, false, fmt.Errorf("load session: %w", err)
	}
	var saved app.SavedSession
	if err := json.Unmarshal(raw, &saved); err != nil {
		return app.SavedSession{}, false, fmt.Errorf("decode session: %w", err)
	}
	return saved, true, nil
}

func (s *SessionStore) Save(ctx context.Context, saved app.SavedSession) error {
	raw, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(saved.QuizID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, quizID domain.QuizID) error {
	return s.client.Del(ctx, s.key(quizID)).Err()
}

func (s *SessionStore) key(quizID domain.QuizID) string {
	return "quiz:session:" + string(quizID)
}
