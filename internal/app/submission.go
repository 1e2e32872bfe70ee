package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"article-quiz-client/internal/domain"
)

// AttemptRecorder persists a finished attempt (the backend's attempts endpoint).
type AttemptRecorder interface {
	SubmitAttempt(ctx context.Context, sessionID string, attempt domain.AttemptSubmission) error
}

// SubmissionGate allows at most one successful submission per session.
// A failed submission leaves the session unsubmitted and may be retried.
type SubmissionGate struct {
	session  *Session
	recorder AttemptRecorder
	logger   *slog.Logger

	mu       sync.Mutex
	inFlight bool
}

func NewSubmissionGate(session *Session, recorder AttemptRecorder, logger *slog.Logger) *SubmissionGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionGate{session: session, recorder: recorder, logger: logger}
}

// Eligible reports whether Submit would send the attempt now.
func (g *SubmissionGate) Eligible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := g.session.Snapshot()
	return !g.inFlight && !snap.Submitted && snap.Score.Complete()
}

// Pending reports whether a submission is waiting on the recorder.
func (g *SubmissionGate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Submit records the attempt once every question is revealed. After a success,
// further calls return ErrAlreadySubmitted without contacting the recorder.
func (g *SubmissionGate) Submit(ctx context.Context) (domain.AttemptSubmission, error) {
	g.mu.Lock()
	snap := g.session.Snapshot()
	switch {
	case snap.Submitted:
		g.mu.Unlock()
		return domain.AttemptSubmission{}, domain.ErrAlreadySubmitted
	case g.inFlight:
		g.mu.Unlock()
		return domain.AttemptSubmission{}, domain.ErrSubmissionInFlight
	case !snap.Score.Complete():
		g.mu.Unlock()
		return domain.AttemptSubmission{}, fmt.Errorf("%w (%d/%d)", domain.ErrIncomplete, snap.Score.Answered, snap.Score.Total)
	}
	g.inFlight = true
	g.mu.Unlock()

	attempt := BuildAttempt(snap)
	err := g.recorder.SubmitAttempt(ctx, snap.SessionID, attempt)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
	if err != nil {
		g.logger.Warn("failed to save score",
			"quiz_id", snap.QuizID,
			"session_id", snap.SessionID,
			"error", err)
		return domain.AttemptSubmission{}, fmt.Errorf("save score: %w", err)
	}
	g.session.markSubmitted()
	g.logger.Info("score saved",
		"quiz_id", snap.QuizID,
		"session_id", snap.SessionID,
		"score", attempt.Score,
		"max_score", attempt.MaxScore)
	return attempt, nil
}

// BuildAttempt constructs the submission payload from a complete snapshot,
// one detail per question in ascending index order.
func BuildAttempt(snap Snapshot) domain.AttemptSubmission {
	details := make([]domain.AnswerRecord, len(snap.Records))
	copy(details, snap.Records)
	return domain.AttemptSubmission{
		QuizID:   snap.QuizID,
		Score:    snap.Score.Correct,
		MaxScore: snap.Score.Total,
		Details:  details,
	}
}
