package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"article-quiz-client/internal/domain"
)

// QuizGenerator turns a source URL into a quiz (the backend's generation endpoint).
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, url string, difficulty domain.Difficulty) (domain.Quiz, error)
}

// SessionRepository abstracts where session progress is kept between runs (in-memory, Redis, etc).
type SessionRepository interface {
	Load(ctx context.Context, quizID domain.QuizID) (SavedSession, bool, error)
	Save(ctx context.Context, saved SavedSession) error
	Delete(ctx context.Context, quizID domain.QuizID) error
}

// Archive mirrors generated quizzes and best scores into a local store.
type Archive interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	RecordScore(ctx context.Context, quizID domain.QuizID, score int) error
}

// Invalidator is implemented by quiz repositories that cache detail.
type Invalidator interface {
	Invalidate(ctx context.Context, quizID domain.QuizID)
}

// ScoreUpdate is broadcast to subscribers after every session transition.
type ScoreUpdate struct {
	Event     string               `json:"event"`
	QuizID    domain.QuizID        `json:"quizId"`
	Title     string               `json:"title"`
	SessionID string               `json:"sessionId"`
	Score     Score                `json:"score"`
	Eligible  bool                 `json:"eligible"`
	Submitted bool                 `json:"submitted"`
	Record    *domain.AnswerRecord `json:"record,omitempty"`
}

const (
	EventStarted   = "started"
	EventSelected  = "selected"
	EventRevealed  = "revealed"
	EventSubmitted = "submitted"
)

// PlayerDeps wires the Player to its collaborators. Sessions and Archive are optional.
type PlayerDeps struct {
	Generator QuizGenerator
	Recorder  AttemptRecorder
	Quizzes   QuizRepository
	Sessions  SessionRepository
	Archive   Archive
	Logger    *slog.Logger
}

// Player owns the active quiz-taking flow: one session at a time and its submission gate.
type Player struct {
	deps   PlayerDeps
	logger *slog.Logger

	mu          sync.RWMutex
	session     *Session
	gate        *SubmissionGate
	subscribers map[chan ScoreUpdate]struct{}
}

func NewPlayer(deps PlayerDeps) *Player {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		deps:        deps,
		logger:      logger,
		subscribers: make(map[chan ScoreUpdate]struct{}),
	}
}

// Generate requests a new quiz and starts a session for it. On failure the
// current session, if any, is left untouched.
func (p *Player) Generate(ctx context.Context, url string, difficulty domain.Difficulty) (*Session, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, domain.ErrEmptyURL
	}
	level, err := domain.ParseDifficulty(string(difficulty))
	if err != nil {
		return nil, err
	}

	quiz, err := p.deps.Generator.GenerateQuiz(ctx, url, level)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	if p.deps.Archive != nil {
		if err := p.deps.Archive.SaveQuiz(ctx, quiz); err != nil {
			p.logger.Warn("failed to archive quiz", "quiz_id", quiz.ID, "error", err)
		}
	}
	return p.start(NewSession(quiz)), nil
}

// Replay starts a fresh attempt at a quiz from history.
func (p *Player) Replay(ctx context.Context, quizID domain.QuizID) (*Session, error) {
	quiz, err := p.deps.Quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if p.deps.Sessions != nil {
		if err := p.deps.Sessions.Delete(ctx, quizID); err != nil {
			p.logger.Warn("failed to clear saved session", "quiz_id", quizID, "error", err)
		}
	}
	return p.start(NewSession(quiz)), nil
}

// Resume continues a saved attempt, or starts a fresh one when nothing was saved.
func (p *Player) Resume(ctx context.Context, quizID domain.QuizID) (*Session, error) {
	quiz, err := p.deps.Quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	session := NewSession(quiz)
	if p.deps.Sessions != nil {
		saved, ok, err := p.deps.Sessions.Load(ctx, quizID)
		switch {
		case err != nil:
			p.logger.Warn("failed to load saved session", "quiz_id", quizID, "error", err)
		case ok:
			restored, rerr := RestoreSession(quiz, saved)
			if rerr != nil {
				p.logger.Warn("discarding saved session", "quiz_id", quizID, "error", rerr)
			} else {
				session = restored
			}
		}
	}
	return p.start(session), nil
}

// Current returns the active session, or nil.
func (p *Player) Current() *Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// Eligible reports whether the active session may be submitted.
func (p *Player) Eligible() bool {
	p.mu.RLock()
	gate := p.gate
	p.mu.RUnlock()
	return gate != nil && gate.Eligible()
}

// Select records a pending choice on the active session.
func (p *Player) Select(ctx context.Context, index int, option string) error {
	session, _, err := p.active()
	if err != nil {
		return err
	}
	if err := session.Select(index, option); err != nil {
		return err
	}
	p.persist(ctx, session)
	p.broadcast(p.update(EventSelected, session, nil))
	return nil
}

// Check reveals a question on the active session.
func (p *Player) Check(ctx context.Context, index int) (domain.AnswerRecord, error) {
	session, _, err := p.active()
	if err != nil {
		return domain.AnswerRecord{}, err
	}
	record, err := session.Check(index)
	if err != nil {
		return domain.AnswerRecord{}, err
	}
	p.persist(ctx, session)
	p.broadcast(p.update(EventRevealed, session, &record))
	return record, nil
}

// Submit records the active attempt through the submission gate.
func (p *Player) Submit(ctx context.Context) (domain.AttemptSubmission, error) {
	session, gate, err := p.active()
	if err != nil {
		return domain.AttemptSubmission{}, err
	}
	attempt, err := gate.Submit(ctx)
	if err != nil {
		return domain.AttemptSubmission{}, err
	}

	quizID := session.Quiz().ID
	if p.deps.Archive != nil {
		if err := p.deps.Archive.RecordScore(ctx, quizID, attempt.Score); err != nil {
			p.logger.Warn("failed to archive score", "quiz_id", quizID, "error", err)
		}
	}
	// cached detail carries a stale top score
	if inv, ok := p.deps.Quizzes.(Invalidator); ok {
		inv.Invalidate(ctx, quizID)
	}
	p.persist(ctx, session)
	p.broadcast(p.update(EventSubmitted, session, nil))
	return attempt, nil
}

// Subscribe returns a channel that receives score updates for the active session.
// The caller must invoke the returned cancel function to avoid leaks.
func (p *Player) Subscribe() (<-chan ScoreUpdate, func()) {
	ch := make(chan ScoreUpdate, 8)

	if session := p.Current(); session != nil {
		ch <- p.update(EventStarted, session, nil)
	}

	p.mu.Lock()
	p.subscribers[ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subscribers[ch]; ok {
			delete(p.subscribers, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

func (p *Player) start(session *Session) *Session {
	p.mu.Lock()
	p.session = session
	p.gate = NewSubmissionGate(session, p.deps.Recorder, p.logger)
	p.mu.Unlock()

	p.logger.Info("quiz session started",
		"quiz_id", session.Quiz().ID,
		"session_id", session.ID(),
		"questions", len(session.Quiz().Questions))
	p.broadcast(p.update(EventStarted, session, nil))
	return session
}

func (p *Player) active() (*Session, *SubmissionGate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		return nil, nil, domain.ErrNoActiveSession
	}
	return p.session, p.gate, nil
}

func (p *Player) persist(ctx context.Context, session *Session) {
	if p.deps.Sessions == nil {
		return
	}
	if err := p.deps.Sessions.Save(ctx, session.Save()); err != nil {
		p.logger.Warn("failed to save session progress", "quiz_id", session.Quiz().ID, "error", err)
	}
}

func (p *Player) update(event string, session *Session, record *domain.AnswerRecord) ScoreUpdate {
	snap := session.Snapshot()
	eligible := false
	p.mu.RLock()
	if p.session == session && p.gate != nil {
		eligible = p.gate.Eligible()
	}
	p.mu.RUnlock()
	return ScoreUpdate{
		Event:     event,
		QuizID:    snap.QuizID,
		Title:     session.Quiz().Title,
		SessionID: snap.SessionID,
		Score:     snap.Score,
		Eligible:  eligible,
		Submitted: snap.Submitted,
		Record:    record,
	}
}

func (p *Player) broadcast(update ScoreUpdate) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for ch := range p.subscribers {
		select {
		case ch <- update:
		default:
			// drop the oldest pending update so slow subscribers see the latest score
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- update:
			default:
			}
		}
	}
}

// IsUserError reports whether err stems from an invalid user action rather than a collaborator failure.
func IsUserError(err error) bool {
	for _, target := range []error{
		domain.ErrNoActiveSession,
		domain.ErrQuestionOutOfRange,
		domain.ErrOptionNotFound,
		domain.ErrAlreadyRevealed,
		domain.ErrNoSelection,
		domain.ErrIncomplete,
		domain.ErrAlreadySubmitted,
		domain.ErrSubmissionInFlight,
		domain.ErrEmptyURL,
		domain.ErrInvalidDifficulty,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
