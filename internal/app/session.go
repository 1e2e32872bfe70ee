package app

import (
	"fmt"
	"sync"
	"time"

	"article-quiz-client/internal/domain"
	"github.com/google/uuid"
)

// AnswerStatus is the per-question state of a session.
type AnswerStatus int

const (
	StatusUnanswered AnswerStatus = iota
	StatusSelected
	StatusRevealed
)

func (s AnswerStatus) String() string {
	switch s {
	case StatusSelected:
		return "selected"
	case StatusRevealed:
		return "revealed"
	default:
		return "unanswered"
	}
}

// AnswerState is the tagged union {Unanswered | Selected(option) | Revealed(option)}.
// Correctness is not stored; it is derived from the question whenever needed.
type AnswerState struct {
	Status   AnswerStatus `json:"status"`
	Selected string       `json:"selected,omitempty"`
}

// SavedSession is the persisted form of a session, keyed by quiz id.
type SavedSession struct {
	QuizID    domain.QuizID `json:"quizId"`
	States    []AnswerState `json:"states"`
	Submitted bool          `json:"submitted"`
	SavedAt   time.Time     `json:"savedAt"`
}

// Snapshot is an immutable copy of a session taken at call time.
type Snapshot struct {
	SessionID string
	QuizID    domain.QuizID
	States    []AnswerState
	Records   []domain.AnswerRecord
	Score     Score
	Submitted bool
}

// Session holds the in-memory state of one attempt at a quiz.
type Session struct {
	id        string
	quiz      domain.Quiz
	now       func() time.Time
	mu        sync.RWMutex
	states    []AnswerState
	submitted bool
}

// NewSession starts a fresh attempt with every question unanswered.
func NewSession(quiz domain.Quiz) *Session {
	return newSessionWithClock(quiz, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(quiz domain.Quiz, now func() time.Time) *Session {
	return newSessionWithClock(quiz, now)
}

func newSessionWithClock(quiz domain.Quiz, now func() time.Time) *Session {
	return &Session{
		id:     uuid.NewString(),
		quiz:   quiz,
		now:    now,
		states: make([]AnswerState, len(quiz.Questions)),
	}
}

// RestoreSession rehydrates a persisted attempt. Selections that are no longer
// valid options are dropped back to unanswered.
func RestoreSession(quiz domain.Quiz, saved SavedSession) (*Session, error) {
	if saved.QuizID != quiz.ID || len(saved.States) != len(quiz.Questions) {
		return nil, fmt.Errorf("%w: quiz %s", domain.ErrSessionMismatch, quiz.ID)
	}
	session := NewSession(quiz)
	for i, state := range saved.States {
		if state.Status == StatusUnanswered || !quiz.Questions[i].HasOption(state.Selected) {
			continue
		}
		session.states[i] = state
	}
	session.submitted = saved.Submitted && session.allRevealedLocked()
	return session, nil
}

// ID is the session instance id.
func (s *Session) ID() string {
	return s.id
}

// Quiz returns the quiz this session answers.
func (s *Session) Quiz() domain.Quiz {
	return s.quiz
}

// Select records a pending choice for a question that has not been revealed.
func (s *Session) Select(index int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	question, err := s.questionLocked(index)
	if err != nil {
		return err
	}
	if s.states[index].Status == StatusRevealed {
		return fmt.Errorf("question %d: %w", index+1, domain.ErrAlreadyRevealed)
	}
	if !question.HasOption(option) {
		return fmt.Errorf("question %d: %w: %q", index+1, domain.ErrOptionNotFound, option)
	}
	s.states[index] = AnswerState{Status: StatusSelected, Selected: option}
	return nil
}

// Check reveals a selected question and returns its record. Reveal is irreversible.
func (s *Session) Check(index int) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	question, err := s.questionLocked(index)
	if err != nil {
		return domain.AnswerRecord{}, err
	}
	state := s.states[index]
	switch state.Status {
	case StatusRevealed:
		return domain.AnswerRecord{}, fmt.Errorf("question %d: %w", index+1, domain.ErrAlreadyRevealed)
	case StatusUnanswered:
		return domain.AnswerRecord{}, fmt.Errorf("question %d: %w", index+1, domain.ErrNoSelection)
	}

	s.states[index] = AnswerState{Status: StatusRevealed, Selected: state.Selected}
	return domain.AnswerRecord{
		QuestionIndex: index,
		Selected:      state.Selected,
		IsCorrect:     question.IsCorrect(state.Selected),
	}, nil
}

// State returns the current state of one question.
func (s *Session) State(index int) (AnswerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.questionLocked(index); err != nil {
		return AnswerState{}, err
	}
	return s.states[index], nil
}

// Score recomputes the aggregate from the current states.
func (s *Session) Score() Score {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AggregateScore(s.recordsLocked(), len(s.quiz.Questions))
}

// Submitted reports whether the attempt has been recorded.
func (s *Session) Submitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitted
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.recordsLocked()
	states := make([]AnswerState, len(s.states))
	copy(states, s.states)
	return Snapshot{
		SessionID: s.id,
		QuizID:    s.quiz.ID,
		States:    states,
		Records:   records,
		Score:     AggregateScore(records, len(s.quiz.Questions)),
		Submitted: s.submitted,
	}
}

// Save returns the persisted form of the session.
func (s *Session) Save() SavedSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make([]AnswerState, len(s.states))
	copy(states, s.states)
	return SavedSession{
		QuizID:    s.quiz.ID,
		States:    states,
		Submitted: s.submitted,
		SavedAt:   s.now(),
	}
}

// markSubmitted flips the terminal submitted flag. It reports false if it was already set.
func (s *Session) markSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return false
	}
	s.submitted = true
	return true
}

func (s *Session) questionLocked(index int) (domain.Question, error) {
	if index < 0 || index >= len(s.quiz.Questions) {
		return domain.Question{}, fmt.Errorf("%w: %d", domain.ErrQuestionOutOfRange, index+1)
	}
	return s.quiz.Questions[index], nil
}

// recordsLocked derives records for revealed questions in ascending index order.
func (s *Session) recordsLocked() []domain.AnswerRecord {
	records := make([]domain.AnswerRecord, 0, len(s.states))
	for i, state := range s.states {
		if state.Status != StatusRevealed {
			continue
		}
		records = append(records, domain.AnswerRecord{
			QuestionIndex: i,
			Selected:      state.Selected,
			IsCorrect:     s.quiz.Questions[i].IsCorrect(state.Selected),
		})
	}
	return records
}

func (s *Session) allRevealedLocked() bool {
	for _, state := range s.states {
		if state.Status != StatusRevealed {
			return false
		}
	}
	return true
}
