package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoActiveSession is returned when an answer arrives before any quiz is loaded.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrQuestionOutOfRange indicates a question index outside the quiz.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrOptionNotFound indicates a selected option is not one of the question's options.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAlreadyRevealed is returned when a revealed question is changed.
	ErrAlreadyRevealed = errors.New("question already revealed")
	// ErrNoSelection is returned when a question is checked before an option is selected.
	ErrNoSelection = errors.New("no option selected")
	// ErrIncomplete is returned when submitting before every question is revealed.
	ErrIncomplete = errors.New("not all questions answered")
	// ErrAlreadySubmitted is returned for submissions after the attempt was recorded.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrSubmissionInFlight is returned while a previous submission is pending.
	ErrSubmissionInFlight = errors.New("submission in progress")
	// ErrEmptyURL indicates a generation request without a source URL.
	ErrEmptyURL = errors.New("source url is required")
	// ErrInvalidDifficulty indicates an unknown generation difficulty.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrSessionMismatch indicates persisted state that does not fit the quiz.
	ErrSessionMismatch = errors.New("saved session does not match quiz")
)
