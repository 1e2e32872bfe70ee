package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Difficulty labels a question or a generation request.
type Difficulty string

const (
	DifficultyRandom Difficulty = "random"
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// GenerationLevels lists the difficulties accepted by quiz generation, in display order.
var GenerationLevels = []Difficulty{DifficultyRandom, DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty validates a generation difficulty. Empty input means random.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	if d == "" {
		return DifficultyRandom, nil
	}
	for _, level := range GenerationLevels {
		if d == level {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, raw)
}

// Label is the display label of a question difficulty; unset falls back to medium.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return string(d)
	default:
		return string(DifficultyMedium)
	}
}

// QuizID identifies a quiz. The backend may send it as a JSON number or string.
type QuizID string

func (id *QuizID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuizID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quiz id: %w", err)
	}
	*id = QuizID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so the backend sees the type it issued.
func (id QuizID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id QuizID) String() string {
	return string(id)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp accepts RFC3339 as well as the naive ISO forms some backends emit.
// Naive values are read as UTC.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses raw with the accepted layouts.
func ParseTimestamp(raw string) (Timestamp, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unsupported timestamp %q", raw)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Question is one multiple-choice question. The correct option is matched by value.
type Question struct {
	Prompt      string     `json:"question"`
	Options     []string   `json:"options"`
	Answer      string     `json:"answer"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	Explanation string     `json:"explanation"`
}

// IsCorrect reports whether option is the question's answer.
func (q Question) IsCorrect(option string) bool {
	return option == q.Answer
}

// HasOption reports whether option is one of the listed options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// KeyEntities groups the named entities extracted from the article.
type KeyEntities struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
}

// Quiz is a generated quiz plus the article metadata it came with.
type Quiz struct {
	ID            QuizID      `json:"id"`
	Title         string      `json:"title"`
	URL           string      `json:"url"`
	Summary       string      `json:"summary"`
	Sections      []string    `json:"sections"`
	KeyEntities   KeyEntities `json:"key_entities"`
	RelatedTopics []string    `json:"related_topics"`
	Questions     []Question  `json:"quiz"`
	CreatedAt     Timestamp   `json:"created_at"`
	TopScore      *int        `json:"top_score,omitempty"`
}

// HistoryEntry is the listing view of a previously generated quiz.
type HistoryEntry struct {
	ID        QuizID    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt Timestamp `json:"created_at"`
	TopScore  *int      `json:"top_score,omitempty"`
}

// Entry returns the listing view of q.
func (q Quiz) Entry() HistoryEntry {
	return HistoryEntry{
		ID:        q.ID,
		Title:     q.Title,
		URL:       q.URL,
		CreatedAt: q.CreatedAt,
		TopScore:  q.TopScore,
	}
}

// AnswerRecord is the outcome of a revealed question. IsCorrect is always derived.
type AnswerRecord struct {
	QuestionIndex int    `json:"question_index"`
	Selected      string `json:"selected_option"`
	IsCorrect     bool   `json:"is_correct"`
}

// AttemptSubmission is the payload recorded once per completed session.
type AttemptSubmission struct {
	QuizID   QuizID         `json:"quiz_id"`
	Score    int            `json:"score"`
	MaxScore int            `json:"max_score"`
	Details  []AnswerRecord `json:"details"`
}
