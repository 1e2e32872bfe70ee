package app

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"article-quiz-client/internal/domain"
)

// QuizLister lists previously generated quizzes.
type QuizLister interface {
	ListQuizzes(ctx context.Context) ([]domain.HistoryEntry, error)
}

// QuizRepository loads full quiz detail (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID domain.QuizID) (domain.Quiz, error)
}

// HistoryIndex holds the quiz history list and resolves detail on demand.
type HistoryIndex struct {
	lister  QuizLister
	quizzes QuizRepository
	logger  *slog.Logger

	mu      sync.RWMutex
	entries []domain.HistoryEntry
	loaded  bool
	err     error
}

func NewHistoryIndex(lister QuizLister, quizzes QuizRepository, logger *slog.Logger) *HistoryIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryIndex{lister: lister, quizzes: quizzes, logger: logger}
}

// Load fetches the listing and orders it newest first. On failure the list is
// emptied and the error retained for display.
func (h *HistoryIndex) Load(ctx context.Context) error {
	entries, err := h.lister.ListQuizzes(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.loaded = true
	if err != nil {
		h.logger.Warn("failed to fetch history", "error", err)
		h.entries = nil
		h.err = err
		return err
	}

	sorted := make([]domain.HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time)
	})
	h.entries = sorted
	h.err = nil
	return nil
}

// Entries returns the loaded list, newest first.
func (h *HistoryIndex) Entries() []domain.HistoryEntry {
	return h.Filter("")
}

// Loaded reports whether Load has completed at least once.
func (h *HistoryIndex) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loaded
}

// Err returns the last listing error, if any.
func (h *HistoryIndex) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Empty reports whether there is no history at all, as opposed to no filter matches.
func (h *HistoryIndex) Empty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries) == 0
}

// Filter returns entries whose title or url contains term, case-insensitively.
// An empty term returns every entry.
func (h *HistoryIndex) Filter(term string) []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	needle := strings.ToLower(term)
	matches := make([]domain.HistoryEntry, 0, len(h.entries))
	for _, entry := range h.entries {
		if needle == "" ||
			strings.Contains(strings.ToLower(entry.Title), needle) ||
			strings.Contains(strings.ToLower(entry.URL), needle) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// ResolveDetail fetches one full quiz. The list is left untouched on failure.
func (h *HistoryIndex) ResolveDetail(ctx context.Context, id domain.QuizID) (domain.Quiz, error) {
	quiz, err := h.quizzes.GetQuiz(ctx, id)
	if err != nil {
		h.logger.Warn("failed to load details", "quiz_id", id, "error", err)
		return domain.Quiz{}, err
	}
	return quiz, nil
}
