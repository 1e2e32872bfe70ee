package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"article-quiz-client/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Archive keeps a local copy of generated quizzes and their best scores in Postgres.
// It serves history listing and detail when the backend is unreachable.
type Archive struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool, now: time.Now}
}

// SaveQuiz upserts a quiz. An existing best score is kept unless the quiz carries a higher one.
func (a *Archive) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	createdAt := quiz.CreatedAt.Time
	if createdAt.IsZero() {
		createdAt = a.now()
	}
	_, err = a.pool.Exec(ctx, `
		INSERT INTO quizzes (id, title, url, created_at, top_score, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			data = EXCLUDED.data,
			top_score = GREATEST(quizzes.top_score, EXCLUDED.top_score)`,
		string(quiz.ID), quiz.Title, quiz.URL, createdAt, quiz.TopScore, data)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

// RecordScore raises the stored best score for a quiz.
func (a *Archive) RecordScore(ctx context.Context, quizID domain.QuizID, score int) error {
	tag, err := a.pool.Exec(ctx,
		`UPDATE quizzes SET top_score = GREATEST(COALESCE(top_score, $2), $2) WHERE id = $1`,
		string(quizID), score)
	if err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// LoadQuiz returns an archived quiz with its current best score.
func (a *Archive) LoadQuiz(ctx context.Context, quizID domain.QuizID) (domain.Quiz, error) {
	var (
		raw       []byte
		createdAt time.Time
		topScore  *int
	)
	err := a.pool.QueryRow(ctx,
		`SELECT data, created_at, top_score FROM quizzes WHERE id = $1`, string(quizID),
	).Scan(&raw, &createdAt, &topScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.ID = quizID
	quiz.CreatedAt = domain.Timestamp{Time: createdAt}
	quiz.TopScore = topScore
	return quiz, nil
}

// ListQuizzes returns the listing view of every archived quiz, newest first.
func (a *Archive) ListQuizzes(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT id, title, url, created_at, top_score FROM quizzes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			id        string
			entry     domain.HistoryEntry
			createdAt time.Time
		)
		if err := rows.Scan(&id, &entry.Title, &entry.URL, &createdAt, &entry.TopScore); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		entry.ID = domain.QuizID(id)
		entry.CreatedAt = domain.Timestamp{Time: createdAt}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return entries, nil
}
