package app

import "article-quiz-client/internal/domain"

// Score is the aggregate view of a session's answers.
type Score struct {
	Correct  int `json:"correctCount"`
	Answered int `json:"answeredCount"`
	Total    int `json:"totalQuestions"`
}

// AggregateScore counts answered and correct records against total questions.
// Records outside [0, total) are ignored.
func AggregateScore(records []domain.AnswerRecord, total int) Score {
	score := Score{Total: total}
	for _, record := range records {
		if record.QuestionIndex < 0 || record.QuestionIndex >= total {
			continue
		}
		score.Answered++
		if record.IsCorrect {
			score.Correct++
		}
	}
	return score
}

// Complete reports whether every question has been answered.
func (s Score) Complete() bool {
	return s.Answered == s.Total
}

// Progress is the answered fraction in [0, 1]; zero when the quiz has no questions.
func (s Score) Progress() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Answered) / float64(s.Total)
}

// Ratio is the correct fraction in [0, 1] used for the score bar; zero when the quiz has no questions.
func (s Score) Ratio() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}
