package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"article-quiz-client/internal/app"
	"article-quiz-client/internal/domain"
	transport "article-quiz-client/internal/transport/http"
)

const (
	maxSections = 5
	barWidth    = 20
)

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  login <email> <password>")
	fmt.Fprintln(out, "  register <email> <password> <confirm>")
	fmt.Fprintln(out, "  logout")
	fmt.Fprintln(out, "  generate <url> [random|easy|medium|hard]")
	fmt.Fprintln(out, "  show")
	fmt.Fprintln(out, "  select <question> <option letter or text>")
	fmt.Fprintln(out, "  check <question>")
	fmt.Fprintln(out, "  score")
	fmt.Fprintln(out, "  submit")
	fmt.Fprintln(out, "  history [search]")
	fmt.Fprintln(out, "  open <quiz_id>")
	fmt.Fprintln(out, "  replay <quiz_id>")
	fmt.Fprintln(out, "  resume <quiz_id>")
	fmt.Fprintln(out, "  exit")
}

// printQuizHeader shows the article metadata that came with a quiz.
func printQuizHeader(out io.Writer, quiz domain.Quiz) {
	fmt.Fprintln(out, quiz.Title)
	if quiz.URL != "" {
		fmt.Fprintln(out, quiz.URL)
	}
	if quiz.Summary != "" {
		fmt.Fprintf(out, "\n%s\n", quiz.Summary)
	}
	if len(quiz.Sections) > 0 {
		sections := quiz.Sections
		if len(sections) > maxSections {
			sections = sections[:maxSections]
		}
		fmt.Fprintf(out, "Sections: %s\n", strings.Join(sections, ", "))
	}
	printGroup(out, "People", quiz.KeyEntities.People)
	printGroup(out, "Organizations", quiz.KeyEntities.Organizations)
	printGroup(out, "Locations", quiz.KeyEntities.Locations)
	printGroup(out, "Related topics", quiz.RelatedTopics)
}

func printGroup(out io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", label, strings.Join(items, ", "))
}

func printSession(out io.Writer, session *app.Session) {
	quiz := session.Quiz()
	printQuizHeader(out, quiz)
	fmt.Fprintln(out)
	for i := range quiz.Questions {
		printQuestion(out, session, i)
	}
	printScoreCard(out, session.Score(), session.Submitted())
}

func printQuestion(out io.Writer, session *app.Session, index int) {
	question := session.Quiz().Questions[index]
	state, err := session.State(index)
	if err != nil {
		return
	}
	fmt.Fprintf(out, "%d. [%s] %s\n", index+1, question.Difficulty.Label(), question.Prompt)
	for i, option := range question.Options {
		marker := " "
		if state.Status != app.StatusUnanswered && state.Selected == option {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %c) %s\n", marker, optionLetter(i), option)
	}
	if state.Status == app.StatusRevealed {
		if question.IsCorrect(state.Selected) {
			fmt.Fprintln(out, "  Correct!")
		} else {
			fmt.Fprintf(out, "  Incorrect. Answer: %s\n", question.Answer)
		}
		if question.Explanation != "" {
			fmt.Fprintf(out, "  %s\n", question.Explanation)
		}
	}
}

// scoreCardAction is the label of the submit control for the current state.
func scoreCardAction(score app.Score, submitted bool) string {
	switch {
	case submitted:
		return "Score Saved Successfully!"
	case score.Complete():
		return "Save Score"
	default:
		return fmt.Sprintf("Answer All (%d/%d)", score.Answered, score.Total)
	}
}

func printScoreCard(out io.Writer, score app.Score, submitted bool) {
	filled := int(score.Ratio()*barWidth + 0.5)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
	fmt.Fprintf(out, "Score: %d/%d [%s] %s\n", score.Correct, score.Total, bar, scoreCardAction(score, submitted))
}

func printHistory(out io.Writer, entries []domain.HistoryEntry, empty bool) {
	if empty {
		fmt.Fprintln(out, "No quizzes yet.")
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No quizzes match your search.")
		return
	}
	for _, entry := range entries {
		best := "No attempts"
		if entry.TopScore != nil {
			best = fmt.Sprintf("Best: %d", *entry.TopScore)
		}
		created := "unknown date"
		if !entry.CreatedAt.IsZero() {
			created = entry.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(out, "[%s] %s (%s, %s)\n", entry.ID, entry.Title, created, best)
		if entry.URL != "" {
			fmt.Fprintf(out, "    %s\n", entry.URL)
		}
	}
}

func optionLetter(index int) rune {
	return rune('A' + index)
}

// resolveOption accepts an option letter (A, b, ...) or the option text itself.
func resolveOption(question domain.Question, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if question.HasOption(raw) {
		return raw, true
	}
	if len(raw) == 1 {
		index := int(strings.ToUpper(raw)[0]) - 'A'
		if index >= 0 && index < len(question.Options) {
			return question.Options[index], true
		}
	}
	for _, option := range question.Options {
		if strings.EqualFold(option, raw) {
			return option, true
		}
	}
	return "", false
}

func describeClientError(err error, baseURL string) error {
	if errors.Is(err, transport.ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", baseURL)
	}
	return err
}
