package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"article-quiz-client/internal/app"
	"article-quiz-client/internal/auth"
	"article-quiz-client/internal/domain"
)

// repl is the interactive front end over a Player and a HistoryIndex.
type repl struct {
	player  *app.Player
	history *app.HistoryIndex
	auth    *auth.Service
	baseURL string

	requestTimeout  time.Duration
	generateTimeout time.Duration
	now             func() time.Time
}

func newREPL(d *deps, player *app.Player) *repl {
	return &repl{
		player:          player,
		history:         d.history(false),
		auth:            d.auth,
		baseURL:         d.client.BaseURL(),
		requestTimeout:  d.requestTimeout,
		generateTimeout: d.generateTimeout,
		now:             time.Now,
	}
}

func (r *repl) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintf(out, "quizctl\nserver=%s\n", r.baseURL)
	if r.auth.Credentials().Authenticated(r.now()) {
		fmt.Fprintln(out, "signed in")
	} else {
		fmt.Fprintln(out, "not signed in")
	}
	fmt.Fprintln(out)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(out)
				return nil
			}
			continue
		}
		args := strings.Fields(line)
		command := strings.ToLower(args[0])
		if command == "exit" || command == "quit" {
			return nil
		}
		if err := r.dispatch(ctx, out, command, args[1:]); err != nil {
			fmt.Fprintf(out, "error: %v\n", describeClientError(err, r.baseURL))
		}
		if eof || ctx.Err() != nil {
			return nil
		}
	}
}

func (r *repl) dispatch(ctx context.Context, out io.Writer, command string, args []string) error {
	switch command {
	case "help":
		printHelp(out)
	case "login":
		if len(args) != 2 {
			fmt.Fprintln(out, "usage: login <email> <password>")
			return nil
		}
		return r.login(ctx, out, args[0], args[1])
	case "register":
		if len(args) != 3 {
			fmt.Fprintln(out, "usage: register <email> <password> <confirm>")
			return nil
		}
		return r.register(ctx, out, args[0], args[1], args[2])
	case "logout":
		if err := r.auth.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Signed out.")
	case "generate":
		if len(args) < 1 || len(args) > 2 {
			fmt.Fprintln(out, "usage: generate <url> [random|easy|medium|hard]")
			return nil
		}
		difficulty := domain.DifficultyRandom
		if len(args) == 2 {
			difficulty = domain.Difficulty(strings.ToLower(args[1]))
		}
		return r.generate(ctx, out, args[0], difficulty)
	case "show":
		session := r.player.Current()
		if session == nil {
			return domain.ErrNoActiveSession
		}
		printSession(out, session)
	case "select":
		if len(args) < 2 {
			fmt.Fprintln(out, "usage: select <question> <option letter or text>")
			return nil
		}
		return r.selectOption(ctx, out, args[0], strings.Join(args[1:], " "))
	case "check":
		if len(args) != 1 {
			fmt.Fprintln(out, "usage: check <question>")
			return nil
		}
		return r.check(ctx, out, args[0])
	case "score":
		session := r.player.Current()
		if session == nil {
			return domain.ErrNoActiveSession
		}
		printScoreCard(out, session.Score(), session.Submitted())
	case "submit":
		return r.submit(ctx, out)
	case "history":
		return r.listHistory(ctx, out, strings.Join(args, " "))
	case "open":
		if len(args) != 1 {
			fmt.Fprintln(out, "usage: open <quiz_id>")
			return nil
		}
		return r.open(ctx, out, domain.QuizID(args[0]))
	case "replay", "resume":
		if len(args) != 1 {
			fmt.Fprintf(out, "usage: %s <quiz_id>\n", command)
			return nil
		}
		return r.restart(ctx, out, command, domain.QuizID(args[0]))
	default:
		fmt.Fprintln(out, "unknown command. type 'help' for usage.")
	}
	return nil
}

func (r *repl) login(ctx context.Context, out io.Writer, email, password string) error {
	callCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()
	if err := r.auth.Login(callCtx, email, password); err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s.\n", email)
	return nil
}

func (r *repl) register(ctx context.Context, out io.Writer, email, password, confirm string) error {
	callCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()
	if err := r.auth.Register(callCtx, email, password, confirm); err != nil {
		return err
	}
	fmt.Fprintf(out, "Registered and signed in as %s.\n", email)
	return nil
}

func (r *repl) generate(ctx context.Context, out io.Writer, url string, difficulty domain.Difficulty) error {
	callCtx, cancel := context.WithTimeout(ctx, r.generateTimeout)
	defer cancel()

	fmt.Fprintln(out, "Generating quiz...")
	session, err := r.player.Generate(callCtx, url, difficulty)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	printSession(out, session)
	return nil
}

func (r *repl) selectOption(ctx context.Context, out io.Writer, rawIndex, rawOption string) error {
	session := r.player.Current()
	if session == nil {
		return domain.ErrNoActiveSession
	}
	index, err := parseQuestion(rawIndex, len(session.Quiz().Questions))
	if err != nil {
		return err
	}
	option, ok := resolveOption(session.Quiz().Questions[index], rawOption)
	if !ok {
		option = rawOption
	}
	if err := r.player.Select(ctx, index, option); err != nil {
		return err
	}
	fmt.Fprintf(out, "Question %d: selected %s\n", index+1, option)
	return nil
}

func (r *repl) check(ctx context.Context, out io.Writer, rawIndex string) error {
	session := r.player.Current()
	if session == nil {
		return domain.ErrNoActiveSession
	}
	index, err := parseQuestion(rawIndex, len(session.Quiz().Questions))
	if err != nil {
		return err
	}
	if _, err := r.player.Check(ctx, index); err != nil {
		return err
	}
	printQuestion(out, session, index)
	printScoreCard(out, session.Score(), session.Submitted())
	return nil
}

func (r *repl) submit(ctx context.Context, out io.Writer) error {
	callCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	attempt, err := r.player.Submit(callCtx)
	switch {
	case errors.Is(err, domain.ErrIncomplete):
		if session := r.player.Current(); session != nil {
			fmt.Fprintln(out, scoreCardAction(session.Score(), false))
		}
		return nil
	case errors.Is(err, domain.ErrAlreadySubmitted):
		fmt.Fprintln(out, "Score Saved Successfully!")
		return nil
	case err != nil && !app.IsUserError(err):
		fmt.Fprintf(out, "Failed to save score. Run 'submit' to try again.\n")
		return err
	case err != nil:
		return err
	}
	fmt.Fprintf(out, "Score Saved Successfully! (%d/%d)\n", attempt.Score, attempt.MaxScore)
	return nil
}

func (r *repl) listHistory(ctx context.Context, out io.Writer, term string) error {
	callCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	if err := r.history.Load(callCtx); err != nil {
		fmt.Fprintln(out, "Failed to load history.")
		return err
	}
	printHistory(out, r.history.Filter(term), r.history.Empty())
	return nil
}

func (r *repl) open(ctx context.Context, out io.Writer, id domain.QuizID) error {
	callCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	quiz, err := r.history.ResolveDetail(callCtx, id)
	if err != nil {
		fmt.Fprintln(out, "Failed to load details")
		return err
	}
	printQuizHeader(out, quiz)
	fmt.Fprintf(out, "%d questions. Run 'replay %s' to take it again or 'resume %s' to continue.\n", len(quiz.Questions), id, id)
	return nil
}

func (r *repl) restart(ctx context.Context, out io.Writer, command string, id domain.QuizID) error {
	callCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	var (
		session *app.Session
		err     error
	)
	if command == "resume" {
		session, err = r.player.Resume(callCtx, id)
	} else {
		session, err = r.player.Replay(callCtx, id)
	}
	if err != nil {
		return err
	}
	printSession(out, session)
	return nil
}

// parseQuestion converts a 1-based question number into an index.
func parseQuestion(raw string, total int) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("question must be a number, got %q", raw)
	}
	if n < 1 || n > total {
		return 0, fmt.Errorf("question %d: %w", n, domain.ErrQuestionOutOfRange)
	}
	return n - 1, nil
}
