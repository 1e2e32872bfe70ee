package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"article-quiz-client/internal/app"
	"article-quiz-client/internal/auth"
	"article-quiz-client/internal/config"
	"article-quiz-client/internal/infra/memory"
	"article-quiz-client/internal/infra/postgres"
	redisstore "article-quiz-client/internal/infra/redis"
	"article-quiz-client/internal/logger"
	transport "article-quiz-client/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// deps is everything a command needs, built once from config.
type deps struct {
	cfg     config.Config
	logger  *slog.Logger
	creds   *auth.Context
	client  *transport.Client
	auth    *auth.Service
	quizzes app.QuizRepository

	sessions app.SessionRepository
	archive  *postgres.Archive

	requestTimeout  time.Duration
	generateTimeout time.Duration

	closers []func()
}

func loadDeps(ctx context.Context, path string, logOut io.Writer) (*deps, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return buildDeps(ctx, cfg, logOut, nil)
}

// buildDeps wires the API client, caches and optional Redis/Postgres backends.
// httpClient may be nil.
func buildDeps(ctx context.Context, cfg config.Config, logOut io.Writer, httpClient *http.Client) (*deps, error) {
	log := logger.Init(logOut, cfg.Log.Level, cfg.Log.Format)

	var store auth.Store = auth.NewMemoryStore()
	if cfg.Auth.TokenFile != "" {
		store = auth.NewFileStore(cfg.Auth.TokenFile)
	}
	creds := auth.NewContext(store)

	if httpClient == nil {
		httpClient = &http.Client{}
	}
	client := transport.NewClient(cfg.API.URL, httpClient, creds, log)

	d := &deps{
		cfg:             cfg,
		logger:          log,
		creds:           creds,
		client:          client,
		auth:            auth.NewService(client, creds, log),
		requestTimeout:  config.TTLDuration(cfg.API.Timeout, 30*time.Second),
		generateTimeout: config.TTLDuration(cfg.API.GenerateTimeout, 2*time.Minute),
	}

	detailTTL := config.TTLDuration(cfg.History.DetailTTL, 5*time.Minute)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = redisClient.Close() })
		d.quizzes = redisstore.NewQuizRepository(redisClient, client, detailTTL)
		d.sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))
	} else {
		d.quizzes = memory.NewQuizRepository(client, detailTTL)
		d.sessions = memory.NewSessionStore()
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		d.archive = postgres.NewArchive(pool)
	}
	return d, nil
}

func (d *deps) player() *app.Player {
	playerDeps := app.PlayerDeps{
		Generator: d.client,
		Recorder:  d.client,
		Quizzes:   d.quizzes,
		Sessions:  d.sessions,
		Logger:    d.logger,
	}
	if d.archive != nil {
		playerDeps.Archive = d.archive
	}
	return app.NewPlayer(playerDeps)
}

// history lists from the backend, or from the local archive when offline.
func (d *deps) history(offline bool) *app.HistoryIndex {
	if offline && d.archive != nil {
		return app.NewHistoryIndex(d.archive, memory.NewQuizRepository(d.archive, 0), d.logger)
	}
	return app.NewHistoryIndex(d.client, d.quizzes, d.logger)
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}
