package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	transport "article-quiz-client/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the interactive quiz session command.
func NewStartCmd(configPath *string) *cobra.Command {
	var feedAddr string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start an interactive quiz session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), *configPath, feedAddr, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&feedAddr, "feed-addr", "", "address for the websocket score feed (overrides feed.addr)")
	return cmd
}

func runStart(ctx context.Context, configPath, feedAddr string, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := loadDeps(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer d.Close()

	player := d.player()

	if feedAddr == "" {
		feedAddr = d.cfg.Feed.Addr
	}
	if feedAddr != "" {
		server := &http.Server{
			Addr:        feedAddr,
			Handler:     transport.NewScoreFeed(player, d.logger).Routes(),
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			d.logger.Info("starting score feed", "addr", feedAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("score feed stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	return newREPL(d, player).Run(ctx, in, out)
}
