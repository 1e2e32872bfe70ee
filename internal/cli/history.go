package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewHistoryCmd prints previously generated quizzes.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var (
		search  string
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously generated quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), *configPath, search, offline, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by title or url")
	cmd.Flags().BoolVar(&offline, "offline", false, "read from the local Postgres archive instead of the backend")
	return cmd
}

func runHistory(ctx context.Context, configPath, search string, offline bool, out io.Writer) error {
	d, err := loadDeps(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer d.Close()

	if offline && d.archive == nil {
		return errors.New("offline history needs postgres.url")
	}
	index := d.history(offline)
	callCtx, cancel := context.WithTimeout(ctx, d.requestTimeout)
	defer cancel()
	if err := index.Load(callCtx); err != nil {
		return describeClientError(err, d.client.BaseURL())
	}
	printHistory(out, index.Filter(search), index.Empty())
	return nil
}
