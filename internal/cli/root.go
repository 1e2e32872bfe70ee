package cli

import (
	"context"
	"os"

	"article-quiz-client/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "quizctl",
		Short:         "Terminal client for the article quiz generator",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnv(envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before config")
	cmd.AddCommand(NewStartCmd(&configPath))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewHistoryCmd(&configPath))
	cmd.AddCommand(NewLoginCmd(&configPath))
	cmd.AddCommand(NewRegisterCmd(&configPath))
	cmd.AddCommand(NewLogoutCmd(&configPath))
	return cmd
}
