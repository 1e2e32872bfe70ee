package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewLoginCmd signs in and stores the credential in the token file.
func NewLoginCmd(configPath *string) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the quiz backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), *configPath, email, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// NewRegisterCmd creates an account and signs in with it.
func NewRegisterCmd(configPath *string) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the quiz backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), *configPath, email, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// NewLogoutCmd removes the stored credential.
func NewLogoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd.Context(), *configPath, os.Stderr)
			if err != nil {
				return err
			}
			defer d.Close()
			if err := d.auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func runLogin(ctx context.Context, configPath, email string, in io.Reader, out io.Writer) error {
	d, err := loadDeps(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer d.Close()

	reader := bufio.NewReader(in)
	password, err := promptLine(reader, out, "Password: ")
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, d.requestTimeout)
	defer cancel()
	if err := d.auth.Login(callCtx, email, password); err != nil {
		return describeClientError(err, d.client.BaseURL())
	}
	fmt.Fprintf(out, "Signed in as %s.\n", email)
	return nil
}

func runRegister(ctx context.Context, configPath, email string, in io.Reader, out io.Writer) error {
	d, err := loadDeps(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer d.Close()

	reader := bufio.NewReader(in)
	password, err := promptLine(reader, out, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptLine(reader, out, "Confirm password: ")
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, d.requestTimeout)
	defer cancel()
	if err := d.auth.Register(callCtx, email, password, confirm); err != nil {
		return describeClientError(err, d.client.BaseURL())
	}
	fmt.Fprintf(out, "Registered and signed in as %s.\n", email)
	return nil
}

func promptLine(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
