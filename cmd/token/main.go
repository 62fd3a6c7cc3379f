package main

import (
	"fmt"
	"os"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/config"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// token mints and inspects credential tokens for local socket and REST testing.
func main() {
	if err := buildRootCmd().Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:          "token",
		Short:        "Mint and inspect BibiChat credential tokens",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	cmd.AddCommand(buildIssueCmd(&secret), buildInspectCmd(&secret))
	return cmd
}

func resolveSecret(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if s := config.Load().Auth.JWTSecret; s != "" {
		return s, nil
	}
	return "", fmt.Errorf("no signing secret: pass --secret or set JWT_SECRET")
}

func buildIssueCmd(secret *string) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssue(cmd, *secret, userID, role, ttl)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id to embed (required)")
	cmd.Flags().StringVar(&role, "role", "user", "Role claim: user or master")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runIssue(cmd *cobra.Command, secret, rawUserID, role string, ttl time.Duration) error {
	key, err := resolveSecret(secret)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}
	if role != "user" && role != "master" {
		return fmt.Errorf("invalid --role %q: want user or master", role)
	}

	token, err := serverutils.NewTokenManager(key, ttl).Issue(userID, role)
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "Issued %s token for %s (expires in %s)\n", role, userID, ttl)
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func buildInspectCmd(secret *string) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [token]",
		Short: "Verify a token and print its identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, *secret, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, secret, token string) error {
	key, err := resolveSecret(secret)
	if err != nil {
		return err
	}

	identity, err := serverutils.NewTokenManager(key, 0).Parse(token)
	if err != nil {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Invalid token: %v\n", err)
		return err
	}

	color.New(color.FgCyan).Fprintln(cmd.OutOrStdout(), "Valid token")
	fmt.Fprintf(cmd.OutOrStdout(), "user_id: %s\nrole:    %s\n", identity.UserID, identity.Role)
	return nil
}
