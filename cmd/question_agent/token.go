package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/sop-question-agent/internal/server"
)

var (
	tokenClientID   string
	tokenConfigPath string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for an API client",
	Long:  `Signs a token with JWT_SECRET for the given client id. Useful for local testing and for trusted operators.`,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenClientID, "client-id", "", "Client id to embed in the token")
	tokenCmd.Flags().StringVar(&tokenConfigPath, "config", "", "Path to a YAML or JSON config file")
	_ = tokenCmd.MarkFlagRequired("client-id")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	clientID := strings.TrimSpace(tokenClientID)
	if clientID == "" {
		return fmt.Errorf("--client-id must not be empty")
	}
	cfg, err := loadConfig(tokenConfigPath)
	if err != nil {
		return err
	}
	jwtCfg, err := cfg.JWT()
	if err != nil {
		return err
	}
	if jwtCfg == nil {
		return fmt.Errorf("JWT_SECRET is required to issue tokens")
	}

	token, expiresAt, err := server.NewJWTService(jwtCfg).GenerateToken(clientID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, token)
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.UTC().Format(time.RFC3339))
	return nil
}
