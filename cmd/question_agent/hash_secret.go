package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var hashSecretConfigPath string

var hashSecretCmd = &cobra.Command{
	Use:   "hash-secret",
	Short: "Hash an API client secret read from stdin",
	Long: `Reads one client secret from stdin and prints its bcrypt hash using BCRYPT_COST and
SECRET_PEPPER. Put the hash into AUTH_CLIENTS as client_id:hash.`,
	RunE: runHashSecret,
}

func init() {
	hashSecretCmd.Flags().StringVar(&hashSecretConfigPath, "config", "", "Path to a YAML or JSON config file")
	rootCmd.AddCommand(hashSecretCmd)
}

func runHashSecret(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(hashSecretConfigPath)
	if err != nil {
		return err
	}
	secrets, err := cfg.Secrets()
	if err != nil {
		return err
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		if err != nil {
			return fmt.Errorf("failed to read secret from stdin: %w", err)
		}
		return fmt.Errorf("secret must not be empty")
	}

	hash, err := secrets.HashSecret(secret)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
