// Package main provides the entry point for the SOP question agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "question_agent",
	Short: "SOP Question Agent CLI and HTTP API Server",
	Long: `SOP Question Agent turns an applicant profile into grounded follow-up questions,
organized by the five beats of a statement of purpose, without sending unredacted PII to the model.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
