package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/sop-question-agent/internal/logging"
	"github.com/jonathan/sop-question-agent/internal/observability"
	"github.com/jonathan/sop-question-agent/internal/pipeline"
	"github.com/jonathan/sop-question-agent/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the question pipeline once for a profile file",
	Long: `Runs redaction -> beat planning -> per-beat generation -> assembly -> validation -> repair
for a single applicant profile and writes the result as JSON.

The profile file may be YAML or JSON with the fields scholarship_name, program_type,
goal_one_liner and resume_points.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runProfilePath string
	runOutPath     string
	runVerbose     bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to a YAML or JSON config file")
	runCommand.Flags().StringVarP(&runProfilePath, "profile", "p", "", "Path to the applicant profile (YAML or JSON)")
	runCommand.Flags().StringVarP(&runOutPath, "out", "o", "", "Write the JSON result to this file instead of stdout")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print stage progress and a readable summary")
	_ = runCommand.MarkFlagRequired("profile")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	profile, err := readProfile(runProfilePath)
	if err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	a, err := newApp(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var printer *observability.Printer
	var onUpdate pipeline.UpdateFunc
	if runVerbose {
		printer = observability.NewPrinter(cmd.ErrOrStderr())
		onUpdate = printer.UpdateFunc()
	}

	state, runErr := a.pipeline.Run(ctx, *profile, onUpdate)
	resp, err := responseFor(state, runErr, logger)
	if err != nil {
		return err
	}

	if printer != nil {
		printer.PrintResponse(resp)
	}
	return writeResponse(resp, runOutPath, cmd.OutOrStdout())
}

// responseFor turns a finished run into the output payload, substituting the
// fallback questions when the run produced nothing usable. Profile errors
// are returned as is.
func responseFor(state *pipeline.State, runErr error, logger *zap.Logger) (pipeline.Response, error) {
	var profileErr *types.ProfileError
	if errors.As(runErr, &profileErr) {
		return pipeline.Response{}, runErr
	}
	if pipeline.Usable(state, runErr) {
		return pipeline.Format(state), nil
	}
	if runErr != nil {
		logger.Warn("pipeline failed; using fallback questions", zap.Error(runErr))
	} else {
		logger.Warn("pipeline produced no questions; using fallback questions")
	}
	return pipeline.FallbackResponse(state), nil
}

// readProfile loads an applicant profile from a YAML or JSON file. JSON is
// valid YAML, so one decoder serves both.
func readProfile(path string) (*types.ApplicantProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var profile types.ApplicantProfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// writeResponse writes resp as indented JSON to path, or to w when path is empty.
func writeResponse(resp pipeline.Response, path string, w io.Writer) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
