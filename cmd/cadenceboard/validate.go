package main

import (
	"fmt"

	"github.com/jpalmerr/cadenceboard/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a CadenceBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  cadenceboard validate -c config.yaml
  cadenceboard validate --config /etc/cadenceboard/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "(stderr)"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)
	fmt.Fprintf(out, "  Data file:     %s\n", cfg.DataFile)
	fmt.Fprintf(out, "  Reset file:    %s\n", cfg.ResetFile)
	fmt.Fprintf(out, "  Log file:      %s\n", logFile)
	fmt.Fprintf(out, "  Loop interval: %s\n", cfg.LoopInterval.Duration())
	fmt.Fprintf(out, "  Wheel:         %g m, %g kcal per rotation\n", cfg.WheelCircumference, cfg.CalorieFactor)
	fmt.Fprintf(out, "  Simulate:      %t\n", cfg.Simulate)

	return nil
}
