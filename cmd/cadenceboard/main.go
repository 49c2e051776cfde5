// Package main is the entry point for the cadenceboard CLI.
//
// CadenceBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach,
// plus a terminal client for a running dashboard.
//
// Usage:
//
//	cadenceboard serve -c config.yaml             # Start calculator and dashboard
//	cadenceboard validate -c config.yaml          # Validate configuration
//	cadenceboard watch --url http://bike:5000     # Follow a dashboard in the terminal
//	cadenceboard reset --url http://bike:5000     # Reset the ride session
//	cadenceboard version                          # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "cadenceboard",
	Short: "A live exercise bike dashboard",
	Long: `CadenceBoard is a live telemetry dashboard for an exercise bike.

It counts wheel rotations, derives speed, distance, calories and cadence
once per second, and serves them to a browser dashboard.

Quick start:
  1. Create a config file (cadenceboard.yaml)
  2. Run: cadenceboard serve -c cadenceboard.yaml
  3. Open http://localhost:5000 in your browser

Example config:
  port: 5000
  data_file: log/cycling_data.json
  log_file: log/cycling_web.log
  wheel_circumference: 4.45
  simulate: true`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this cadenceboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cadenceboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
