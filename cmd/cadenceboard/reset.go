package main

import (
	"bufio"
	"fmt"

	"github.com/jpalmerr/cadenceboard/widget"
	"github.com/spf13/cobra"
)

// resetCmd resets the session of a running dashboard.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the ride session of a running dashboard",
	Long: `Ask a running CadenceBoard to start a new ride session, the same
way the reset button on the dashboard page does.

Without --yes the command asks for confirmation on stdin.

Example:
  cadenceboard reset --url http://raspberrypi.local:5000
  cadenceboard reset --yes`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().String("url", defaultDashboardURL, "dashboard base URL")
	resetCmd.Flags().Duration("timeout", 0, "per-request timeout (0 = none)")
	resetCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func runReset(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	out := cmd.OutOrStdout()
	var dialog widget.Dialog = widget.AutoDialog{Answer: true, Out: out}
	if !yes {
		dialog = widget.NewConsoleDialog(bufio.NewReader(cmd.InOrStdin()), out)
	}

	display := widget.NewMemoryDisplay()
	w, err := newWidget(cmd, display, dialog)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.ResetSession(cmd.Context()); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	if _, ok := display.Text(widget.ElementStatus); ok {
		fmt.Fprintln(out, display.Summary())
	}
	return nil
}
