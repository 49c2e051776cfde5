package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jpalmerr/cadenceboard/widget"
	"github.com/spf13/cobra"
)

const defaultDashboardURL = "http://localhost:5000"

// lockedWriter serializes writes from the printer and the dialog.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// cliLogger logs warnings and errors as JSON on stderr.
func cliLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// newWidget builds a widget from the shared --url and --timeout flags.
func newWidget(cmd *cobra.Command, display widget.Display, dialog widget.Dialog, extra ...widget.Option) (*widget.Widget, error) {
	url, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	opts := append([]widget.Option{
		widget.WithRequestTimeout(timeout),
		widget.WithLogger(cliLogger(cmd)),
	}, extra...)
	return widget.New(url, display, dialog, opts...)
}

// watchCmd follows a running dashboard in the terminal.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a running dashboard in the terminal",
	Long: `Poll a running CadenceBoard and print the dashboard as a status line.

The widget polls /api/data at the given interval, exactly like the browser
page. Type "r" and Enter to reset the session, "q" and Enter to quit.

Example:
  cadenceboard watch --url http://raspberrypi.local:5000
  cadenceboard watch --interval 2s --timeout 1s`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("url", defaultDashboardURL, "dashboard base URL")
	watchCmd.Flags().Duration("interval", time.Second, "poll interval")
	watchCmd.Flags().Duration("timeout", 0, "per-request timeout (0 = none)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")

	out := &lockedWriter{w: cmd.OutOrStdout()}
	in := bufio.NewReader(cmd.InOrStdin())
	display := widget.NewMemoryDisplay()

	w, err := newWidget(cmd, display, widget.NewConsoleDialog(in, out), widget.WithInterval(interval))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.Start(ctx)
	defer w.Stop()

	// commands are read on one goroutine so the dialog never races the loop
	// for input
	go func() {
		for {
			line, err := in.ReadString('\n')
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "q", "quit":
				cancel()
				return
			case "r", "reset":
				if err := w.ResetSession(ctx); err != nil && !errors.Is(err, widget.ErrResetRejected) {
					cliLogger(cmd).Warn("reset failed", "error", err)
				}
			}
			if err != nil {
				// stdin closed, keep watching until a signal
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, display.Summary())
			return nil
		case <-ticker.C:
			fmt.Fprintln(out, display.Summary())
		}
	}
}
