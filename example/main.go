package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/cadenceboard"
	"github.com/jpalmerr/cadenceboard/telemetry"
)

func main() {
	// log a line whenever a ride passes another kilometre
	lastKm := 0
	onSnapshot := func(p telemetry.Payload) {
		km := int(p.Distance)
		if km < lastKm {
			// session was reset
			lastKm = km
		}
		if km > lastKm {
			lastKm = km
			slog.Info("distance milestone", "km", km, "elapsed", p.ElapsedTime)
		}
	}

	b, err := cadenceboard.New(
		cadenceboard.WithTitle("CadenceBoard Demo"),
		cadenceboard.WithPort(8080),
		cadenceboard.WithInMemoryStore(),
		cadenceboard.WithResetFile(os.TempDir()+"/cadenceboard-demo.flag"),
		cadenceboard.WithSnapshotCallback(onSnapshot),
	)
	if err != nil {
		slog.Error("failed to create cadenceboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   CadenceBoard Demo                                   ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A mock sensor pedals easy, steady and sprint        ║")
	fmt.Println("  ║   efforts, switching every 20-60 seconds              ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// pulses before Start are dropped, so the sensor idles until the board is up
	go RunMockSensor(ctx, b.Pulse)

	if err := b.Start(ctx); err != nil {
		slog.Error("cadenceboard error", "error", err)
		os.Exit(1)
	}
}
