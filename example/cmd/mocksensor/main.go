// Standalone mock cadence sensor for testing the CLI.
//
// Usage:
//
//	go run ./cmd/cadenceboard serve -c example/config.yaml
//
// Then in another terminal:
//
//	go run ./example/cmd/mocksensor -url http://localhost:5000
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/cadenceboard/internal/poller"
)

func main() {
	url := flag.String("url", "http://localhost:5000", "dashboard base URL")
	rate := flag.Float64("rate", 2.0, "rotations per second")
	flag.Parse()

	if *rate <= 0 {
		fmt.Fprintln(os.Stderr, "rate must be positive")
		os.Exit(1)
	}

	fmt.Printf("Mock sensor pedalling at %.1f rotations/s into %s\n", *rate, *url)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := poller.NewClient()
	defer client.Close()

	sent := 0
	for {
		gap := time.Duration(float64(time.Second) / *rate * (0.9 + rand.Float64()*0.2))
		select {
		case <-ctx.Done():
			fmt.Printf("\nSent %d rotations\n", sent)
			return
		case <-time.After(gap):
		}

		resp := client.Do(ctx, poller.Request{Method: http.MethodPost, URL: *url + "/api/pulse", Timeout: 2 * time.Second})
		if !resp.OK() {
			if ctx.Err() != nil {
				continue
			}
			slog.Error("pulse rejected", "status", resp.StatusCode, "error", resp.Error)
			continue
		}
		sent++
	}
}
