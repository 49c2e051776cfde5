package main

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// effort is a pedalling rate in rotations per second.
type effort struct {
	name string
	rate float64
}

var efforts = []effort{
	{"easy", 1.2},
	{"steady", 2.0},
	{"sprint", 3.4},
}

// RunMockSensor calls pulse at a rate that cycles through easy, steady and
// sprint efforts, changing every 20-60 seconds. It returns when ctx is done.
func RunMockSensor(ctx context.Context, pulse func()) {
	idx := 0
	nextChangeAt := time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)

	for {
		// jitter the gap between rotations by up to 10%
		gap := time.Duration(float64(time.Second) / efforts[idx].rate * (0.9 + rand.Float64()*0.2))

		select {
		case <-ctx.Done():
			return
		case <-time.After(gap):
		}
		pulse()

		if time.Now().After(nextChangeAt) {
			old := efforts[idx].name
			idx = (idx + 1) % len(efforts)
			nextChangeAt = time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
			slog.Info("effort change", "from", old, "to", efforts[idx].name)
		}
	}
}
