package monitor

import (
	"context"
	"fmt"
	"time"
)

// Renderer displays one snapshot.
type Renderer interface {
	Render(snapshot FleetSnapshot) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(FleetSnapshot) error

// Render calls f.
func (f RendererFunc) Render(snapshot FleetSnapshot) error {
	return f(snapshot)
}

// Run connects the fleet, then polls, renders and sleeps for interval until
// ctx is cancelled. The next poll starts interval after the previous render
// finished. Every session is disconnected exactly once before Run returns.
// Cancellation is a normal exit and returns nil; only a render failure is an error.
func Run(ctx context.Context, fleet *Fleet, r Renderer, interval time.Duration) error {
	defer fleet.DisconnectAll()

	fleet.ConnectAll(ctx)

	for {
		if ctx.Err() != nil {
			return nil
		}

		snapshot := fleet.PollOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}

		if err := r.Render(snapshot); err != nil {
			return fmt.Errorf("render: %w", err)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Once connects, polls and renders a single snapshot, then disconnects.
// Unlike Run it returns the snapshot so callers can inspect failures.
func Once(ctx context.Context, fleet *Fleet, r Renderer) (FleetSnapshot, error) {
	defer fleet.DisconnectAll()

	fleet.ConnectAll(ctx)
	snapshot := fleet.PollOnce(ctx)
	if err := r.Render(snapshot); err != nil {
		return snapshot, fmt.Errorf("render: %w", err)
	}
	return snapshot, nil
}
