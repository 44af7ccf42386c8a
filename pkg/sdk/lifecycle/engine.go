// Package lifecycle implements the instance state machine: toggle, restart,
// launch, and delete. Every transition is built from single daemon state
// writes plus managed CLI invocations; nothing here retries, and the daemon
// stays the sole arbiter when observations race.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"incman/pkg/sdk/types"
)

// defaultSettleDelay is the pause between Restart's stop and start phases,
// letting the daemon's internal state converge before the start write.
const defaultSettleDelay = time.Second

// StateClient writes instance state through the daemon's REST API. In
// production this is client.Client; tests use a recording fake.
type StateClient interface {
	SetInstanceState(ctx context.Context, name string, action types.Action) error
}

// CommandClient drives the managed CLI for operations the socket API subset
// does not expose. In production this is incusrun.Runner.
type CommandClient interface {
	Launch(ctx context.Context, image, name string) error
	ProfileAdd(ctx context.Context, instance, profile string) error
	Delete(ctx context.Context, name string) error
}

// Engine executes lifecycle transitions. It holds no per-instance state;
// callers that need at-most-one-in-flight-per-name enforce it themselves.
type Engine struct {
	states   StateClient
	commands CommandClient
	settle   time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithSettleDelay overrides the restart settle pause. Zero disables it.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) { e.settle = d }
}

// New creates an Engine over the two daemon transports.
func New(states StateClient, commands CommandClient, opts ...Option) *Engine {
	e := &Engine{
		states:   states,
		commands: commands,
		settle:   defaultSettleDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start issues a single start write.
func (e *Engine) Start(ctx context.Context, name string) error {
	if err := e.states.SetInstanceState(ctx, name, types.ActionStart); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	return nil
}

// Stop issues a single stop write.
func (e *Engine) Stop(ctx context.Context, name string) error {
	if err := e.states.SetInstanceState(ctx, name, types.ActionStop); err != nil {
		return fmt.Errorf("stop %s: %w", name, err)
	}
	return nil
}

// Toggle flips an instance between running and stopped based on the state
// the caller last observed: running stops, anything else starts. Exactly
// one write is issued either way.
func (e *Engine) Toggle(ctx context.Context, name string, observed types.Status) error {
	if observed.Running() {
		return e.Stop(ctx, name)
	}
	return e.Start(ctx, name)
}

// Restart stops and then starts an instance. The stop half is tolerant: an
// instance that is already stopped or wedged still deserves a start attempt,
// so a stop failure is logged and skipped, never propagated. The start half
// is fatal, because leaving the instance stopped is the worse outcome.
func (e *Engine) Restart(ctx context.Context, name string) error {
	if err := e.states.SetInstanceState(ctx, name, types.ActionStop); err != nil {
		// Tolerant stop.
		slog.Warn("Stop failed during restart, attempting start anyway.", "instance", name, "err", err)
	}

	if err := e.settleWait(ctx); err != nil {
		return fmt.Errorf("restart %s interrupted before start: %w", name, err)
	}

	if err := e.states.SetInstanceState(ctx, name, types.ActionStart); err != nil {
		return fmt.Errorf("start %s during restart: %w", name, err)
	}
	return nil
}

// settleWait pauses between restart phases. Cancellation cuts the wait
// short and surfaces, leaving the instance stopped but not restarted.
func (e *Engine) settleWait(ctx context.Context) error {
	if e.settle <= 0 {
		return nil
	}
	timer := time.NewTimer(e.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Launch creates an instance from an image and optionally attaches a
// profile. The two steps are not transactional: when the attach fails the
// instance stays created, and the returned *ProfileAttachError keeps that
// outcome distinguishable from a failed create.
func (e *Engine) Launch(ctx context.Context, name, image, profile string) error {
	if err := e.commands.Launch(ctx, image, name); err != nil {
		return fmt.Errorf("launch %s from %s: %w", name, image, err)
	}
	if profile == "" {
		return nil
	}
	if err := e.commands.ProfileAdd(ctx, name, profile); err != nil {
		return &ProfileAttachError{Instance: name, Profile: profile, Err: err}
	}
	return nil
}

// Delete removes an instance. A running instance is refused unless the
// caller explicitly opted into stopping it first; when it did, a failed
// stop aborts before any removal is attempted.
func (e *Engine) Delete(ctx context.Context, name string, observed types.Status, stopFirst bool) error {
	if observed.Running() {
		if !stopFirst {
			return &RunningError{Instance: name}
		}
		if err := e.states.SetInstanceState(ctx, name, types.ActionStop); err != nil {
			return fmt.Errorf("stop %s before delete: %w", name, err)
		}
	}
	if err := e.commands.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}
