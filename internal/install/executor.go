package install

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"incman/internal/check"
	"incman/pkg/sdk/telemetry"

	"github.com/google/renameio/v2"
	"go.opentelemetry.io/otel/trace"
)

// fetchTimeout bounds a single artifact download.
const fetchTimeout = 30 * time.Second

// Executor consumes an install plan, running its steps in order and
// stopping at the first failure. With a tracer attached, the plan and each
// step become spans that a span processor can render as live progress.
type Executor struct {
	tracer trace.Tracer
	runCmd func(ctx context.Context, argv []string) error
	fetch  func(ctx context.Context, url string) ([]byte, error)
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTracer enables plan and per-step telemetry spans.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = tracer }
}

// WithRunFunc replaces argv execution. Tests use this.
func WithRunFunc(fn func(ctx context.Context, argv []string) error) ExecutorOption {
	return func(e *Executor) { e.runCmd = fn }
}

// WithFetchFunc replaces artifact downloads. Tests use this.
func WithFetchFunc(fn func(ctx context.Context, url string) ([]byte, error)) ExecutorOption {
	return func(e *Executor) { e.fetch = fn }
}

// NewExecutor creates an Executor that shells out for argv steps and uses
// plain HTTP for fetches.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		runCmd: runArgv,
		fetch:  fetchURL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every step of the plan in order. The first failure aborts
// and comes back as a *StepError naming the step.
func (e *Executor) Execute(ctx context.Context, plan InstallPlan) error {
	var op *telemetry.Operation
	if e.tracer != nil {
		tplan := telemetry.Plan{Steps: make([]telemetry.PlannedStep, 0, len(plan.Steps))}
		for _, s := range plan.Steps {
			tplan.Steps = append(tplan.Steps, telemetry.PlannedStep{ID: s.ID, Title: s.Title})
		}
		var err error
		op, err = telemetry.EmitPlan(ctx, e.tracer, "install", tplan)
		if err != nil {
			return fmt.Errorf("emit install plan: %w", err)
		}
		ctx = op.Context()
	}

	for _, step := range plan.Steps {
		err := op.RunStep(ctx, step.ID, func(ctx context.Context) error {
			return e.runStep(ctx, step)
		})
		if err != nil {
			stepErr := &StepError{StepID: step.ID, Err: err}
			op.End(stepErr)
			return stepErr
		}
	}
	op.End(nil)
	return nil
}

func (e *Executor) runStep(ctx context.Context, step Step) error {
	check.Assertf(payloadCount(step) == 1, "step %s has %d payloads", step.ID, payloadCount(step))

	switch {
	case len(step.Run) > 0:
		return e.runCmd(ctx, step.Run)
	case step.File != nil:
		return writeFile(step.File.Path, []byte(step.File.Content))
	case step.Fetch != nil:
		data, err := e.fetch(ctx, step.Fetch.URL)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", step.Fetch.URL, err)
		}
		return writeFile(step.Fetch.Path, data)
	default:
		return fmt.Errorf("step %s has no payload", step.ID)
	}
}

func payloadCount(step Step) int {
	n := 0
	if len(step.Run) > 0 {
		n++
	}
	if step.File != nil {
		n++
	}
	if step.Fetch != nil {
		n++
	}
	return n
}

// writeFile writes atomically, creating parent directories first.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func runArgv(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", strings.Join(argv, " "), err, msg)
		}
		return fmt.Errorf("%s: %w", strings.Join(argv, " "), err)
	}
	return nil
}

func fetchURL(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<22))
}
