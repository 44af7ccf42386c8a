// Package incusrun drives the managed incus CLI for operations the socket
// API subset does not cover: launch, profile management, and deletion. It is
// a second transport next to the REST client, with its own error type.
package incusrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultBinary is the managed CLI found via PATH.
const DefaultBinary = "incus"

// ExecFunc runs one external command and reports its output and exit code.
// A non-nil error means the command could not be run at all; a non-zero
// exit code is not an error at this layer.
type ExecFunc func(ctx context.Context, bin string, args ...string) (stdout, stderr []byte, exitCode int, err error)

// Runner invokes the managed CLI.
type Runner struct {
	binary string
	exec   ExecFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary sets the path to the managed CLI binary. Defaults to "incus"
// (found via PATH).
func WithBinary(path string) Option {
	return func(r *Runner) { r.binary = path }
}

// WithExec replaces the process launcher. Tests use this to fake the CLI.
func WithExec(fn ExecFunc) Option {
	return func(r *Runner) { r.exec = fn }
}

// New creates a Runner for the managed CLI.
func New(opts ...Option) *Runner {
	r := &Runner{
		binary: DefaultBinary,
		exec:   runCommand,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func runCommand(ctx context.Context, bin string, args ...string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), nil
		}
		return stdout.Bytes(), stderr.Bytes(), -1, err
	}
	return stdout.Bytes(), stderr.Bytes(), 0, nil
}

// run invokes the managed CLI once and returns its stdout. Non-zero exits
// come back as *ProcessError.
func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	stdout, stderr, code, err := r.exec(ctx, r.binary, args...)
	if err != nil {
		return "", fmt.Errorf("run %s %s: %w", r.binary, strings.Join(args, " "), err)
	}
	if code != 0 {
		return "", &ProcessError{
			Args:     append([]string{r.binary}, args...),
			ExitCode: code,
			Stderr:   strings.TrimSpace(string(stderr)),
			Stdout:   strings.TrimSpace(string(stdout)),
		}
	}
	return string(stdout), nil
}

// Installed reports whether the managed CLI is on PATH.
func (r *Runner) Installed() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// Binary returns the CLI name the runner invokes.
func (r *Runner) Binary() string {
	return r.binary
}

// Launch creates and starts a new instance from an image.
func (r *Runner) Launch(ctx context.Context, image, name string) error {
	_, err := r.run(ctx, "launch", image, name)
	return err
}

// ProfileAdd attaches a profile to an existing instance.
func (r *Runner) ProfileAdd(ctx context.Context, instance, profile string) error {
	_, err := r.run(ctx, "profile", "add", instance, profile)
	return err
}

// Delete removes an instance. The daemon refuses to delete a running
// instance, so callers stop it first.
func (r *Runner) Delete(ctx context.Context, name string) error {
	_, err := r.run(ctx, "delete", name)
	return err
}

// ProfileNames lists the attachable profiles, excluding the reserved
// default profile.
func (r *Runner) ProfileNames(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "profile", "list", "--format", "csv")
	if err != nil {
		return nil, err
	}
	return ParseProfiles(out), nil
}

// AvailableVersions reports installable daemon package versions, consulting
// apt first and snap as a fallback. Hosts with neither report no versions
// rather than an error.
func (r *Runner) AvailableVersions(ctx context.Context) []string {
	stdout, _, code, err := r.exec(ctx, "apt-cache", "madison", "incus")
	if err == nil && code == 0 {
		if versions := parseMadison(string(stdout)); len(versions) > 0 {
			return versions
		}
	}

	stdout, _, code, err = r.exec(ctx, "snap", "find", "incus")
	if err == nil && code == 0 {
		return parseSnapFind(string(stdout))
	}
	return nil
}
