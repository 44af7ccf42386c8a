package cmdutil

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"incman/config"
	"incman/internal/history"
	"incman/pkg/sdk/client"
	"incman/pkg/sdk/incusrun"
	"incman/pkg/sdk/lifecycle"
)

// Session bundles everything a subcommand needs to talk to the host:
// the loaded config file, the daemon socket client, the CLI runner, and
// the lifecycle engine built over both. Construct with Connect.
type Session struct {
	Config *config.Config
	Client *client.Client
	Runner *incusrun.Runner
	Engine *lifecycle.Engine

	journal *history.Store
}

// ResolveSocketPath picks the daemon socket. Resolution order:
//
//  1. --socket flag
//  2. socket from the config file
//  3. INCMAN_SOCKET / platform default
func ResolveSocketPath(flagValue string, cfg *config.Config) string {
	if s := strings.TrimSpace(flagValue); s != "" {
		return s
	}
	if cfg != nil {
		if s := strings.TrimSpace(cfg.Socket); s != "" {
			return s
		}
	}
	return client.DefaultSocketPath()
}

// Connect loads the config file and opens a session against the resolved
// socket. socketFlag is the root --socket value; empty means "resolve".
func Connect(socketFlag string) (*Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	api, err := client.New(ResolveSocketPath(socketFlag, cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}

	runner := incusrun.New()
	s := &Session{
		Config: cfg,
		Client: api,
		Runner: runner,
		Engine: lifecycle.New(api, runner),
	}

	// The journal is best effort; a command never fails because the
	// history database would not open.
	journal, err := history.Open(history.DefaultPath())
	if err != nil {
		slog.Debug("Operation journal unavailable.", "error", err)
	} else {
		s.journal = journal
	}
	return s, nil
}

// Close releases the session's daemon connections and the journal.
func (s *Session) Close() {
	s.Client.Close()
	if s.journal != nil {
		_ = s.journal.Close()
	}
}

// Journal runs fn and records its outcome in the operation history.
// The entry is written even when ctx was cancelled mid-operation, and a
// failed write only warns; fn's error comes back unchanged either way.
func (s *Session) Journal(ctx context.Context, op, instance string, fn func(context.Context) error) error {
	return JournalInto(ctx, s.journal, op, instance, fn)
}

// JournalInto is Journal for callers holding a bare store, such as
// commands that run before any daemon exists. A nil journal just runs fn.
func JournalInto(ctx context.Context, journal *history.Store, op, instance string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)

	if journal != nil {
		entry := history.Entry{
			At:       start,
			Op:       op,
			Instance: instance,
			Outcome:  history.OutcomeOK,
			Duration: time.Since(start),
		}
		if err != nil {
			entry.Outcome = history.OutcomeError
			entry.Detail = err.Error()
		}
		if recErr := journal.Record(context.Background(), entry); recErr != nil {
			slog.Warn("Record operation history.", "op", op, "error", recErr)
		}
	}
	return err
}
