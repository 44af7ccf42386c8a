package instance

import (
	"errors"
	"testing"
	"time"

	"incman/cmd/incman/cmdutil"
	"incman/pkg/sdk/types"

	tea "github.com/charmbracelet/bubbletea"
)

func TestWatchModelInFlightGuard(t *testing.T) {
	m := newWatchModel(&cmdutil.Session{}, time.Second)
	m.instances = []types.Instance{{Name: "web", Status: types.StatusRunning}}
	m.rebuildRows()

	if cmd := m.dispatch("toggle"); cmd == nil {
		t.Fatal("first dispatch returned no command")
	}
	if op := m.inflight["web"]; op != "toggle" {
		t.Fatalf("inflight op = %q, want toggle", op)
	}
	if cmd := m.dispatch("restart"); cmd != nil {
		t.Fatal("dispatch on a busy instance should be ignored")
	}
}

func TestWatchModelPendingOverlay(t *testing.T) {
	m := newWatchModel(&cmdutil.Session{}, time.Second)
	m.instances = []types.Instance{
		{Name: "db", Status: types.StatusStopped},
		{Name: "web", Status: types.StatusRunning},
	}
	m.inflight["web"] = "restart"
	m.rebuildRows()

	rows := m.table.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if got := rows[0][1]; got != "stopped" {
		t.Fatalf("db state = %q, want stopped", got)
	}
	if got := rows[1][1]; got != "pending (restart)" {
		t.Fatalf("web state = %q, want pending (restart)", got)
	}
}

func TestWatchModelOpDoneClearsOverlay(t *testing.T) {
	m := newWatchModel(&cmdutil.Session{}, time.Second)
	m.instances = []types.Instance{{Name: "web", Status: types.StatusRunning}}
	m.inflight["web"] = "toggle"
	m.rebuildRows()

	model, _ := m.Update(opDoneMsg{op: "toggle", name: "web", err: errors.New("daemon refused")})
	m = model.(*watchModel)

	if _, busy := m.inflight["web"]; busy {
		t.Fatal("inflight overlay survived completion")
	}
	if got := m.table.Rows()[0][1]; got != "running" {
		t.Fatalf("state = %q, want running after overlay clears", got)
	}
	if m.lastOp == "" {
		t.Fatal("failed operation left no status line")
	}
}

func TestWatchModelKeepsRowsOnRefreshError(t *testing.T) {
	m := newWatchModel(&cmdutil.Session{}, time.Second)
	m.instances = []types.Instance{{Name: "web", Status: types.StatusRunning}}
	m.rebuildRows()

	model, _ := m.Update(snapshotMsg{err: errors.New("socket gone")})
	m = model.(*watchModel)

	if m.refreshErr == nil {
		t.Fatal("refresh error was dropped")
	}
	if len(m.table.Rows()) != 1 {
		t.Fatal("stale rows should survive a failed refresh")
	}
}

func TestWatchModelQuitKey(t *testing.T) {
	m := newWatchModel(&cmdutil.Session{}, time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q produced %T, want tea.QuitMsg", cmd())
	}
}

func TestWatchCmdShape(t *testing.T) {
	socket := ""
	cmd := watchCmd(&socket)
	if err := cmd.Args(cmd, []string{"extra"}); err == nil {
		t.Fatal("expected args validation error for extra args")
	}
	if cmd.Flags().Lookup("interval") == nil {
		t.Fatal("expected --interval flag")
	}
}
