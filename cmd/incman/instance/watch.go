package instance

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"incman/cmd/incman/cmdutil"
	"incman/cmd/incman/ui"
	"incman/pkg/sdk/inventory"
	"incman/pkg/sdk/types"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	defaultWatchInterval = 5 * time.Second

	// watchOpTimeout bounds one key-triggered operation. Restart's settle
	// pause and a slow image-backed delete both fit comfortably.
	watchOpTimeout = time.Minute
)

func watchCmd(socketFlag *string) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live instance table with lifecycle keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ui.IsNoInteraction() {
				return fmt.Errorf("watch needs an interactive terminal; use `incman instance list` instead")
			}

			session, err := cmdutil.Connect(*socketFlag)
			if err != nil {
				return err
			}
			defer session.Close()

			m := newWatchModel(session, interval)
			p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("instance watch: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "Refresh interval")
	return cmd
}

type tickMsg time.Time

type snapshotMsg struct {
	instances []types.Instance
	err       error
}

type opDoneMsg struct {
	op   string
	name string
	err  error
}

// watchModel owns the at-most-one-in-flight-per-name rule: a key on a
// busy instance is ignored, and the overlay clears on completion whether
// the operation succeeded or not.
type watchModel struct {
	session  *cmdutil.Session
	interval time.Duration

	table      table.Model
	instances  []types.Instance
	inflight   map[string]string
	lastOp     string
	refreshErr error
}

func newWatchModel(session *cmdutil.Session, interval time.Duration) *watchModel {
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	t := table.New(
		table.WithColumns(watchColumns(nil)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		Foreground(lipgloss.Color("99")).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("238"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("99")).
		Bold(false)
	t.SetStyles(s)

	return &watchModel{
		session:  session,
		interval: interval,
		table:    t,
		inflight: make(map[string]string),
	}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "s":
			return m, m.dispatch("toggle")
		case "r":
			return m, m.dispatch("restart")
		case "d":
			return m, m.dispatch("delete")
		}
	case tickMsg:
		return m, tea.Batch(m.refresh(), m.tick())
	case snapshotMsg:
		if msg.err != nil {
			m.refreshErr = msg.err
			return m, nil
		}
		m.refreshErr = nil
		m.instances = msg.instances
		m.rebuildRows()
		return m, nil
	case opDoneMsg:
		delete(m.inflight, msg.name)
		if msg.err != nil {
			m.lastOp = ui.ErrorMsg("%s %s: %v", msg.op, msg.name, msg.err)
		} else {
			m.lastOp = ui.SuccessMsg("%s %s", msg.op, msg.name)
		}
		m.rebuildRows()
		return m, m.refresh()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *watchModel) View() string {
	var b strings.Builder
	b.WriteString(ui.InfoMsg("instances, refreshing every %s", m.interval))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	if m.refreshErr != nil {
		b.WriteString(ui.ErrorMsg("refresh: %v", m.refreshErr))
		b.WriteString("\n")
	}
	if m.lastOp != "" {
		b.WriteString(m.lastOp)
		b.WriteString("\n")
	}
	b.WriteString(ui.Muted("s start/stop  r restart  d delete  q quit"))
	b.WriteString("\n")
	return b.String()
}

// dispatch starts op for the selected instance on a worker goroutine.
// Busy instances are left alone.
func (m *watchModel) dispatch(op string) tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.instances) {
		return nil
	}
	inst := m.instances[idx]
	if _, busy := m.inflight[inst.Name]; busy {
		return nil
	}
	m.inflight[inst.Name] = op
	m.rebuildRows()

	session := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), watchOpTimeout)
		defer cancel()

		err := session.Journal(ctx, op, inst.Name, func(ctx context.Context) error {
			switch op {
			case "toggle":
				return session.Engine.Toggle(ctx, inst.Name, inst.Status)
			case "restart":
				return session.Engine.Restart(ctx, inst.Name)
			case "delete":
				return session.Engine.Delete(ctx, inst.Name, inst.Status, false)
			default:
				return fmt.Errorf("unknown operation %q", op)
			}
		})
		return opDoneMsg{op: op, name: inst.Name, err: err}
	}
}

func (m *watchModel) refresh() tea.Cmd {
	session := m.session
	interval := m.interval
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		instances, err := inventory.Snapshot(ctx, session.Client)
		return snapshotMsg{instances: instances, err: err}
	}
}

func (m *watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// rebuildRows projects the snapshot into table rows, overlaying pending
// on instances with an operation in flight. Cells stay unstyled; the
// table's own truncation is not ANSI aware.
func (m *watchModel) rebuildRows() {
	rows := make([]table.Row, 0, len(m.instances))
	for _, inst := range m.instances {
		state := string(inst.Status)
		if op, busy := m.inflight[inst.Name]; busy {
			state = fmt.Sprintf("%s (%s)", types.StatusPending, op)
		}
		rows = append(rows, table.Row{inst.Name, state})
	}
	m.table.SetColumns(watchColumns(rows))
	m.table.SetRows(rows)
	if h := len(rows); h > 0 && h < 10 {
		m.table.SetHeight(h + 1)
	}
}

func watchColumns(rows []table.Row) []table.Column {
	headers := []string{"Instance", "State"}
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		w := len(h)
		for _, row := range rows {
			if i < len(row) && len(row[i]) > w {
				w = len(row[i])
			}
		}
		cols[i] = table.Column{Title: h, Width: w + 2}
	}
	return cols
}
