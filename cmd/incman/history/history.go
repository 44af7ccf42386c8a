// Package historycmd renders the operation journal.
package historycmd

import (
	"fmt"
	"time"

	"incman/cmd/incman/ui"
	"incman/internal/history"

	"github.com/spf13/cobra"
)

// Cmd returns the "incman history" command.
func Cmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lifecycle operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := history.Open(history.DefaultPath())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println(ui.Muted("no operations recorded yet"))
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				outcome := ui.Success(e.Outcome)
				if e.Outcome != history.OutcomeOK {
					outcome = ui.ErrorStyle.Render(e.Outcome)
				}
				instance := e.Instance
				if instance == "" {
					instance = "-"
				}
				rows = append(rows, []string{
					e.At.Local().Format("2006-01-02 15:04:05"),
					e.Op,
					instance,
					outcome,
					e.Duration.Round(time.Millisecond).String(),
					truncate(e.Detail, 48),
				})
			}
			fmt.Println(ui.Table([]string{"When", "Op", "Instance", "Outcome", "Took", "Detail"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
