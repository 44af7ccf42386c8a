// Package profile holds the profile subcommands.
package profile

import (
	"fmt"

	"incman/cmd/incman/cmdutil"
	"incman/cmd/incman/ui"

	"github.com/spf13/cobra"
)

// Cmd returns the "incman profile" command group. socketFlag points at
// the root persistent --socket value.
func Cmd(socketFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect instance profiles",
	}

	cmd.AddCommand(listCmd(socketFlag))
	return cmd
}

func listCmd(socketFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List custom profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := cmdutil.Connect(*socketFlag)
			if err != nil {
				return err
			}
			defer session.Close()

			names, err := session.Runner.ProfileNames(cmd.Context())
			if err != nil {
				return err
			}

			if len(names) == 0 {
				fmt.Println(ui.Muted("no custom profiles; the default profile always applies"))
				return nil
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, []string{name})
			}
			fmt.Println(ui.Table([]string{"Profile"}, rows))
			return nil
		},
	}
}
