// Package instance holds the container lifecycle subcommands.
package instance

import "github.com/spf13/cobra"

// Cmd returns the "incman instance" command group. socketFlag points at
// the root persistent --socket value.
func Cmd(socketFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instance",
		Aliases: []string{"inst"},
		Short:   "Manage container instances",
	}

	cmd.AddCommand(listCmd(socketFlag))
	cmd.AddCommand(launchCmd(socketFlag))
	cmd.AddCommand(startCmd(socketFlag))
	cmd.AddCommand(stopCmd(socketFlag))
	cmd.AddCommand(toggleCmd(socketFlag))
	cmd.AddCommand(restartCmd(socketFlag))
	cmd.AddCommand(deleteCmd(socketFlag))
	cmd.AddCommand(watchCmd(socketFlag))
	return cmd
}
