// Package doctorcmd holds the environment diagnosis command.
package doctorcmd

import (
	"fmt"

	"incman/cmd/incman/cmdutil"
	"incman/cmd/incman/ui"
	"incman/internal/doctor"

	"github.com/spf13/cobra"
)

// Cmd returns the "incman doctor" command. socketFlag points at the root
// persistent --socket value.
func Cmd(socketFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the host setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := cmdutil.Connect(*socketFlag)
			if err != nil {
				return err
			}
			defer session.Close()

			checks := doctor.Checks(session.Client, session.Runner, session.Config.Bridge())
			failed := 0
			for _, check := range checks {
				res := check.Run(cmd.Context())
				line := ui.SuccessMsg("%s", check.Name)
				if !res.OK {
					failed++
					line = ui.ErrorMsg("%s", check.Name)
				}
				if res.Detail != "" {
					line += "  " + ui.Muted(res.Detail)
				}
				fmt.Println(line)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(checks))
			}
			return nil
		},
	}
}
