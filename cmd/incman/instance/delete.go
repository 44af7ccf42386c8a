package instance

import (
	"context"
	"fmt"
	"strings"

	"incman/cmd/incman/cmdutil"
	"incman/cmd/incman/ui"

	"github.com/spf13/cobra"
)

func deleteCmd(socketFlag *string) *cobra.Command {
	var stopFirst, yes bool

	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete an instance",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("instance name is required")
			}

			session, err := cmdutil.Connect(*socketFlag)
			if err != nil {
				return err
			}
			defer session.Close()

			observed, err := session.Client.InstanceState(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("read state of %s: %w", name, err)
			}

			if !yes {
				question := fmt.Sprintf("Delete instance %s?", ui.Bold(name))
				if observed.Running() && !stopFirst {
					question = fmt.Sprintf("Instance %s is running. Stop and delete it?", ui.Bold(name))
				}
				confirmed, err := ui.Confirm(question, "use --yes to skip")
				if err != nil {
					return err
				}
				if !confirmed {
					return nil
				}
				if observed.Running() {
					stopFirst = true
				}
			}

			// Without --stop or a confirmed prompt the engine refuses a
			// running instance.
			if err := session.Journal(cmd.Context(), "delete", name, func(ctx context.Context) error {
				return session.Engine.Delete(ctx, name, observed, stopFirst)
			}); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("deleted %s", ui.Accent(name)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&stopFirst, "stop", false, "Stop a running instance before deleting")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}
