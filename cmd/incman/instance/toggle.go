package instance

import (
	"context"
	"fmt"
	"strings"

	"incman/cmd/incman/cmdutil"
	"incman/cmd/incman/ui"

	"github.com/spf13/cobra"
)

func toggleCmd(socketFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <name>",
		Short: "Stop the instance if running, start it otherwise",
		Args:  cobra.ExactArgs(1),
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

			if err := session.Journal(cmd.Context(), "toggle", name, func(ctx context.Context) error {
				return session.Engine.Toggle(ctx, name, observed)
			}); err != nil {
				return err
			}

			action := "start"
			if observed.Running() {
				action = "stop"
			}
			fmt.Println(ui.SuccessMsg("%s requested for %s (was %s)", action, ui.Accent(name), observed))
			return nil
		},
	}
}
