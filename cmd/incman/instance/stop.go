package instance

import (
	"context"
	"fmt"
	"strings"

	"incman/cmd/incman/cmdutil"
	"incman/cmd/incman/ui"

	"github.com/spf13/cobra"
)

func stopCmd(socketFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a running instance",
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

			if err := session.Journal(cmd.Context(), "stop", name, func(ctx context.Context) error {
				return session.Engine.Stop(ctx, name)
			}); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("stop requested for %s", ui.Accent(name)))
			return nil
		},
	}
}
