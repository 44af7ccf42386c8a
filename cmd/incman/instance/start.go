package instance

import (
	"context"
	"fmt"
	"strings"

	"incman/cmd/incman/cmdutil"
	"incman/cmd/incman/ui"

	"github.com/spf13/cobra"
)

func startCmd(socketFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start <name>",
		Short: "Start a stopped instance",
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

			if err := session.Journal(cmd.Context(), "start", name, func(ctx context.Context) error {
				return session.Engine.Start(ctx, name)
			}); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("start requested for %s", ui.Accent(name)))
			return nil
		},
	}
}
