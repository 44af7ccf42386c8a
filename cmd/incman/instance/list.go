package instance

import (
	"encoding/json"
	"fmt"
	"os"

	"incman/cmd/incman/cmdutil"
	"incman/cmd/incman/ui"
	"incman/pkg/sdk/inventory"

	"github.com/spf13/cobra"
)

func listCmd(socketFlag *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List instances with their current state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := cmdutil.Connect(*socketFlag)
			if err != nil {
				return err
			}
			defer session.Close()

			instances, err := inventory.Snapshot(cmd.Context(), session.Client)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(instances)
			}

			if len(instances) == 0 {
				fmt.Println(ui.Muted("no instances"))
				return nil
			}

			rows := make([][]string, 0, len(instances))
			for _, inst := range instances {
				rows = append(rows, []string{
					inst.Name,
					ui.StatusDot(inst.Status) + " " + ui.StatusText(inst.Status),
				})
			}
			fmt.Println(ui.Table([]string{"Instance", "State"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output raw JSON")
	return cmd
}
