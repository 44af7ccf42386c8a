package instance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"incman/cmd/incman/cmdutil"
	"incman/cmd/incman/ui"
	"incman/pkg/sdk/lifecycle"

	"github.com/spf13/cobra"
)

// noProfile is the picker entry for launching without a profile.
const noProfile = "(none)"

func launchCmd(socketFlag *string) *cobra.Command {
	var image, profile string

	cmd := &cobra.Command{
		Use:   "launch <name>",
		Short: "Create and start an instance from an image",
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

			if image == "" {
				image, err = ui.Select("Image for "+name, session.Config.ImageChoices(), "use --image <value>")
				if err != nil {
					return err
				}
			}

			if profile == "" && ui.IsInteractive() {
				profile, err = pickProfile(cmd.Context(), session)
				if err != nil {
					return err
				}
			}

			err = session.Journal(cmd.Context(), "launch", name, func(ctx context.Context) error {
				return ui.RunWithSpinner(ctx, "Launching "+name, func(ctx context.Context) error {
					return session.Engine.Launch(ctx, name, image, profile)
				})
			})
			if err != nil {
				var attachErr *lifecycle.ProfileAttachError
				if errors.As(err, &attachErr) {
					fmt.Println(ui.WarnMsg("instance %s is created; profile %s did not attach", ui.Accent(name), attachErr.Profile))
				}
				return err
			}

			fmt.Println(ui.SuccessMsg("launched %s from %s", ui.Accent(name), image))
			if profile != "" {
				fmt.Println(ui.Muted("  profile " + profile + " attached"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "Image to launch, e.g. images:ubuntu/24.04")
	cmd.Flags().StringVar(&profile, "profile", "", "Profile to attach after create")
	return cmd
}

// pickProfile offers the host's custom profiles. A failed listing skips
// the prompt rather than blocking the launch; the launch itself will
// surface a broken CLI.
func pickProfile(ctx context.Context, session *cmdutil.Session) (string, error) {
	names, err := session.Runner.ProfileNames(ctx)
	if err != nil {
		slog.Debug("Profile listing failed, launching without one.", "error", err)
		return "", nil
	}
	if len(names) == 0 {
		return "", nil
	}

	choice, err := ui.Select("Profile", append([]string{noProfile}, names...), "use --profile <value>")
	if err != nil {
		return "", err
	}
	if choice == noProfile {
		return "", nil
	}
	return choice, nil
}
