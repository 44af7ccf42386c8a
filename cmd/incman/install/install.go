// Package installcmd holds the host bootstrap command.
package installcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"incman/cmd/incman/cmdutil"
	"incman/cmd/incman/ui"
	"incman/config"
	"incman/internal/history"
	"incman/internal/install"
	"incman/pkg/sdk/incusrun"

	"github.com/spf13/cobra"
)

// defaultPreseedPath mirrors the setup wizard's output file: written next
// to the invocation, applied later by incus admin init.
const defaultPreseedPath = "incus-preseed.yaml"

// Cmd returns the "incman install" command.
func Cmd() *cobra.Command {
	var (
		channel     string
		useNative   bool
		network     string
		storage     string
		preseedPath string
		planOnly    bool
		yes         bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the incus daemon on this host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("network") {
				network = cfg.Bridge()
			}
			if !cmd.Flags().Changed("storage") {
				storage = cfg.Pool()
			}

			runner := incusrun.New()
			if runner.Installed() && !planOnly {
				fmt.Println(ui.SuccessMsg("%s is already installed", runner.Binary()))
				fmt.Println(ui.Muted("  run incman doctor to verify the setup"))
				return nil
			}

			facts, err := install.CurrentFacts()
			if err != nil {
				return err
			}

			plan, err := install.PlanInstall(facts, install.Options{
				Channel:   channel,
				UseNative: useNative,
			})
			if err != nil {
				var unsupported *install.UnsupportedPlatformError
				if errors.As(err, &unsupported) {
					return fmt.Errorf("%w; install incus manually and rerun incman", err)
				}
				return err
			}

			printPlan(facts, plan, network, storage)
			if versions := runner.AvailableVersions(cmd.Context()); len(versions) > 0 {
				fmt.Println(ui.Muted("  packaged versions: " + strings.Join(versions, ", ")))
			}

			if planOnly {
				return nil
			}

			if os.Geteuid() != 0 {
				return fmt.Errorf("install runs privileged steps; rerun with sudo, or pass --plan-only to preview")
			}

			if !yes {
				confirmed, err := ui.Confirm(
					fmt.Sprintf("Run %d privileged steps on this host?", len(plan.Steps)),
					"use --yes to skip",
				)
				if err != nil {
					return err
				}
				if !confirmed {
					return nil
				}
			}

			journal, err := history.Open(history.DefaultPath())
			if err != nil {
				slog.Debug("Operation journal unavailable.", "error", err)
				journal = nil
			}
			defer func() { _ = journal.Close() }()

			telemetryOut := ui.NewTelemetryOutput()
			defer telemetryOut.Close()

			if err := cmdutil.JournalInto(cmd.Context(), journal, "install", "", func(ctx context.Context) error {
				if err := install.WritePreseed(preseedPath, install.DefaultPreseed(network, storage)); err != nil {
					return err
				}
				executor := install.NewExecutor(install.WithTracer(telemetryOut.Tracer("incman/cmd/install")))
				return executor.Execute(ctx, plan)
			}); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("incus installed"))
			fmt.Println(ui.Muted("  first-run config written to " + preseedPath))
			fmt.Println(ui.Muted("  apply it with: incus admin init --preseed < " + preseedPath))
			if plan.RebootRequired {
				fmt.Println(ui.WarnMsg("log out and back in, or reboot, so the incus-admin membership applies"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", install.ChannelStable, "Package channel: daily, stable, or lts")
	cmd.Flags().BoolVar(&useNative, "use-native", false, "Prefer the distribution's own package when possible")
	cmd.Flags().StringVar(&network, "network", config.DefaultNetwork, "Bridge name for the preseed")
	cmd.Flags().StringVar(&storage, "storage", config.DefaultStorage, "Storage pool name for the preseed")
	cmd.Flags().StringVar(&preseedPath, "preseed-path", defaultPreseedPath, "Where to write the first-run preseed")
	cmd.Flags().BoolVar(&planOnly, "plan-only", false, "Print the plan without executing it")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func printPlan(facts install.Facts, plan install.InstallPlan, network, storage string) {
	fmt.Println(ui.InfoMsg("install plan for %s %s", facts.Distro, facts.Version))

	rows := make([][]string, 0, len(plan.Steps))
	for i, step := range plan.Steps {
		rows = append(rows, []string{strconv.Itoa(i + 1), step.ID, step.Title})
	}
	fmt.Println(ui.Table([]string{"#", "Step", "Action"}, rows))

	fmt.Print(ui.KeyValues("  ",
		ui.KV("bridge", network),
		ui.KV("storage pool", storage),
		ui.KV("re-login needed", ui.Bool(plan.RebootRequired)),
	))
}
