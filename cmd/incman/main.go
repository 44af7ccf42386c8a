package main

import (
	"fmt"
	"os"

	doctorcmd "incman/cmd/incman/doctor"
	historycmd "incman/cmd/incman/history"
	installcmd "incman/cmd/incman/install"
	"incman/cmd/incman/instance"
	"incman/cmd/incman/profile"
	"incman/cmd/incman/ui"
	"incman/internal/buildinfo"
	"incman/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	var (
		debug         bool
		logFormat     string
		socketPath    string
		noInteraction bool
	)
	if err := logging.Configure(logging.LevelWarn, logging.FormatText); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "incman",
		Short:         "Manage incus instances from install to teardown",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			if err := logging.Configure(level, logFormat); err != nil {
				return err
			}
			ui.ConfigureInteraction(noInteraction)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json")
	root.PersistentFlags().BoolVar(&noInteraction, "no-interaction", false, "Disable prompts and spinners")

	// Connection flag — available to all subcommands.
	root.PersistentFlags().StringVar(&socketPath, "socket", "", "Daemon unix socket path")

	root.AddCommand(instance.Cmd(&socketPath))
	root.AddCommand(profile.Cmd(&socketPath))
	root.AddCommand(installcmd.Cmd())
	root.AddCommand(doctorcmd.Cmd(&socketPath))
	root.AddCommand(historycmd.Cmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the incman version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Println(buildinfo.String())
		},
	}
}
