package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/five82/snapdesk/internal/app"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "snapdesk: %v\n", err)
		return 1
	}
	return 0
}

type globalFlags struct {
	configPath string
	prefsPath  string
	logLevel   string
}

func (g *globalFlags) options(monitor bool) app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		LogLevel:   g.logLevel,
		Monitor:    monitor,
		Version:    version,
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "snapdesk",
		Short: "Desktop notifications for snap refreshes",
		Long: `snapdesk watches snapd for refreshes of running apps and reports them on
the desktop: a reminder when an update is waiting for an app to close, a
warning before snapd forces the update, progress while it runs, and a note
when it finishes.

Examples:
  # Run the notification daemon
  snapdesk

  # Watch refreshes in the terminal
  snapdesk monitor

  # Stop reminding about a pending update
  snapdesk ignore firefox`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options(false))
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config path (default: ~/.config/snapdesk/config.toml)")
	root.PersistentFlags().StringVar(&flags.prefsPath, "prefs", "", "monitor preferences path (default: ~/.config/snapdesk/prefs.toml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newMonitorCmd(flags),
		newIgnoreCmd(),
		newLogsCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newMonitorCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Show refreshes in an interactive terminal view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options(true))
		},
	}
}

func newIgnoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <snap>",
		Short: "Stop reminding about a pending refresh until the set of pending snaps changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.IgnoreSnap(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminders for %s silenced\n", args[0])
			return nil
		},
	}
}

func newLogsCmd(flags *globalFlags) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the daemon log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			color := false
			if f, ok := out.(*os.File); ok {
				color = isatty.IsTerminal(f.Fd())
			}
			return app.Logs(out, flags.configPath, lines, color)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the snapdesk version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "snapdesk %s\n", version)
		},
	}
}
