package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leadflowhq/leadflow/internal/config"
	"github.com/leadflowhq/leadflow/pkg/leadflow"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "leadflow",
		Short:   "Workspace runner and enrollment dashboard",
		Long:    "leadflow runs workspace manifests, forwards ports, and serves the sales enrollment dashboard.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help by default when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("workspace", "", "Workspace manifest file (env "+config.WORKSPACE_FILE+", default workspace.yml)")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		if c.Flags().Changed("workspace") {
			path, _ := c.Flags().GetString("workspace")
			if err := os.Setenv(config.WORKSPACE_FILE, path); err != nil {
				return err
			}
		}
		levelName, _ := c.Flags().GetString("log-level")
		level, err := parseLogLevel(levelName)
		if err != nil {
			return err
		}
		leadflow.SetupLogger(level)
		return nil
	}

	cmd.AddCommand(newCmdServe())
	cmd.AddCommand(newCmdRun())
	cmd.AddCommand(newCmdValidate())
	cmd.AddCommand(newCmdForward())
	cmd.AddCommand(newCmdDeploy())
	cmd.AddCommand(newCmdInvestigate())
	cmd.AddCommand(newCmdInit())
	cmd.AddCommand(newCmdVersion())
	return cmd
}

func parseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

func workspacePath() string {
	return config.GetSystemSettingString(config.WORKSPACE_FILE)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetContext(ctx)
	if _, err := root.ExecuteC(); err != nil {
		slog.Error("Failed", "error", err)
		os.Exit(1)
	}
}
