package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/leadflowhq/leadflow/pkg/leadflow/workspace"
)

func newCmdDeploy() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Execute the manifest's deployment command",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace.Load(workspacePath())
			if err != nil {
				return err
			}
			if err := ws.Validate(); err != nil {
				return err
			}
			if ws.Deployment == nil {
				return fmt.Errorf("the manifest has no deployment record")
			}
			run := workspace.NormalizeRunCommand(ws.Deployment.Run)
			slog.Info("Deploying", "target", ws.Deployment.Target, "run", run)
			c := exec.CommandContext(cmd.Context(), "sh", "-c", run)
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			if err := c.Run(); err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					// Pass the deploy command's exit status through
					os.Exit(exitErr.ExitCode())
				}
				return err
			}
			return nil
		},
	}
}
