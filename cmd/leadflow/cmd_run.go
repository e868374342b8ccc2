package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leadflowhq/leadflow/internal/engine"
	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
	"github.com/leadflowhq/leadflow/pkg/leadflow/workspace"
)

func newCmdRun() *cobra.Command {
	return &cobra.Command{
		Use:   "run [workflow]",
		Short: "Run a workflow from the workspace manifest",
		Long: `Run a workflow from the workspace manifest.

Without an argument the manifest's top-level run entry is started.
The run is not recorded, use the server's run API for tracked runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace.Load(workspacePath())
			if err != nil {
				return err
			}
			if err := ws.Validate(); err != nil {
				return err
			}
			name := ws.Run
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" {
				return fmt.Errorf("no workflow named and the manifest has no run entry")
			}
			if ws.Workflow(name) == nil {
				return fmt.Errorf("unknown workflow %q", name)
			}
			runner := engine.NewRunner(ws, nil, core.RealClock{})
			return runner.ExecuteRun(cmd.Context(), uuid.NewString(), name)
		},
	}
}
