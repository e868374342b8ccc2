package main

import (
	"github.com/spf13/cobra"

	"github.com/leadflowhq/leadflow/internal/forward"
	"github.com/leadflowhq/leadflow/pkg/leadflow/workspace"
)

func newCmdForward() *cobra.Command {
	return &cobra.Command{
		Use:   "forward",
		Short: "Forward the manifest's external ports to local ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace.Load(workspacePath())
			if err != nil {
				return err
			}
			if err := ws.Validate(); err != nil {
				return err
			}
			return forward.New(ws.Ports).Start(cmd.Context())
		},
	}
}
