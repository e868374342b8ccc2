package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadflowhq/leadflow/pkg/leadflow/workspace"
)

func newCmdValidate() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the workspace manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := workspacePath()
			ws, err := workspace.Load(path)
			if err != nil {
				return err
			}
			if err := ws.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d workflows, %d port mappings\n",
				path, len(ws.Workflows), len(ws.Ports))
			return nil
		},
	}
}
