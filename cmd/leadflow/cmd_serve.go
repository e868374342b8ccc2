package main

import (
	"github.com/spf13/cobra"

	"github.com/leadflowhq/leadflow/pkg/leadflow"
)

func newCmdServe() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the enrollment dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return leadflow.Start(nil)
		},
	}
}
