package main

import (
	"github.com/spf13/cobra"

	"github.com/leadflowhq/leadflow/internal/investigate"
	"github.com/leadflowhq/leadflow/internal/webhook"
	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
)

func newCmdInvestigate() *cobra.Command {
	var officer string
	var caseID string

	cmd := &cobra.Command{
		Use:   "investigate",
		Short: "Report one officer's webhook feed entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := webhook.NewClientFromConfig(core.RealClock{})
			events, err := client.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			a := investigate.New()
			a.Officer = officer
			a.CaseID = caseID
			return a.WriteReport(cmd.OutOrStdout(), events)
		},
	}

	cmd.Flags().StringVar(&officer, "officer", investigate.DefaultOfficer, "Officer whose entries to report")
	cmd.Flags().StringVar(&caseID, "case", investigate.DefaultCaseID, "Case id to flag in the report")
	return cmd
}
