package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const starterManifest = `modules:
  - python-3.11
  - nodejs-20

nix:
  channel: stable-24_05

run: Project

workflows:
  - name: Project
    mode: parallel
    author: agent
    tasks:
      - workflow: Flask Server
      - workflow: Investigate Webhook

  - name: Flask Server
    author: agent
    tasks:
      - install: python
      - exec: python main.py
        waitForPort: 5000

  - name: Investigate Webhook
    author: agent
    tasks:
      - exec: python investigate_webhook.py

ports:
  - localPort: 80
    externalPort: 3000
  - localPort: 5000
    externalPort: 80
  - localPort: 8080
    externalPort: 8080

deployment:
  target: gce
  run: sh -c "python main.py"
`

func newCmdInit() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter workspace manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := workspacePath()
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(starterManifest), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}
