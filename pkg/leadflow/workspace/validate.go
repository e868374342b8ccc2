package workspace

import (
	"fmt"
	"strings"
)

var knownInstallTargets = map[string]bool{
	"python": true,
	"nodejs": true,
}

var knownDeployTargets = map[string]bool{
	"gce":       true,
	"cloudrun":  true,
	"autoscale": true,
	"static":    true,
	"vm":        true,
}

// Validate checks the manifest's cross references and value ranges:
// module declarations parse, workflow names are unique and every
// reference resolves without cycles, ports are in range with unique
// local ports, and the deployment run command matches a declared task.
func (w *Workspace) Validate() error {
	seenModules := make(map[string]bool)
	for i, s := range w.Modules {
		if _, err := ParseModule(s); err != nil {
			return fmt.Errorf("modules[%d]: %w", i, err)
		}
		if seenModules[s] {
			return fmt.Errorf("modules[%d]: duplicate %q", i, s)
		}
		seenModules[s] = true
	}

	if w.Nix != nil && w.Nix.Channel == "" {
		return fmt.Errorf("nix.channel: required")
	}

	names := make(map[string]bool)
	for i := range w.Workflows {
		wf := &w.Workflows[i]
		if wf.Name == "" {
			return fmt.Errorf("workflows[%d].name: required", i)
		}
		if names[wf.Name] {
			return fmt.Errorf("workflows[%d].name: duplicate %q", i, wf.Name)
		}
		names[wf.Name] = true
	}

	for i := range w.Workflows {
		wf := &w.Workflows[i]
		switch wf.Mode {
		case "", ModeSequential, ModeParallel:
		default:
			return fmt.Errorf("workflows[%d].mode: unknown mode %q", i, wf.Mode)
		}
		if len(wf.Tasks) == 0 {
			return fmt.Errorf("workflows[%d].tasks: at least one task is required", i)
		}
		for j := range wf.Tasks {
			if err := validateTask(&wf.Tasks[j], names); err != nil {
				return fmt.Errorf("workflows[%d].tasks[%d]: %w", i, j, err)
			}
		}
	}

	if w.Run != "" && !names[w.Run] {
		return fmt.Errorf("run: unknown workflow %q", w.Run)
	}

	if err := w.checkWorkflowCycles(); err != nil {
		return err
	}

	seenPorts := make(map[int]bool)
	for i, p := range w.Ports {
		if p.LocalPort == 0 {
			return fmt.Errorf("ports[%d].localPort: 0 is not routable", i)
		}
		if p.LocalPort < 0 || p.LocalPort > 65535 {
			return fmt.Errorf("ports[%d].localPort: %d out of range 0-65535", i, p.LocalPort)
		}
		if p.ExternalPort < 0 || p.ExternalPort > 65535 {
			return fmt.Errorf("ports[%d].externalPort: %d out of range 0-65535", i, p.ExternalPort)
		}
		if seenPorts[p.LocalPort] {
			return fmt.Errorf("ports[%d].localPort: duplicate %d", i, p.LocalPort)
		}
		seenPorts[p.LocalPort] = true
	}

	if w.Deployment != nil {
		if w.Deployment.Target == "" {
			return fmt.Errorf("deployment.target: required")
		}
		if !knownDeployTargets[w.Deployment.Target] {
			return fmt.Errorf("deployment.target: unknown target %q", w.Deployment.Target)
		}
		if w.Deployment.Run == "" {
			return fmt.Errorf("deployment.run: required")
		}
		if !w.matchesTaskCommand(w.Deployment.Run) {
			return fmt.Errorf("deployment.run: %q does not match any workflow task command", w.Deployment.Run)
		}
	}

	return nil
}

func validateTask(t *Task, names map[string]bool) error {
	kind, err := t.Kind()
	if err != nil {
		return err
	}
	switch kind {
	case TaskWorkflow:
		if !names[t.Workflow] {
			return fmt.Errorf("workflow: unknown workflow %q", t.Workflow)
		}
	case TaskInstall:
		if !knownInstallTargets[t.Install] {
			return fmt.Errorf("install: unknown target %q", t.Install)
		}
	}
	if t.WaitForPort != 0 {
		if kind != TaskExec {
			return fmt.Errorf("waitForPort: only valid on exec tasks")
		}
		if t.WaitForPort < 1 || t.WaitForPort > 65535 {
			return fmt.Errorf("waitForPort: %d out of range 0-65535", t.WaitForPort)
		}
	}
	return nil
}

// checkWorkflowCycles walks workflow reference tasks depth first so a
// manifest cannot make the runner recurse forever.
func (w *Workspace) checkWorkflowCycles() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int)

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("workflows: reference cycle %s -> %s", strings.Join(path, " -> "), name)
		}
		state[name] = visiting
		wf := w.Workflow(name)
		if wf != nil {
			for _, t := range wf.Tasks {
				if t.Workflow != "" {
					if err := visit(t.Workflow, append(path, name)); err != nil {
						return err
					}
				}
			}
		}
		state[name] = done
		return nil
	}

	for i := range w.Workflows {
		if err := visit(w.Workflows[i].Name, nil); err != nil {
			return err
		}
	}
	return nil
}

// matchesTaskCommand reports whether the deployment run command equals
// the shell command of some exec task, after unwrapping sh -c on both
// sides.
func (w *Workspace) matchesTaskCommand(run string) bool {
	want := NormalizeRunCommand(run)
	for i := range w.Workflows {
		for _, t := range w.Workflows[i].Tasks {
			if t.Exec != "" && NormalizeRunCommand(t.Exec) == want {
				return true
			}
		}
	}
	return false
}

// NormalizeRunCommand strips an outer sh -c wrapper and its quotes so
// `sh -c "python main.py"` compares equal to `python main.py`.
func NormalizeRunCommand(run string) string {
	s := strings.TrimSpace(run)
	rest, ok := strings.CutPrefix(s, "sh -c ")
	if !ok {
		return s
	}
	rest = strings.TrimSpace(rest)
	if len(rest) >= 2 {
		if (rest[0] == '"' && rest[len(rest)-1] == '"') || (rest[0] == '\'' && rest[len(rest)-1] == '\'') {
			return rest[1 : len(rest)-1]
		}
	}
	return rest
}
