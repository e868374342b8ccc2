package workspace

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Workspace is the parsed workspace.yml manifest. It declares which
// language runtimes a project needs, the workflows the runner can
// execute, the port mappings to apply and the deployment record.
type Workspace struct {
	Modules    []string      `yaml:"modules,omitempty"`
	Nix        *Nix          `yaml:"nix,omitempty"`
	Run        string        `yaml:"run,omitempty"`
	Workflows  []Workflow    `yaml:"workflows,omitempty"`
	Ports      []PortMapping `yaml:"ports,omitempty"`
	Deployment *Deployment   `yaml:"deployment,omitempty"`
}

// Nix pins the package channel runtimes are provisioned from.
type Nix struct {
	Channel string `yaml:"channel"`
}

// Workflow is a named, orderable group of tasks.
type Workflow struct {
	Name   string `yaml:"name"`
	Author string `yaml:"author,omitempty"`
	Mode   string `yaml:"mode,omitempty"`
	Tasks  []Task `yaml:"tasks"`
}

const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// EffectiveMode resolves the default when no mode is declared.
func (w *Workflow) EffectiveMode() string {
	if w.Mode == "" {
		return ModeSequential
	}
	return w.Mode
}

// Task is a single step within a workflow. Exactly one of Workflow,
// Exec or Install must be set. WaitForPort only applies to Exec tasks:
// the task counts as ready once the port accepts connections while the
// command keeps running.
type Task struct {
	Workflow    string `yaml:"workflow,omitempty"`
	Exec        string `yaml:"exec,omitempty"`
	WaitForPort int    `yaml:"waitForPort,omitempty"`
	Install     string `yaml:"install,omitempty"`
}

type TaskKind string

const (
	TaskWorkflow TaskKind = "workflow"
	TaskExec     TaskKind = "exec"
	TaskInstall  TaskKind = "install"
)

// Kind reports which of the three task shapes this is.
func (t *Task) Kind() (TaskKind, error) {
	var kinds []TaskKind
	if t.Workflow != "" {
		kinds = append(kinds, TaskWorkflow)
	}
	if t.Exec != "" {
		kinds = append(kinds, TaskExec)
	}
	if t.Install != "" {
		kinds = append(kinds, TaskInstall)
	}
	if len(kinds) == 0 {
		return "", fmt.Errorf("one of workflow, exec or install is required")
	}
	if len(kinds) > 1 {
		return "", fmt.Errorf("workflow, exec and install are mutually exclusive")
	}
	return kinds[0], nil
}

// PortMapping associates an internally bound port with an externally
// reachable one.
type PortMapping struct {
	LocalPort    int `yaml:"localPort"`
	ExternalPort int `yaml:"externalPort"`
}

// Deployment names the production execution environment and the command
// it runs.
type Deployment struct {
	Target string `yaml:"target"`
	Run    string `yaml:"run"`
}

// Module is a language runtime requirement, declared in the manifest as
// "<language>-<version>".
type Module struct {
	Language string
	Version  string
}

func (m Module) String() string {
	return m.Language + "-" + m.Version
}

// ParseModule splits a declaration such as "python-3.11" into language
// and version.
func ParseModule(s string) (Module, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 || i == len(s)-1 {
		return Module{}, fmt.Errorf("module %q: want <language>-<version>", s)
	}
	return Module{Language: s[:i], Version: s[i+1:]}, nil
}

// ParsedModules returns the module declarations as language/version
// pairs. The manifest must have passed Validate first.
func (w *Workspace) ParsedModules() []Module {
	mods := make([]Module, 0, len(w.Modules))
	for _, s := range w.Modules {
		m, err := ParseModule(s)
		if err != nil {
			continue
		}
		mods = append(mods, m)
	}
	return mods
}

// Workflow looks a workflow up by name, nil when undefined.
func (w *Workspace) Workflow(name string) *Workflow {
	for i := range w.Workflows {
		if w.Workflows[i].Name == name {
			return &w.Workflows[i]
		}
	}
	return nil
}

// DefaultWorkflow resolves the top level run entry, nil when unset.
func (w *Workspace) DefaultWorkflow() *Workflow {
	if w.Run == "" {
		return nil
	}
	return w.Workflow(w.Run)
}

// Load reads and parses a manifest file. Validation is a separate step
// so callers can report parse and semantic problems apart.
func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace file: %w", err)
	}
	ws, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ws, nil
}

// Parse decodes manifest YAML. Unknown fields are rejected.
func Parse(data []byte) (*Workspace, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var ws Workspace
	if err := dec.Decode(&ws); err != nil {
		return nil, err
	}
	return &ws, nil
}
