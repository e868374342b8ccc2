package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leadflowhq/leadflow/pkg/leadflow/workspace"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInitCommandWritesValidManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.yml")

	if _, err := runCommand(t, "init", "--workspace", path); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ws, err := workspace.Load(path)
	if err != nil {
		t.Fatalf("starter manifest does not load: %v", err)
	}
	if err := ws.Validate(); err != nil {
		t.Fatalf("starter manifest does not validate: %v", err)
	}
	if ws.Run != "Project" {
		t.Errorf("expected run entry Project, got %q", ws.Run)
	}
	if len(ws.Ports) != 3 {
		t.Errorf("expected 3 port mappings, got %d", len(ws.Ports))
	}
}

func TestInitCommandRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.yml")
	if err := os.WriteFile(path, []byte("run: Nothing\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCommand(t, "init", "--workspace", path)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected an already exists error, got %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.yml")
	if _, err := runCommand(t, "init", "--workspace", path); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	out, err := runCommand(t, "validate", "--workspace", path)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "is valid") {
		t.Errorf("expected a validity report, got %q", out)
	}
}

func TestValidateCommandRejectsBrokenManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.yml")
	broken := "run: Missing\nworkflows:\n  - name: Other\n    tasks:\n      - exec: \"true\"\n"
	if err := os.WriteFile(path, []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCommand(t, "validate", "--workspace", path)
	if err == nil || !strings.Contains(err.Error(), "unknown workflow") {
		t.Errorf("expected an unknown workflow error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "leadflow version") {
		t.Errorf("unexpected version output %q", out)
	}
}
