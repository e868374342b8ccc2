package workspace

import (
	"testing"
)

const referenceManifest = `
modules:
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

func TestParseReferenceManifest(t *testing.T) {
	ws, err := Parse([]byte(referenceManifest))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if err := ws.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if len(ws.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(ws.Modules))
	}
	if ws.Nix == nil || ws.Nix.Channel != "stable-24_05" {
		t.Errorf("expected nix channel stable-24_05, got %+v", ws.Nix)
	}
	if ws.Run != "Project" {
		t.Errorf("expected run Project, got %q", ws.Run)
	}
	if len(ws.Workflows) != 3 {
		t.Fatalf("expected 3 workflows, got %d", len(ws.Workflows))
	}

	project := ws.Workflow("Project")
	if project == nil {
		t.Fatal("workflow Project not found")
	}
	if project.EffectiveMode() != ModeParallel {
		t.Errorf("expected parallel mode, got %q", project.EffectiveMode())
	}

	flask := ws.Workflow("Flask Server")
	if flask == nil {
		t.Fatal("workflow Flask Server not found")
	}
	if flask.EffectiveMode() != ModeSequential {
		t.Errorf("expected sequential default mode, got %q", flask.EffectiveMode())
	}
	if len(flask.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(flask.Tasks))
	}
	if flask.Tasks[0].Install != "python" {
		t.Errorf("expected install python, got %q", flask.Tasks[0].Install)
	}
	if flask.Tasks[1].Exec != "python main.py" {
		t.Errorf("expected exec python main.py, got %q", flask.Tasks[1].Exec)
	}
	if flask.Tasks[1].WaitForPort != 5000 {
		t.Errorf("expected waitForPort 5000, got %d", flask.Tasks[1].WaitForPort)
	}

	if len(ws.Ports) != 3 {
		t.Fatalf("expected 3 ports, got %d", len(ws.Ports))
	}
	if ws.Ports[1].LocalPort != 5000 || ws.Ports[1].ExternalPort != 80 {
		t.Errorf("expected 5000->80, got %d->%d", ws.Ports[1].LocalPort, ws.Ports[1].ExternalPort)
	}

	if ws.Deployment == nil {
		t.Fatal("expected deployment record")
	}
	if ws.Deployment.Target != "gce" {
		t.Errorf("expected target gce, got %q", ws.Deployment.Target)
	}
	if ws.Deployment.Run != `sh -c "python main.py"` {
		t.Errorf("unexpected deployment run %q", ws.Deployment.Run)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("banana: true\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseRejectsMalformedYaml(t *testing.T) {
	_, err := Parse([]byte("workflows: [unclosed"))
	if err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestParseModule(t *testing.T) {
	m, err := ParseModule("python-3.11")
	if err != nil {
		t.Fatalf("ParseModule returned error: %v", err)
	}
	if m.Language != "python" || m.Version != "3.11" {
		t.Errorf("expected python/3.11, got %s/%s", m.Language, m.Version)
	}

	m, err = ParseModule("nodejs-20")
	if err != nil {
		t.Fatalf("ParseModule returned error: %v", err)
	}
	if m.Language != "nodejs" || m.Version != "20" {
		t.Errorf("expected nodejs/20, got %s/%s", m.Language, m.Version)
	}
	if m.String() != "nodejs-20" {
		t.Errorf("expected round trip nodejs-20, got %q", m.String())
	}

	for _, bad := range []string{"python", "-3.11", "python-", ""} {
		if _, err := ParseModule(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTaskKind(t *testing.T) {
	kind, err := (&Task{Exec: "python main.py"}).Kind()
	if err != nil || kind != TaskExec {
		t.Errorf("expected exec kind, got %q err %v", kind, err)
	}
	kind, err = (&Task{Install: "python"}).Kind()
	if err != nil || kind != TaskInstall {
		t.Errorf("expected install kind, got %q err %v", kind, err)
	}
	kind, err = (&Task{Workflow: "Flask Server"}).Kind()
	if err != nil || kind != TaskWorkflow {
		t.Errorf("expected workflow kind, got %q err %v", kind, err)
	}
	if _, err := (&Task{}).Kind(); err == nil {
		t.Error("expected error for empty task")
	}
	if _, err := (&Task{Exec: "a", Install: "python"}).Kind(); err == nil {
		t.Error("expected error for task with two kinds")
	}
}

func TestWorkflowLookup(t *testing.T) {
	ws, err := Parse([]byte(referenceManifest))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if ws.Workflow("Nope") != nil {
		t.Error("expected nil for unknown workflow")
	}
	def := ws.DefaultWorkflow()
	if def == nil || def.Name != "Project" {
		t.Errorf("expected default workflow Project, got %+v", def)
	}
}

func TestNormalizeRunCommand(t *testing.T) {
	cases := map[string]string{
		`sh -c "python main.py"`: "python main.py",
		`sh -c 'python main.py'`: "python main.py",
		`sh -c python main.py`:   "python main.py",
		`python main.py`:         "python main.py",
		`  sh -c "npm start"  `:  "npm start",
	}
	for in, want := range cases {
		if got := NormalizeRunCommand(in); got != want {
			t.Errorf("NormalizeRunCommand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParsedModules(t *testing.T) {
	ws := &Workspace{Modules: []string{"python-3.11", "nodejs-20"}}
	mods := ws.ParsedModules()
	if len(mods) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(mods))
	}
	if mods[0].Language != "python" || mods[1].Language != "nodejs" {
		t.Errorf("unexpected modules %+v", mods)
	}
}
