package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs sheetctl with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeScenario(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "s.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const openThenSnap = `name: open then snap
effectDelay: 1ms
steps:
  - send: OPEN
  - await: open
  - send: SNAP
    snap: {y: 80}
  - await: open
  - expect: open
`

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "sheetctl") {
		t.Error("expected help to contain 'sheetctl'")
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "1.2.3" {
		t.Errorf("version = %q", out)
	}
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	if _, err := execute(t, "invalid-command"); err == nil {
		t.Error("expected error for invalid command")
	}
}

func TestRootCommand_InvalidEnv(t *testing.T) {
	t.Setenv("SHEETX_SNAPSHOT_FORMAT", "toml")
	if _, err := execute(t, "json"); err == nil || !strings.Contains(err.Error(), "snapshot format") {
		t.Errorf("err = %v", err)
	}
}

func TestJSONCommand(t *testing.T) {
	out, err := execute(t, "json")
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid([]byte(out)) {
		t.Fatalf("not JSON: %s", out)
	}
	if !strings.Contains(out, "snappingSmoothly") {
		t.Errorf("chart JSON missing states: %s", out)
	}
}

func TestDotCommand(t *testing.T) {
	out, err := execute(t, "dot", "--id", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "digraph") || !strings.Contains(out, `"closed"`) {
		t.Errorf("dot output = %s", out)
	}
}

func TestDotCommand_IDNeedsSnapshotDir(t *testing.T) {
	t.Setenv("SHEETX_SNAPSHOT_DIR", "")
	_, err := execute(t, "dot", "--id", "sheet-1", "--snapshot-dir", "")
	if err == nil || !strings.Contains(err.Error(), "snapshot dir") {
		t.Errorf("err = %v", err)
	}
	dotID = ""
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeScenario(t, dir, openThenSnap)
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("steps: [{send: FLING}]"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good: %v", err)
	}
	if !strings.Contains(out, "(5 steps)") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "validate", good, bad)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(out, "FLING") {
		t.Errorf("output = %q", out)
	}
}

func TestRunCommand_PersistsAndRegisters(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, openThenSnap)
	snapshots := filepath.Join(dir, "snapshots")
	db := filepath.Join(dir, "registry.db")

	out, err := execute(t, "run", path, "--id", "sheet-1", "--snapshot-dir", snapshots, "--registry-db", db)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, want := range []string{"▸ open then snap", "onSnapStart", "snapping.end -> open", "PASS  final state open"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "history", "--id", "sheet-1", "--registry-db", db)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "VERSION") || !strings.Contains(out, "snapping.start") {
		t.Errorf("history output:\n%s", out)
	}

	out, err = execute(t, "history", "--id", "", "--registry-db", db)
	if err != nil || !strings.Contains(out, "sheet-1") {
		t.Errorf("history list = %q, %v", out, err)
	}

	out, err = execute(t, "dot", "--id", "sheet-1", "--snapshot-dir", snapshots)
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	if !strings.Contains(out, "digraph") {
		t.Errorf("dot output = %s", out)
	}
	dotID, runID, historyID = "", "", ""
}

func TestRunCommand_FailingExpectation(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "steps: [{expect: open}]")
	out, err := execute(t, "run", path, "--id", "", "--snapshot-dir", "", "--registry-db", "")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(out, "FAIL  final state closed") {
		t.Errorf("output = %q", out)
	}
}
