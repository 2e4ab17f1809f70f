package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mockct/internal/testutil"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	testutil.WriteFile(t, path, `
judge:
  baseURL: https://judge.example.com
workspace:
  defaultFiletype: cpp
submit:
  requireSamplesPass: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	testutil.AssertEqual(t, cfg.Judge.BaseURL, "https://judge.example.com")
	testutil.AssertEqual(t, cfg.Judge.Timeout, DefaultTimeout)
	testutil.AssertEqual(t, cfg.Workspace.TestcaseDir, DefaultTestcaseDir)
	testutil.AssertEqual(t, cfg.Filetypes["cpp"].Main, "main.cc")
	testutil.AssertEqual(t, cfg.Run.CaseTimeout, DefaultCaseTimeout)
	testutil.AssertFalse(t, cfg.RequireSamplesPass(), "explicit false must be kept")
	testutil.AssertTrue(t, cfg.ConfirmSubmit(), "confirm defaults to true")
}

func TestLoadKeepsCustomFiletype(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	testutil.WriteFile(t, path, `
workspace:
  defaultFiletype: go
filetypes:
  go:
    language: go
    main: main.go
    run: go run {main}
run:
  caseTimeout: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	testutil.AssertEqual(t, cfg.Filetypes["go"].Run, "go run {main}")
	testutil.AssertEqual(t, cfg.Filetypes["py"].Main, "main.py")
	testutil.AssertEqual(t, cfg.Filetypes["py"].Compile, "python3 -m py_compile {main}")
	testutil.AssertEqual(t, cfg.Run.CaseTimeout, 2*time.Second)
}

func TestLoadRejectsUnknownDefaultFiletype(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	testutil.WriteFile(t, path, "workspace:\n  defaultFiletype: rust\n")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "rust") {
		t.Fatalf("expected filetype error, got %v", err)
	}
}

func TestResolvePrefersWorkingDirectory(t *testing.T) {
	cwd := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, ok := Resolve(cwd); ok {
		t.Fatal("no config should be found in empty dirs")
	}

	local := filepath.Join(cwd, ".mockct", "config.yaml")
	testutil.WriteFile(t, local, "judge:\n  baseURL: http://local\n")
	path, ok := Resolve(cwd)
	testutil.AssertTrue(t, ok, "local config should be found")
	testutil.AssertEqual(t, path, local)
}
