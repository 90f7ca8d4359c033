package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "gridhold dev") {
		t.Fatalf("expected version line, got %q", out)
	}
}

func TestCheckScripts(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ok.lua"), []byte("function on_login(i) end"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := run(t, "check-scripts", dir)
	if err != nil {
		t.Fatalf("check-scripts: %v", err)
	}
	if !strings.Contains(out, "1 loaded, 0 failed") {
		t.Fatalf("expected summary, got %q", out)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("function ("), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err = run(t, "check-scripts", dir)
	if err == nil {
		t.Fatalf("expected failure with a broken script")
	}
	if !strings.Contains(out, "bad.lua") {
		t.Fatalf("expected the broken file to be reported, got %q", out)
	}
}

func TestCheckScriptsRequiresDir(t *testing.T) {
	if _, err := run(t, "check-scripts"); err == nil {
		t.Fatalf("expected an argument error")
	}
}
