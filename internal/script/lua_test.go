package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gridhold/server/internal/telemetry"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLuaHostLoadAllSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.lua", "function on_login(index) greet(index, 'Welcome') end")
	writeScript(t, dir, "nested/commands.lua", "function on_command(index, cmd) greet(index, cmd) end")
	writeScript(t, dir, "broken.lua", "function (")
	writeScript(t, dir, "notes.txt", "not a script")

	var logged []string
	host := NewLuaHost(telemetry.LoggerFunc(func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}))
	if err := host.LoadAll(dir); err != nil {
		t.Fatalf("load all: %v", err)
	}
	if got := len(host.Loaded()); got != 2 {
		t.Fatalf("expected 2 loaded scripts, got %d", got)
	}
	if skipped := host.Skipped(); len(skipped) != 1 || filepath.Base(skipped[0]) != "broken.lua" {
		t.Fatalf("expected broken.lua skipped, got %v", skipped)
	}
	if len(logged) != 1 || !strings.Contains(logged[0], "broken.lua") {
		t.Fatalf("expected the broken script to be logged, got %v", logged)
	}

	var calls [][]any
	host.Register("greet", func(args []any) ([]any, error) {
		calls = append(calls, args)
		return nil, nil
	})

	if err := host.Invoke("on_login", 7); err != nil {
		t.Fatalf("invoke on_login: %v", err)
	}
	if err := host.Invoke("on_command", 7, "yell hi"); err != nil {
		t.Fatalf("invoke on_command: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 greet calls, got %d", len(calls))
	}
	if calls[0][0] != int64(7) || calls[0][1] != "Welcome" {
		t.Fatalf("expected (7, Welcome), got %v", calls[0])
	}
	if calls[1][1] != "yell hi" {
		t.Fatalf("expected command text to pass through, got %v", calls[1])
	}
}

func TestLuaHostInvokeErrors(t *testing.T) {
	host := NewLuaHost(nil)
	dir := t.TempDir()
	writeScript(t, dir, "fail.lua", `
function explode() error("boom") end
function refuse() deny() end
function twice(n) return double(n) end
`)
	if err := host.LoadAll(dir); err != nil {
		t.Fatalf("load all: %v", err)
	}
	host.Register("deny", func([]any) ([]any, error) { return nil, errors.New("not allowed") })
	host.Register("double", func(args []any) ([]any, error) {
		n, err := ArgInt(args, 0)
		if err != nil {
			return nil, err
		}
		return []any{n * 2}, nil
	})

	if err := host.Invoke("missing"); !errors.Is(err, ErrNoSuchFunction) {
		t.Fatalf("expected ErrNoSuchFunction, got %v", err)
	}
	if err := host.Invoke("explode"); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected script error, got %v", err)
	}
	if err := host.Invoke("refuse"); err == nil || !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("expected Go error to surface, got %v", err)
	}
	if err := host.Invoke("twice", 4); err != nil {
		t.Fatalf("expected results to be pushed, got %v", err)
	}
	if err := host.Invoke("twice", struct{}{}); err == nil {
		t.Fatalf("expected unsupported argument error")
	}
	if err := host.Invoke("twice", 2); err != nil {
		t.Fatalf("expected the host to recover after errors, got %v", err)
	}
}

func TestLoadAllMissingDir(t *testing.T) {
	host := NewLuaHost(nil)
	if err := host.LoadAll(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected missing directory to fail")
	}
}

func TestNopHost(t *testing.T) {
	var host Host = Nop{}
	if err := host.Invoke("on_login", 1); !errors.Is(err, ErrNoSuchFunction) {
		t.Fatalf("expected ErrNoSuchFunction, got %v", err)
	}
	if err := host.LoadAll("anything"); err != nil {
		t.Fatalf("expected nop load to succeed, got %v", err)
	}
}

func TestArgs(t *testing.T) {
	args := []any{int64(3), 4.0, 4.5, "x"}
	if n, err := ArgInt(args, 0); err != nil || n != 3 {
		t.Fatalf("expected 3, got %d %v", n, err)
	}
	if n, err := ArgInt(args, 1); err != nil || n != 4 {
		t.Fatalf("expected 4, got %d %v", n, err)
	}
	if _, err := ArgInt(args, 2); err == nil {
		t.Fatalf("expected fractional number to fail")
	}
	if _, err := ArgInt(args, 9); err == nil {
		t.Fatalf("expected missing argument to fail")
	}
	if s, err := ArgString(args, 3); err != nil || s != "x" {
		t.Fatalf("expected x, got %q %v", s, err)
	}
	if _, err := ArgString(args, 0); err == nil {
		t.Fatalf("expected type mismatch")
	}
}
