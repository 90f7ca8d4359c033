package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gridhold/server/internal/telemetry"
	"gridhold/server/logging"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(map[string]string{})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.TickInterval != 600*time.Millisecond || cfg.QueueDepth != 256 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.LogSinks) != 1 || cfg.LogSinks[0] != logging.SinkConsole {
		t.Fatalf("expected console sink by default, got %v", cfg.LogSinks)
	}
	if cfg.LogMinSeverity != logging.SeverityInfo || !cfg.MetricsEnabled {
		t.Fatalf("expected info severity and metrics on, got %v %v", cfg.LogMinSeverity, cfg.MetricsEnabled)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(map[string]string{
		"GRIDHOLD_ADDR":             "127.0.0.1:9000",
		"GRIDHOLD_TICK_INTERVAL":    "100ms",
		"GRIDHOLD_LOG_SINKS":        "console,json",
		"GRIDHOLD_LOG_MIN_SEVERITY": "warn",
		"GRIDHOLD_MEMBERS":          "true",
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.TickInterval != 100*time.Millisecond || !cfg.Members {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.LogSinks) != 2 || cfg.LogMinSeverity != logging.SeverityWarn {
		t.Fatalf("logging overrides not applied: %v %v", cfg.LogSinks, cfg.LogMinSeverity)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := map[string]map[string]string{
		"zero tick":    {"GRIDHOLD_TICK_INTERVAL": "0s"},
		"bad duration": {"GRIDHOLD_TICK_INTERVAL": "soon"},
		"unknown sink": {"GRIDHOLD_LOG_SINKS": "syslog"},
		"bad severity": {"GRIDHOLD_LOG_MIN_SEVERITY": "loud"},
		"no queue":     {"GRIDHOLD_QUEUE_DEPTH": "0"},
		"no cmd queue": {"GRIDHOLD_COMMAND_QUEUE_LIMIT": "-1"},
	}
	for name, environ := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(environ); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestBuildWiresComponents(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	if err := os.MkdirAll(scripts, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scripts, "login.lua"), []byte("function on_login(index) send_message(index, 'hi') end"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	cfg, err := LoadConfig(map[string]string{
		"GRIDHOLD_SCRIPTS_DIR":    scripts,
		"GRIDHOLD_DEFINITIONS_DB": filepath.Join(dir, "defs.db"),
		"GRIDHOLD_LOG_SINKS":      "json",
		"GRIDHOLD_LOG_JSON_PATH":  filepath.Join(dir, "events.jsonl"),
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	var logged []string
	logger := telemetry.LoggerFunc(func(format string, args ...any) {
		logged = append(logged, format)
	})
	s, err := Build(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := s.Hub.Join("wired"); err != nil {
		t.Fatalf("join: %v", err)
	}

	resp := httptest.NewRecorder()
	s.Handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "gridhold_counter_total") {
		t.Fatalf("expected metrics with the join counter, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	s.Handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/diagnostics", nil))
	var diag struct {
		Players []json.RawMessage `json:"players"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &diag); err != nil || len(diag.Players) != 1 {
		t.Fatalf("expected one player in diagnostics, got %s (%v)", resp.Body.String(), err)
	}

	s.Close()

	data, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("read json log: %v", err)
	}
	if !strings.Contains(string(data), "lifecycle.player_joined") {
		t.Fatalf("expected join event in the json log, got %s", data)
	}
	if len(logged) < 2 {
		t.Fatalf("expected definition and script load logs, got %v", logged)
	}
}

func TestBuildFailsOnMissingScripts(t *testing.T) {
	cfg, err := LoadConfig(map[string]string{
		"GRIDHOLD_SCRIPTS_DIR": filepath.Join(t.TempDir(), "missing"),
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if _, err := Build(context.Background(), cfg, telemetry.LoggerFunc(nil)); err == nil {
		t.Fatalf("expected a missing scripts directory to fail the build")
	}
}

func TestCheckScripts(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "ok.lua"), []byte("x = 1"), 0o644)
	os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("x = ("), 0o644)

	loaded, skipped, err := CheckScripts(dir, telemetry.LoggerFunc(nil))
	if err != nil {
		t.Fatalf("check scripts: %v", err)
	}
	if len(loaded) != 1 || len(skipped) != 1 || filepath.Base(skipped[0]) != "bad.lua" {
		t.Fatalf("expected one loaded and bad.lua skipped, got %v / %v", loaded, skipped)
	}
}
