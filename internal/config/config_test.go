package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Set only required env var
	os.Setenv("WORKBOOK_PATHS", "mockData.xlsx")
	defer os.Unsetenv("WORKBOOK_PATHS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify defaults
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8889 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8889)
	}
	if cfg.Watcher.Debounce != 3*time.Second {
		t.Errorf("Watcher.Debounce = %v, want %v", cfg.Watcher.Debounce, 3*time.Second)
	}
	if cfg.Reload.Attempts != 3 {
		t.Errorf("Reload.Attempts = %d, want %d", cfg.Reload.Attempts, 3)
	}
	if cfg.Reload.ReadDelay != 300*time.Millisecond {
		t.Errorf("Reload.ReadDelay = %v, want %v", cfg.Reload.ReadDelay, 300*time.Millisecond)
	}
	if cfg.Events.KeepAlive != 15*time.Second {
		t.Errorf("Events.KeepAlive = %v, want %v", cfg.Events.KeepAlive, 15*time.Second)
	}
}

func TestLoad_PathList(t *testing.T) {
	os.Setenv("WORKBOOK_PATHS", "a.xlsx, //server/shared/projects.xlsx ,b.xlsm")
	defer os.Unsetenv("WORKBOOK_PATHS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"a.xlsx", "//server/shared/projects.xlsx", "b.xlsm"}
	if len(cfg.Sources.Paths) != len(want) {
		t.Fatalf("Sources.Paths = %v, want %v", cfg.Sources.Paths, want)
	}
	for i := range want {
		if cfg.Sources.Paths[i] != want[i] {
			t.Errorf("Sources.Paths[%d] = %q, want %q", i, cfg.Sources.Paths[i], want[i])
		}
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	os.Setenv("WORKBOOK_PATHS", "mockData.xlsx")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("WATCH_DEBOUNCE", "5s")
	os.Setenv("LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("WORKBOOK_PATHS")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("WATCH_DEBOUNCE")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Watcher.Debounce != 5*time.Second {
		t.Errorf("Watcher.Debounce = %v, want %v", cfg.Watcher.Debounce, 5*time.Second)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("WORKBOOK_PATHS")

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without WORKBOOK_PATHS, want error")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "SERVER_PORT", "not-a-number"},
		{"port out of range", "SERVER_PORT", "70000"},
		{"bad duration", "WATCH_DEBOUNCE", "fast"},
		{"bad level", "LOG_LEVEL", "verbose"},
		{"keepalive below poll", "EVENTS_KEEPALIVE", "1ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("WORKBOOK_PATHS", "mockData.xlsx")
			os.Setenv(tt.key, tt.value)
			defer func() {
				os.Unsetenv("WORKBOOK_PATHS")
				os.Unsetenv(tt.key)
			}()

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q succeeded, want error", tt.key, tt.value)
			}
		})
	}
}
