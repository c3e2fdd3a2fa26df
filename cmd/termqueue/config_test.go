package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lixenwraith/termqueue/queue"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(nil, envMap(nil), io.Discard)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Queue != queue.DefaultConfig() {
		t.Errorf("Expected default queue config, got %+v", cfg.Queue)
	}
	if cfg.Source != sourceScreen {
		t.Errorf("Expected screen source, got %q", cfg.Source)
	}
}

func TestLoadConfig_EnvThenFlags(t *testing.T) {
	env := envMap(map[string]string{
		"TERMQUEUE_BATCH_WINDOW": "40ms",
		"TERMQUEUE_TICK_PERIOD":  "1s",
		"TERMQUEUE_SOURCE":       "keys",
		"TERMQUEUE_FAULT_POLICY": "deliver",
		"TERMQUEUE_BELL":         "true",
	})

	cfg, err := loadConfig([]string{"-tick", "500ms", "-source", "tty"}, env, io.Discard)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Queue.BatchWindow != 40*time.Millisecond {
		t.Errorf("Expected env batch window 40ms, got %v", cfg.Queue.BatchWindow)
	}
	if cfg.Queue.TickPeriod != 500*time.Millisecond {
		t.Errorf("Expected flag to override env tick, got %v", cfg.Queue.TickPeriod)
	}
	if cfg.Source != sourceTTY {
		t.Errorf("Expected flag source tty, got %q", cfg.Source)
	}
	if cfg.Queue.FaultPolicy != queue.FaultDeliver {
		t.Errorf("Expected deliver policy from env, got %v", cfg.Queue.FaultPolicy)
	}
	if !cfg.Bell {
		t.Error("Expected bell enabled from env")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"bad env duration", nil, map[string]string{"TERMQUEUE_IDLE_POLL": "soon"}},
		{"bad env bool", nil, map[string]string{"TERMQUEUE_DEBUG": "maybe"}},
		{"unknown source", []string{"-source", "mouse"}, nil},
		{"serial without device", []string{"-source", "serial"}, nil},
		{"pending above idle", []string{"-pending-poll", "3s"}, nil},
		{"bad fault policy", []string{"-fault", "ignore"}, nil},
		{"unknown flag", []string{"-nope"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(tt.args, envMap(tt.env), io.Discard); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadConfig_InvalidQueueConfigIsWrapped(t *testing.T) {
	_, err := loadConfig([]string{"-batch-window", "0s"}, envMap(nil), io.Discard)
	if !errors.Is(err, queue.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Expected missing .env to be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TERMQUEUE_TEST_ONLY=from-file\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	defer os.Unsetenv("TERMQUEUE_TEST_ONLY")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile failed: %v", err)
	}
	if got := os.Getenv("TERMQUEUE_TEST_ONLY"); got != "from-file" {
		t.Errorf("Expected value from .env, got %q", got)
	}
}
