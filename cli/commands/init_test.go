package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petal-labs/scribe/cli/config"
)

func TestInitCreatesConfig(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.yaml")
	app, stdout, _ := testApp(t, nil, nil, nil, nil)

	if err := runApp(app, "init", target); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	cfg, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultModel != "gpt-4" {
		t.Errorf("default_model = %q, want %q", cfg.DefaultModel, "gpt-4")
	}
	if cfg.History.RetentionDays != 30 {
		t.Errorf("retention_days = %d, want 30", cfg.History.RetentionDays)
	}
	if cfg.History.PruneSchedule != "0 3 * * *" {
		t.Errorf("prune_schedule = %q, want a daily schedule", cfg.History.PruneSchedule)
	}

	if !strings.Contains(stdout.String(), "Created "+target) {
		t.Errorf("stdout = %q, want the created path", stdout.String())
	}
}

func TestInitHonorsModelFlag(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")
	app, _, _ := testApp(t, nil, nil, nil, nil)

	if err := runApp(app, "init", target, "--model", "gpt-4-turbo"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	cfg, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultModel != "gpt-4-turbo" {
		t.Errorf("default_model = %q, want %q", cfg.DefaultModel, "gpt-4-turbo")
	}
}

func TestInitUsesConfigFlagTarget(t *testing.T) {
	target := filepath.Join(t.TempDir(), "scribe.yaml")
	app, _, _ := testApp(t, nil, nil, nil, nil)

	if err := runApp(app, "--config", target, "init"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if _, err := os.Stat(target); err != nil {
		t.Errorf("config not created at --config path: %v", err)
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(target, []byte("keep: me\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	app, _, _ := testApp(t, nil, nil, nil, nil)

	err := runApp(app, "init", target)
	if err == nil {
		t.Fatal("Execute() should refuse to overwrite an existing config")
	}
	if got := exitCodeOf(t, err); got != ExitValidation {
		t.Errorf("exit code = %d, want %d", got, ExitValidation)
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %v, want an already exists message", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "keep: me\n" {
		t.Errorf("file = %q, want it untouched", string(data))
	}
}

func TestInitForceOverwrites(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(target, []byte("keep: me\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	app, _, _ := testApp(t, nil, nil, nil, nil)

	if err := runApp(app, "init", target, "--force"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	cfg, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultModel == "" {
		t.Error("default_model is empty, want the template applied")
	}
}

func TestGenerateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")

	err := generateFile(path, "model: {{.Model}}\n", templateData{Model: "gpt-4"})
	if err != nil {
		t.Fatalf("generateFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "model: gpt-4\n" {
		t.Errorf("content = %q, want %q", string(data), "model: gpt-4\n")
	}
}
