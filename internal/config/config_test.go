package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	data := "engine: tree\nshow_bytecode: true\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Engine != EngineTree {
		t.Errorf("Engine = %q, want %q", cfg.Engine, EngineTree)
	}
	if !cfg.ShowBytecode {
		t.Errorf("ShowBytecode = false, want true")
	}
}

func TestLoadRejectsUnknownEngine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte("engine: jit\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("Load() accepted invalid engine")
	}
}

func TestDiscoverWalksUpAndDefaults(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte("gc_stats: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if !cfg.GCStats {
		t.Errorf("GCStats = false, config in ancestor directory not found")
	}

	empty := t.TempDir()
	cfg, err = Discover(empty)
	if err != nil {
		t.Fatalf("Discover() fallback error: %v", err)
	}
	if cfg.Engine != EngineVM {
		t.Errorf("default Engine = %q, want %q", cfg.Engine, EngineVM)
	}
}

func TestIsSourceFile(t *testing.T) {
	if !IsSourceFile("main.pebbl") || !IsSourceFile("x.pb") {
		t.Errorf("recognized extensions rejected")
	}
	if IsSourceFile("main.go") {
		t.Errorf("unrecognized extension accepted")
	}
}
