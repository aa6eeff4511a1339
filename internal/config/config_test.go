package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingManifestIsZeroValue(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.TreeEvaluate || m.TraceDB != "" || m.ReplPrompt != "" {
		t.Errorf("expected zero-value manifest, got %+v", m)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	want := &Manifest{TreeEvaluate: true, TraceDB: "sqlite:trace.db", ReplPrompt: "vanta> "}
	if err := Save(dir, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLoadForScriptUsesScriptDir(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, &Manifest{TreeEvaluate: true}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, err := LoadForScript(filepath.Join(dir, "main.vn"))
	if err != nil {
		t.Fatalf("LoadForScript: %v", err)
	}
	if !m.TreeEvaluate {
		t.Errorf("expected manifest from script's directory to be loaded")
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vanta.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected an error decoding invalid JSON")
	}
}
