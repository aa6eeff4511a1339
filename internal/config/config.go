// Package config loads vanta's optional project manifest: a
// "vanta.json" file, next to the entry script, carrying default CLI
// flag values. It is entirely optional: explicit CLI flags always
// override it.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Manifest is the decoded form of vanta.json.
type Manifest struct {
	// TreeEvaluate, when true, makes the CLI default to the tree
	// evaluator instead of the register VM (equivalent of
	// --tree-evaluate).
	TreeEvaluate bool `json:"tree_evaluate"`
	// TraceDB, when set, is the DSN internal/tracestore opens by
	// default (equivalent of --trace-db).
	TraceDB string `json:"trace_db"`
	// ReplPrompt overrides internal/replsrv's default prompt string.
	ReplPrompt string `json:"repl_prompt"`
}

// Load reads "vanta.json" from dir. A missing manifest is not an
// error: it returns the zero Manifest, which applies no overrides.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "vanta.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadForScript loads the manifest from the directory containing
// scriptPath, the natural place to look for a project's vanta.json.
func LoadForScript(scriptPath string) (*Manifest, error) {
	return Load(filepath.Dir(scriptPath))
}

// Save writes m to "vanta.json" in dir, indented, for tooling that
// generates a manifest rather than hand-writing one.
func Save(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "vanta.json"), data, 0o644)
}
