// Package config loads the static per-deployment job set for mailgc-run.
// A deployment is a TOML file listing retention jobs; the scheduler that
// invokes mailgc-run decides when, the file decides what.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/joshsymonds/mailgc/internal/policy"
	"github.com/joshsymonds/mailgc/internal/purge"
)

// JobSpec is one [[job]] table in the deployment file. Exactly one of
// KeepFirst and OlderThanDays must be set: they pick the policy.
type JobSpec struct {
	Name          string `toml:"name"`
	Label         string `toml:"label"`
	Operation     string `toml:"operation"` // "trash" or "archive"
	KeepFirst     bool   `toml:"keep-first"`
	OlderThanDays int    `toml:"older-than-days"`
	PageSize      int    `toml:"page-size"`
	DryRun        bool   `toml:"dry-run"`
}

// File is the whole deployment document.
type File struct {
	RateUnitsPerSecond float64   `toml:"rate-units-per-second"`
	Jobs               []JobSpec `toml:"job"`
}

// Load reads and validates the deployment file at path.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path) // #nosec G304 - path is operator supplied
	if err != nil {
		return File{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := toml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(f.Jobs) == 0 {
		return File{}, fmt.Errorf("config %s defines no jobs", path)
	}
	for i, js := range f.Jobs {
		if err := js.validate(); err != nil {
			return File{}, fmt.Errorf("config %s job %d (%s): %w", path, i, js.Name, err)
		}
	}
	return f, nil
}

func (js JobSpec) validate() error {
	if js.Name == "" {
		return fmt.Errorf("name is required")
	}
	if js.Label == "" {
		return fmt.Errorf("label is required")
	}
	switch purge.Operation(js.Operation) {
	case purge.OpTrash, purge.OpArchive:
	default:
		return fmt.Errorf("operation must be %q or %q, got %q", purge.OpTrash, purge.OpArchive, js.Operation)
	}
	if js.KeepFirst && js.OlderThanDays > 0 {
		return fmt.Errorf("keep-first and older-than-days are mutually exclusive")
	}
	if !js.KeepFirst && js.OlderThanDays <= 0 {
		return fmt.Errorf("either keep-first or a positive older-than-days is required")
	}
	return nil
}

// Job converts the spec into a runnable job.
func (js JobSpec) Job() purge.Job {
	var pol policy.Policy
	if js.KeepFirst {
		pol = policy.KeepFirst{}
	} else {
		pol = policy.AgeThreshold{Days: js.OlderThanDays}
	}
	return purge.Job{
		Label:     js.Label,
		Policy:    pol,
		Operation: purge.Operation(js.Operation),
		PageSize:  js.PageSize,
		DryRun:    js.DryRun,
	}
}
