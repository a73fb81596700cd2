// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/andonyns/Data-Management-Service/internal/step"
)

type (
	// Metadata describes the build inputs recorded alongside a run.
	Metadata struct {
		Configuration string `toml:"configuration"`
		Version       string `toml:"version"`
		Commit        string `toml:"commit,omitempty"`
	}

	// Report is the TOML document written by WriteTOML.
	Report struct {
		RunID           string       `toml:"run_id"`
		Command         string       `toml:"command"`
		DryRun          bool         `toml:"dry_run"`
		Succeeded       bool         `toml:"succeeded"`
		Started         time.Time    `toml:"started"`
		DurationSeconds float64      `toml:"duration_seconds"`
		Error           string       `toml:"error,omitempty"`
		Build           Metadata     `toml:"build"`
		Steps           []StepReport `toml:"steps"`
	}

	// StepReport is one [[steps]] entry.
	StepReport struct {
		Name            string   `toml:"name"`
		Description     string   `toml:"description,omitempty"`
		Status          string   `toml:"status"`
		DurationSeconds float64  `toml:"duration_seconds"`
		ExitCode        *int     `toml:"exit_code,omitempty"`
		Error           string   `toml:"error,omitempty"`
		Plan            []string `toml:"plan,omitempty"`
	}
)

// New builds the report for a finished run.
func New(result step.RunResult, meta Metadata) Report {
	r := Report{
		RunID:           result.ID.String(),
		Command:         result.Command,
		DryRun:          result.DryRun,
		Succeeded:       result.Succeeded(),
		Started:         result.Started.UTC(),
		DurationSeconds: result.Duration.Seconds(),
		Build:           meta,
		Steps:           make([]StepReport, 0, len(result.Steps)),
	}
	if result.Err != nil {
		r.Error = result.Err.Error()
	}

	for _, s := range result.Steps {
		sr := StepReport{
			Name:            s.Step.String(),
			Description:     s.Description,
			Status:          s.Status.String(),
			DurationSeconds: s.Duration.Seconds(),
			Plan:            s.Plan,
		}
		if s.HasExitCode {
			code := int(s.ExitCode)
			sr.ExitCode = &code
		}
		if s.Err != nil {
			sr.Error = s.Err.Error()
		}
		r.Steps = append(r.Steps, sr)
	}
	return r
}

// WriteTOML encodes r to path. The file is replaced atomically.
func WriteTOML(path string, r Report) error {
	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return writeAtomic(path, data)
}

// ReadTOML decodes a report written by WriteTOML.
func ReadTOML(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read report: %w", err)
	}
	if err := toml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decode report %s: %w", path, err)
	}
	return r, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
