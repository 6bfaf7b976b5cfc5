// Package config loads slabanim settings from a JSON file. Every field is
// optional; the Get* methods fall back to built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/slabanim/pkg/kernel/sdfx"
	"github.com/chazu/slabanim/pkg/slicer"
)

// DefaultConfigPath is the settings file looked up when none is given.
const DefaultConfigPath = "config/slabanim.defaults.json"

// maxFileSize bounds the settings file (1MB).
const maxFileSize = 1 * 1024 * 1024

// Config is the root settings document.
type Config struct {
	// Slicing
	Slices   *int    `json:"slices,omitempty"`
	Duration *int    `json:"duration,omitempty"`
	Timing   *string `json:"timing,omitempty"` // "per-object" or "shared"
	Strict   *bool   `json:"strict,omitempty"`

	// Key written on every unit
	KeyAttribute *string  `json:"key_attribute,omitempty"`
	KeyFrom      *float64 `json:"key_from,omitempty"`
	KeyTo        *float64 `json:"key_to,omitempty"`

	// Geometry resolution
	MeshCells   *int `json:"mesh_cells,omitempty"`
	SampleCells *int `json:"sample_cells,omitempty"`

	// Outputs
	Database  *string `json:"database,omitempty"`   // run history; "" disables it
	ReportDir *string `json:"report_dir,omitempty"` // where PNG/HTML reports go
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The file must have a .json
// extension and be under 1MB. Fields omitted from the file keep their
// defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrEmpty loads path, or DefaultConfigPath when path is empty. A
// missing default file is not an error.
func LoadOrEmpty(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultConfigPath); os.IsNotExist(err) {
		return Empty(), nil
	}
	return Load(DefaultConfigPath)
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.Slices != nil && *c.Slices < 1 {
		return fmt.Errorf("slices must be at least 1, got %d", *c.Slices)
	}
	if c.Duration != nil && *c.Duration < 0 {
		return fmt.Errorf("duration must be non-negative, got %d", *c.Duration)
	}
	if c.Timing != nil {
		if _, err := slicer.ParseTimingMode(*c.Timing); err != nil {
			return err
		}
	}
	if c.KeyAttribute != nil && *c.KeyAttribute == "" {
		return fmt.Errorf("key_attribute must not be empty")
	}
	if c.MeshCells != nil && *c.MeshCells < 4 {
		return fmt.Errorf("mesh_cells must be at least 4, got %d", *c.MeshCells)
	}
	if c.SampleCells != nil && *c.SampleCells < 2 {
		return fmt.Errorf("sample_cells must be at least 2, got %d", *c.SampleCells)
	}
	// The combination must also be usable.
	return c.Params().Validate()
}

// GetSlices returns the slices value or the default.
func (c *Config) GetSlices() int {
	if c.Slices == nil {
		return slicer.DefaultParams().Slices
	}
	return *c.Slices
}

// GetDuration returns the duration value or the default.
func (c *Config) GetDuration() int {
	if c.Duration == nil {
		return slicer.DefaultParams().Duration
	}
	return *c.Duration
}

// GetTiming returns the timing mode or the default. An unparsable value
// falls back to the default.
func (c *Config) GetTiming() slicer.TimingMode {
	if c.Timing == nil {
		return slicer.DefaultParams().Timing
	}
	m, err := slicer.ParseTimingMode(*c.Timing)
	if err != nil {
		return slicer.DefaultParams().Timing
	}
	return m
}

// GetStrict returns the strict value or false.
func (c *Config) GetStrict() bool {
	return c.Strict != nil && *c.Strict
}

// GetKey returns the key spec, filling unset parts from the default.
func (c *Config) GetKey() slicer.KeySpec {
	k := slicer.DefaultKeySpec()
	if c.KeyAttribute != nil {
		k.Attribute = *c.KeyAttribute
	}
	if c.KeyFrom != nil {
		k.From = *c.KeyFrom
	}
	if c.KeyTo != nil {
		k.To = *c.KeyTo
	}
	return k
}

// Params assembles the slicing parameters.
func (c *Config) Params() slicer.Params {
	return slicer.Params{
		Slices:   c.GetSlices(),
		Duration: c.GetDuration(),
		Strict:   c.GetStrict(),
		Timing:   c.GetTiming(),
		Key:      c.GetKey(),
	}
}

// KernelOptions returns the sdfx resolutions. Unset fields stay zero so
// the kernel applies its own defaults.
func (c *Config) KernelOptions() sdfx.Options {
	var o sdfx.Options
	if c.MeshCells != nil {
		o.MeshCells = *c.MeshCells
	}
	if c.SampleCells != nil {
		o.SampleCells = *c.SampleCells
	}
	return o
}

// GetDatabase returns the run history path, or "" when history is off.
func (c *Config) GetDatabase() string {
	if c.Database == nil {
		return ""
	}
	return *c.Database
}

// GetReportDir returns the report directory or "reports".
func (c *Config) GetReportDir() string {
	if c.ReportDir == nil || *c.ReportDir == "" {
		return "reports"
	}
	return *c.ReportDir
}
