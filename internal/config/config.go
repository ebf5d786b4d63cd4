// Package config loads depthflow run settings from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/depthflow/internal/flow"
)

// maxFileSize bounds config files read by LoadFlowConfig.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// FlowConfig holds the settings of a flow run. Every field is optional; the
// Get* methods supply defaults for fields left unset, so partial files are
// safe.
type FlowConfig struct {
	// Camera and synthesis
	FocalLength    *float64 `json:"focal_length,omitempty"`
	Convention     *string  `json:"convention,omitempty"` // "negative-z" or "longuet-higgins"
	DepthThreshold *float64 `json:"depth_threshold,omitempty"`
	DepthScale     *float64 `json:"depth_scale,omitempty"` // integer image samples to scene units

	// Execution
	Workers     *int  `json:"workers,omitempty"`
	StrictPoses *bool `json:"strict_poses,omitempty"`

	// Outputs
	OutputDir    *string `json:"output_dir,omitempty"`
	FilePattern  *string `json:"file_pattern,omitempty"` // printf pattern taking the pair index
	CatalogPath  *string `json:"catalog_path,omitempty"`
	ReportPath   *string `json:"report_path,omitempty"`
	HistogramDir *string `json:"histogram_dir,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultFlowConfig returns a FlowConfig with every field set to its default.
func DefaultFlowConfig() *FlowConfig {
	return &FlowConfig{
		FocalLength:    ptrFloat64(flow.DefaultFocalLength),
		Convention:     ptrString(flow.NegativeZ{}.Name()),
		DepthThreshold: ptrFloat64(flow.DefaultDepthThreshold),
		DepthScale:     ptrFloat64(1),
		Workers:        ptrInt(1),
		StrictPoses:    ptrBool(false),
		OutputDir:      ptrString("."),
		FilePattern:    ptrString("%05d.flo"),
		CatalogPath:    ptrString(""),
		ReportPath:     ptrString(""),
		HistogramDir:   ptrString(""),
	}
}

// LoadFlowConfig loads a FlowConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadFlowConfig(path string) (*FlowConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &FlowConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields that are set.
func (c *FlowConfig) Validate() error {
	if c.FocalLength != nil {
		if f := *c.FocalLength; !(f > 0) || math.IsInf(f, 0) {
			return fmt.Errorf("focal_length must be positive and finite, got %v", f)
		}
	}

	if c.Convention != nil {
		if _, err := flow.ParseConvention(*c.Convention); err != nil {
			return err
		}
	}

	if c.DepthThreshold != nil && !(*c.DepthThreshold > 0) {
		return fmt.Errorf("depth_threshold must be positive, got %v", *c.DepthThreshold)
	}

	if c.DepthScale != nil {
		if s := *c.DepthScale; !(s > 0) || math.IsInf(s, 0) {
			return fmt.Errorf("depth_scale must be positive and finite, got %v", s)
		}
	}

	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	if c.FilePattern != nil {
		if err := checkFilePattern(*c.FilePattern); err != nil {
			return err
		}
	}

	return nil
}

// checkFilePattern requires a pattern that formats one integer into a plain
// file name and gives distinct names for distinct indices.
func checkFilePattern(pattern string) error {
	a, b := fmt.Sprintf(pattern, 1), fmt.Sprintf(pattern, 2)
	if strings.Contains(a, "%!") || a == b {
		return fmt.Errorf("file_pattern %q must format exactly one integer", pattern)
	}
	if strings.ContainsAny(a, `/\`) {
		return fmt.Errorf("file_pattern %q must not contain a path separator", pattern)
	}
	return nil
}

// GetFocalLength returns the focal_length value or the default.
func (c *FlowConfig) GetFocalLength() float64 {
	if c.FocalLength == nil {
		return flow.DefaultFocalLength
	}
	return *c.FocalLength
}

// GetConvention returns the convention named by the config, or NegativeZ.
// An unknown name also yields NegativeZ; Validate reports it.
func (c *FlowConfig) GetConvention() flow.Convention {
	if c.Convention == nil {
		return flow.NegativeZ{}
	}
	conv, err := flow.ParseConvention(*c.Convention)
	if err != nil {
		return flow.NegativeZ{}
	}
	return conv
}

// GetDepthThreshold returns the depth_threshold value or the default.
func (c *FlowConfig) GetDepthThreshold() float64 {
	if c.DepthThreshold == nil {
		return flow.DefaultDepthThreshold
	}
	return *c.DepthThreshold
}

// GetDepthScale returns the depth_scale value or the default.
func (c *FlowConfig) GetDepthScale() float64 {
	if c.DepthScale == nil {
		return 1
	}
	return *c.DepthScale
}

// GetWorkers returns the workers value or the default of 1 (sequential).
func (c *FlowConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetStrictPoses returns the strict_poses value or the default.
func (c *FlowConfig) GetStrictPoses() bool {
	if c.StrictPoses == nil {
		return false
	}
	return *c.StrictPoses
}

// GetOutputDir returns the output_dir value or the current directory.
func (c *FlowConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "."
	}
	return *c.OutputDir
}

// GetFilePattern returns the file_pattern value or the default.
func (c *FlowConfig) GetFilePattern() string {
	if c.FilePattern == nil || *c.FilePattern == "" {
		return "%05d.flo"
	}
	return *c.FilePattern
}

// GetCatalogPath returns the catalog_path value. Empty disables the catalog.
func (c *FlowConfig) GetCatalogPath() string {
	if c.CatalogPath == nil {
		return ""
	}
	return *c.CatalogPath
}

// GetReportPath returns the report_path value. Empty disables the report.
func (c *FlowConfig) GetReportPath() string {
	if c.ReportPath == nil {
		return ""
	}
	return *c.ReportPath
}

// GetHistogramDir returns the histogram_dir value. Empty disables histograms.
func (c *FlowConfig) GetHistogramDir() string {
	if c.HistogramDir == nil {
		return ""
	}
	return *c.HistogramDir
}
