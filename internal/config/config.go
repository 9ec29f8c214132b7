// Package config holds runtime configuration: defaults, CLI flag parsing, and
// validation for the Plan/Split/Stitch stages.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mdsohelmia/smartchunking/internal/planner"
	"github.com/mdsohelmia/smartchunking/internal/splitter"
	"github.com/mdsohelmia/smartchunking/internal/stitcher"
)

// --- Enum types for validated string fields ---

// PlannerMode selects the cut-scoring algorithm (spec.md §9: smart vs basic
// are incompatible variants, picked here by a flag rather than a build tag).
type PlannerMode string

const (
	PlannerSmart PlannerMode = "smart" // Scene/complexity weighted scoring (default).
	PlannerBasic PlannerMode = "basic" // Target-duration distance only.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by [ParseFlags] before being passed (by pointer) to the
// packages that need it. Fields are grouped by the stage they configure.
type Config struct {
	// Paths (set from positional args).
	InputPath string
	OutputDir string

	// Plan (spec.md §4.2).
	TargetDuration   float64     // seconds; <= 0 means unset, falls back to 10s.
	MinDuration      float64     // seconds; planner.Unset derives 0.5x target.
	MaxDuration      float64     // seconds; planner.Unset derives 2.0x target.
	AvoidTinyLast    bool        // Default: true.
	MinChunks        int
	MaxChunks        int
	IdealParallel    int
	Mode             PlannerMode // Default: "smart".
	SceneDetection   bool        // Default: true.
	ComplexityAdapt  bool        // Default: true.
	SceneThreshold   float64     // Default: 0.35.
	ComplexityWeight float64     // Default: 0.3.

	// Split (spec.md §4.3).
	SplitForceFormat string // Empty: auto-detect from the source extension.
	Fragmented       bool
	Workers          int // 0: min(len(chunks), GOMAXPROCS).

	// Stitch (spec.md §4.4).
	Verify            bool   // Reassemble after splitting and leave the result for inspection.
	StitchForceFormat string // Empty: auto-detect from the output path extension.
	Faststart         bool

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	JSONLogs  bool      // Force structured JSON output regardless of TTY detection.
	CheckOnly bool      // Run --check diagnostics and exit.
}

// DefaultConfig returns a Config with every default spec.md §4.2/§4.3/§4.4
// documents, mirroring planner.DefaultConfig where the two overlap.
func DefaultConfig() Config {
	return Config{
		TargetDuration:   10.0,
		MinDuration:      planner.Unset,
		MaxDuration:      planner.Unset,
		AvoidTinyLast:    true,
		Mode:             PlannerSmart,
		SceneDetection:   true,
		ComplexityAdapt:  true,
		SceneThreshold:   0.35,
		ComplexityWeight: 0.3,
		ColorMode:        ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, rejects contradictory combinations once
// derived defaults are applied, and (outside CheckOnly mode) requires both
// positional paths.
func (c *Config) Validate() error {
	switch c.Mode {
	case PlannerSmart, PlannerBasic:
		// valid
	default:
		return errors.New("invalid mode (use 'smart' or 'basic')")
	}
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always', or 'never')")
	}
	if c.IdealParallel < 0 {
		return errors.New("ideal_parallel must not be negative")
	}
	if c.MinChunks < 0 || c.MaxChunks < 0 {
		return errors.New("min_chunks and max_chunks must not be negative")
	}
	if c.MinChunks > 0 && c.MaxChunks > 0 && c.MinChunks > c.MaxChunks {
		return errors.New("min_chunks must not exceed max_chunks")
	}
	if c.SceneThreshold < 0 || c.SceneThreshold > 1 {
		return errors.New("scene_threshold must be between 0 and 1")
	}
	if c.ComplexityWeight < 0 || c.ComplexityWeight > 1 {
		return errors.New("complexity_weight must be between 0 and 1")
	}

	target := c.TargetDuration
	if target <= 0 {
		target = 10.0
	}
	min := c.MinDuration
	if min < 0 {
		min = target * 0.5
	}
	max := c.MaxDuration
	if max < 0 {
		max = target * 2.0
	}
	if min > max {
		return fmt.Errorf("min_duration (%.3fs) exceeds max_duration (%.3fs) after defaulting", min, max)
	}

	if c.CheckOnly {
		return nil
	}
	if c.InputPath == "" || c.OutputDir == "" {
		return errors.New("need exactly input_path and output_dir")
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is not inside (or
// equal to) the resolved input path itself, preventing Split/Stitch
// from writing into the tree the source is read from. Both arguments must
// be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside the input path")
	}
	return nil
}

// ToPlanConfig adapts the flat Config into a planner.Config.
func (c *Config) ToPlanConfig() planner.Config {
	mode := planner.ModeSmart
	if c.Mode == PlannerBasic {
		mode = planner.ModeBasic
	}
	return planner.Config{
		TargetDuration:   c.TargetDuration,
		MinDuration:      c.MinDuration,
		MaxDuration:      c.MaxDuration,
		AvoidTinyLast:    c.AvoidTinyLast,
		MinChunks:        c.MinChunks,
		MaxChunks:        c.MaxChunks,
		IdealParallel:    c.IdealParallel,
		Mode:             mode,
		SceneDetection:   c.SceneDetection,
		ComplexityAdapt:  c.ComplexityAdapt,
		SceneThreshold:   c.SceneThreshold,
		ComplexityWeight: c.ComplexityWeight,
	}
}

// ToSplitOptions adapts the flat Config into splitter.Options.
func (c *Config) ToSplitOptions() splitter.Options {
	return splitter.Options{
		ForceFormat: c.SplitForceFormat,
		Fragmented:  c.Fragmented,
		Workers:     c.Workers,
	}
}

// ToStitchOptions adapts the flat Config into stitcher.Options.
func (c *Config) ToStitchOptions() stitcher.Options {
	return stitcher.Options{
		ForceFormat: c.StitchForceFormat,
		Faststart:   c.Faststart,
	}
}
