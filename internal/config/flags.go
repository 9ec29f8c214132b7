package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into plan, split, stitch, display, and utility.
// Negated flags (e.g. --no-scene-detection) are applied after Parse so
// Config defaults hold unless set.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and
// exits. On error it returns non-nil (e.g. unknown flag, missing positional
// args). The version parameter is passed from main so the help text
// reflects the build-time version.
func ParseFlags(cfg *Config, version string) error {
	fs := flag.NewFlagSet("smartchunking", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs, version) }

	// Negated/override flags: we capture bools then apply to cfg after
	// Parse, so that defaults from DefaultConfig() hold unless the user
	// passes the flag.
	var negated negatedFlags

	definePlanFlags(fs, cfg, &negated)
	defineSplitFlags(fs, cfg)
	defineStitchFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(fs, version)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "smartchunking v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse. These
// either invert a default or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	noAvoidTinyLast   bool
	noSceneDetection  bool
	noComplexityAdapt bool
	forceColor        bool
	noColor           bool
	showVersion       bool
	showHelp          bool
}

// definePlanFlags registers the Planner's tunables (spec.md §4.2).
func definePlanFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.Float64Var(&cfg.TargetDuration, "target", cfg.TargetDuration, "Preferred chunk length in seconds")
	fs.Float64Var(&cfg.TargetDuration, "t", cfg.TargetDuration, "Same as --target")
	fs.Float64Var(&cfg.MinDuration, "min-duration", cfg.MinDuration, "Minimum chunk length in seconds (default: 0.5x target)")
	fs.Float64Var(&cfg.MaxDuration, "max-duration", cfg.MaxDuration, "Maximum chunk length in seconds (default: 2x target)")
	fs.BoolVar(&n.noAvoidTinyLast, "no-avoid-tiny-last", false, "Allow a disproportionately short final chunk")
	fs.IntVar(&cfg.MinChunks, "min-chunks", 0, "Minimum number of chunks in the plan")
	fs.IntVar(&cfg.MaxChunks, "max-chunks", 0, "Maximum number of chunks; excess chunks are merged")
	fs.IntVar(&cfg.IdealParallel, "ideal-parallel", 0, "Derive target duration from this many parallel workers")
	fs.Var(&plannerModeValue{&cfg.Mode}, "mode", "Cut-scoring algorithm: smart | basic")
	fs.Var(&plannerModeValue{&cfg.Mode}, "m", "Same as --mode")
	fs.BoolVar(&n.noSceneDetection, "no-scene-detection", false, "Disable scene-cut preference in cut selection")
	fs.BoolVar(&n.noComplexityAdapt, "no-complexity-adapt", false, "Disable per-frame complexity annotation")
	fs.Float64Var(&cfg.SceneThreshold, "scene-threshold", cfg.SceneThreshold, "Scene-cut detection threshold, 0-1")
	fs.Float64Var(&cfg.ComplexityWeight, "complexity-weight", cfg.ComplexityWeight, "Complexity scoring weight, 0-1")
}

// defineSplitFlags registers the Splitter's output-mode options (spec.md
// §4.3).
func defineSplitFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.SplitForceFormat, "split-format", "", "Force chunk container format (default: auto-detect)")
	fs.BoolVar(&cfg.Fragmented, "fragmented", false, "Use fragmented-mp4 muxer flags for chunk files")
	fs.IntVar(&cfg.Workers, "workers", 0, "Concurrent split workers (default: min(chunks, GOMAXPROCS))")
	fs.IntVar(&cfg.Workers, "w", 0, "Same as --workers")
}

// defineStitchFlags registers the Stitcher's output-mode options (spec.md
// §4.4).
func defineStitchFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.Verify, "verify", false, "Reassemble the split chunks and leave the result for inspection")
	fs.StringVar(&cfg.StitchForceFormat, "stitch-format", "", "Force reassembled container format (default: auto-detect)")
	fs.BoolVar(&cfg.Faststart, "faststart", false, "Move the moov atom to the front of an mp4 reassembly")
}

// defineDisplayFlags registers color, verbose, log, json, and --check flags.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored console logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored console logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.JSONLogs, "json", false, "Force line-oriented JSON logs regardless of TTY detection")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", "", "Same as --log")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
}

// defineUtilityFlags registers --version and --help (both cause exit after
// printing).
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noAvoidTinyLast {
		cfg.AvoidTinyLast = false
	}
	if n.noSceneDetection {
		cfg.SceneDetection = false
	}
	if n.noComplexityAdapt {
		cfg.ComplexityAdapt = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputPath and OutputDir from the two positional
// args when not in CheckOnly mode.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	if cfg.CheckOnly {
		return nil
	}
	args := fs.Args()
	if len(args) != 2 {
		return fmt.Errorf("need exactly input_path and output_dir")
	}
	cfg.InputPath = args[0]
	cfg.OutputDir = NormalizeDirArg(args[1])
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(_ *flag.FlagSet, version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "smartchunking v" + version + " — packet-domain keyframe-aligned chunking"},
		{"", ""},
		{"  smartchunking [OPTIONS] <input_path> <output_dir>", ""},
		{"", ""},
		{"Plan", ""},
		{"  -t, --target <seconds>", "Preferred chunk length (default: 10)"},
		{"  --min-duration <seconds>", "Minimum chunk length (default: 0.5x target)"},
		{"  --max-duration <seconds>", "Maximum chunk length (default: 2x target)"},
		{"  --no-avoid-tiny-last", "Allow a disproportionately short final chunk"},
		{"  --min-chunks <n>", "Minimum number of chunks"},
		{"  --max-chunks <n>", "Maximum number of chunks (excess merged)"},
		{"  --ideal-parallel <n>", "Derive target duration from parallel worker count"},
		{"  -m, --mode <smart|basic>", "Cut-scoring algorithm (default: smart)"},
		{"  --no-scene-detection", "Disable scene-cut preference"},
		{"  --no-complexity-adapt", "Disable per-frame complexity annotation"},
		{"  --scene-threshold <0-1>", "Scene-cut detection threshold (default: 0.35)"},
		{"  --complexity-weight <0-1>", "Complexity scoring weight (default: 0.3)"},
		{"", ""},
		{"Split", ""},
		{"  --split-format <name>", "Force chunk container format (default: auto)"},
		{"  --fragmented", "Use fragmented-mp4 muxer flags"},
		{"  -w, --workers <n>", "Concurrent split workers (default: auto)"},
		{"", ""},
		{"Stitch", ""},
		{"  --verify", "Reassemble chunks and keep the result"},
		{"  --stitch-format <name>", "Force reassembled container format (default: auto)"},
		{"  --faststart", "Move the moov atom to the front of an mp4 reassembly"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored console logs"},
		{"  --no-color", "Disable colored console logs"},
		{"  --json", "Force line-oriented JSON logs"},
		{"  -v, --verbose", "Verbose output"},
		{"  -l, --log <path>", "Append logs to file"},
		{"", ""},
		{"Utility", ""},
		{"  -c, --check", "Run system diagnostics and exit"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// plannerModeValue is a flag.Value adapter so PlannerMode can be used with
// flag.Var.
type plannerModeValue struct{ p *PlannerMode }

func (m *plannerModeValue) String() string { return string(*m.p) }
func (m *plannerModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "smart":
		*m.p = PlannerSmart
	case "basic":
		*m.p = PlannerBasic
	default:
		return fmt.Errorf("invalid mode %q (use 'smart' or 'basic')", s)
	}
	return nil
}
