// Command smartchunking is the CLI entrypoint for the packet-domain
// chunking pipeline. It parses flags, validates configuration and
// paths, and either runs provider diagnostics (--check) or the
// probe/plan/split/stitch pipeline, writing the resulting chunk plan
// as JSON to plan.json in the output directory on success.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/check"
	"github.com/mdsohelmia/smartchunking/internal/config"
	"github.com/mdsohelmia/smartchunking/internal/logging"
	"github.com/mdsohelmia/smartchunking/internal/pipeline"
	"github.com/mdsohelmia/smartchunking/internal/planner"
)

// version and commit are injected at build time via -ldflags. When built
// with plain "go build" (no make), these retain their defaults.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap — the logger doesn't exist yet, so errors go
	// directly to stderr via fmt. Once NewLogger succeeds, all output
	// goes through the logger for consistent formatting and log-file capture.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "smartchunking: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "smartchunking: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smartchunking: %v\n", err)
		return 1
	}
	defer log.Close()

	provider := avio.NewProvider()

	if cfg.CheckOnly {
		check.RunCheck(&cfg, provider, log)
		return 0
	}

	// Resolve and validate paths: input must exist, output is created if
	// needed, and output must not be inside input (prevents Split/Stitch
	// from writing into the tree the source is read from).
	inputAbs, err := absPath(cfg.InputPath)
	if err != nil {
		log.Error("input not found: %s", cfg.InputPath)
		return 1
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("cannot create output directory: %s", cfg.OutputDir)
		return 1
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		log.Error("cannot resolve output path: %s", cfg.OutputDir)
		return 1
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		return 1
	}

	log.Info("=== smartchunking v%s (%s) ===", version, commit)
	log.Info("in:  %s", cfg.InputPath)
	log.Info("out: %s", cfg.OutputDir)

	// Phase 2: Signal handling — cancel context on SIGINT/SIGTERM so the
	// pipeline can stop between stages/chunks without leaving the core
	// stages themselves responsible for asynchronous cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("received interrupt, aborting")
		cancel()
	}()

	// Phase 3: Run the pipeline (probe -> plan -> split -> optional stitch).
	plan, stats, err := pipeline.Run(ctx, cfg.InputPath, cfg.OutputDir, &cfg, log, provider)
	if err != nil {
		log.Error("run failed: %v", err)
		return 1
	}

	log.Info("done: %d chunk(s) planned, %d split, stage time %s", stats.ChunksPlanned, stats.ChunksSplit, stats.TotalElapsed())

	if err := writePlanJSON(plan, filepath.Join(cfg.OutputDir, "plan.json")); err != nil {
		log.Error("cannot write plan.json: %v", err)
		return 1
	}
	return 0
}

// chunkRecord is the external JSON shape for one plan chunk, per spec.md
// §6: index plus start/end in seconds at three decimal places.
type chunkRecord struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// writePlanJSON serializes plan's chunks to path using the standard
// library encoder. This is the one ambient concern spec.md assigns to an
// external collaborator rather than the core stages, so stdlib
// encoding/json is the right tool here, not a gap in the domain stack.
func writePlanJSON(plan *planner.Plan, path string) error {
	records := make([]chunkRecord, len(plan.Chunks))
	for i, c := range plan.Chunks {
		records[i] = chunkRecord{
			Index: c.Index,
			Start: round3(c.Start),
			End:   round3(c.End),
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func round3(f float64) float64 {
	const scale = 1000.0
	return float64(int64(f*scale+0.5)) / scale
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
