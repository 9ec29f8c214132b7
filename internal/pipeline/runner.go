// Package pipeline orchestrates a single-asset Probe → Plan → Split →
// Stitch run and reports aggregate stats for the CLI to print.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/config"
	"github.com/mdsohelmia/smartchunking/internal/display"
	"github.com/mdsohelmia/smartchunking/internal/errs"
	"github.com/mdsohelmia/smartchunking/internal/logging"
	"github.com/mdsohelmia/smartchunking/internal/planner"
	"github.com/mdsohelmia/smartchunking/internal/probe"
	"github.com/mdsohelmia/smartchunking/internal/splitter"
	"github.com/mdsohelmia/smartchunking/internal/stitcher"
)

// Run drives one asset through Probe → Plan → Split → (optionally) Stitch
// and returns the resulting plan alongside aggregate stats. The plan is
// returned even on a later-stage failure so the caller can still report
// or persist it; stats reflect whatever stages actually completed.
//
// Context cancellation (SIGINT/SIGTERM, wired by the caller) is checked
// between stages: the core stages themselves make no asynchronous
// cancellation claim, so this is the boundary where an abort request
// turns into an early return.
func Run(ctx context.Context, path, outputDir string, cfg *config.Config, log *logging.Logger, provider avio.Provider) (*planner.Plan, RunStats, error) {
	const op = "pipeline.Run"
	var stats RunStats

	if ctx.Err() != nil {
		return nil, stats, ctx.Err()
	}

	plog := log.Component("pipeline")

	// --- Probe ---
	probeStart := time.Now()
	pr, err := probe.Scan(provider, path)
	stats.ProbeElapsed = time.Since(probeStart)
	if err != nil {
		plog.Stage("probe").Error("probe failed: %v", err)
		return nil, stats, err
	}
	plog.Stage("probe").Success("duration=%.3fs frames=%d", pr.Duration, len(pr.Frames))

	if ctx.Err() != nil {
		return nil, stats, ctx.Err()
	}

	// --- Plan ---
	planStart := time.Now()
	plan, err := planner.Build(pr, cfg.ToPlanConfig())
	stats.PlanElapsed = time.Since(planStart)
	if err != nil {
		plog.Stage("plan").Error("plan failed: %v", err)
		return nil, stats, err
	}
	stats.ChunksPlanned = len(plan.Chunks)
	plog.Stage("plan").Success("%d chunk(s) over %.3fs", stats.ChunksPlanned, plan.Duration)

	if ctx.Err() != nil {
		return plan, stats, ctx.Err()
	}

	if fi, err := os.Stat(path); err == nil {
		stats.InputBytes = fi.Size()
	}

	// --- Split ---
	chunksDir := filepath.Join(outputDir, "chunks")
	if err := os.MkdirAll(chunksDir, 0o755); err != nil {
		return plan, stats, errs.IoOpen(op, err)
	}

	splitStart := time.Now()
	splitOpts := cfg.ToSplitOptions()
	err = splitter.SplitAll(ctx, provider, path, plan, chunksDir, splitOpts)
	stats.SplitElapsed = time.Since(splitStart)
	if err != nil {
		plog.Stage("split").Error("split failed: %v", err)
		return plan, stats, err
	}
	stats.ChunksSplit = stats.ChunksPlanned
	plog.Stage("split").Success("wrote %d chunk(s) to %s", stats.ChunksSplit, chunksDir)

	if ctx.Err() != nil {
		return plan, stats, ctx.Err()
	}

	if !cfg.Verify {
		return plan, stats, nil
	}

	// --- Stitch (optional round-trip verification) ---
	outPath := filepath.Join(outputDir, "reassembled"+filepath.Ext(path))
	stitchStart := time.Now()
	err = stitcher.Stitch(provider, chunksDir, plan, outPath, cfg.ToStitchOptions())
	stats.StitchElapsed = time.Since(stitchStart)
	if err != nil {
		plog.Stage("stitch").Error("stitch failed: %v", err)
		return plan, stats, err
	}
	stats.Verified = true

	if fi, err := os.Stat(outPath); err == nil {
		stats.OutputBytes = fi.Size()
	}

	plog.Stage("stitch").Success("reassembled -> %s (%s)", outPath, display.FormatBytesWithSign(stats.BytesDelta()))
	return plan, stats, nil
}
