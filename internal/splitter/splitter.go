package splitter

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/errs"
	"github.com/mdsohelmia/smartchunking/internal/planner"
)

// seekEpsilon tolerates the small floating-point slop between a chunk's
// nominal start and the timestamp of the keyframe the provider actually
// seeks to, per spec.md §4.3 step 4's "[chunk.start − ε, chunk.end)".
const seekEpsilon = 0.001

// SplitOne remuxes one chunk of sourcePath into outPath: it opens the
// source, mirrors every non-attachment stream to a freshly allocated
// output container, seeks to a keyframe at or before chunk.Start, and
// copies packets through until the chunk's end-of-range condition fires.
// Timestamps are preserved verbatim (not rebased), per spec.md §4.3.
func SplitOne(provider avio.Provider, sourcePath string, chunk planner.Chunk, outPath, format string, opts Options) error {
	const op = "splitter.SplitOne"

	in, err := provider.OpenInput(sourcePath)
	if err != nil {
		return err
	}
	defer in.Close()

	streams := in.Streams()

	out, err := provider.CreateOutput(outPath, format)
	if err != nil {
		return err
	}
	defer out.Close()

	outIndex := make(map[int]int, len(streams))
	timeBase := make(map[int]avio.Rational, len(streams))
	videoIndex := -1
	for _, s := range streams {
		timeBase[s.Index] = s.TimeBase
		if s.MediaType == avio.MediaTypeAttachment {
			continue
		}
		oi, err := out.AddStream(s)
		if err != nil {
			return err
		}
		outIndex[s.Index] = oi
		if s.MediaType == avio.MediaTypeVideo && !s.IsAttachedPic && videoIndex == -1 {
			videoIndex = s.Index
		}
	}
	if videoIndex == -1 {
		return errs.NoVideoStream(op, nil)
	}

	if err := out.WriteHeader(MuxerOptions(format, opts.Fragmented)); err != nil {
		return err
	}

	if err := in.SeekToKeyframe(videoIndex, chunk.Start); err != nil {
		return err
	}

	done := make(map[int]bool, len(streams))
	for {
		if allDone(outIndex, done) {
			break
		}
		pkt, err := in.ReadPacket()
		if err != nil {
			if err == avio.ErrEOF {
				break
			}
			return err
		}

		si := pkt.StreamIndex()
		oi, mirrored := outIndex[si]
		if !mirrored || done[si] {
			pkt.Free()
			continue
		}

		tsSeconds := packetSeconds(pkt, timeBase[si])
		if tsSeconds < chunk.Start-seekEpsilon {
			pkt.Free()
			continue
		}

		isVideo := si == videoIndex
		if tsSeconds >= chunk.End {
			// Non-video streams end exactly at the boundary. A video
			// stream only ends once it reaches a keyframe at or past
			// the boundary; a non-keyframe video packet out here is
			// dropped but the stream keeps scanning for that keyframe.
			if !isVideo || pkt.IsKeyframe() {
				done[si] = true
			}
			pkt.Free()
			continue
		}

		pkt.RescaleTimestamps(timeBase[si], timeBase[si]) // output preserves the input time base
		pkt.SetStreamIndex(oi)
		pkt.ClearPosition()
		if werr := out.WritePacket(pkt); werr != nil {
			pkt.Free()
			return werr
		}
		pkt.Free()
	}

	return out.WriteTrailer()
}

// allDone reports whether every mirrored stream has reached its
// end-of-range condition.
func allDone(outIndex map[int]int, done map[int]bool) bool {
	for si := range outIndex {
		if !done[si] {
			return false
		}
	}
	return true
}

// packetSeconds resolves a packet's timestamp in seconds, preferring PTS
// and falling back to DTS, matching the probe's resolution chain.
func packetSeconds(pkt avio.Packet, tb avio.Rational) float64 {
	if ts, ok := pkt.PTS(); ok {
		return tb.Seconds(ts)
	}
	if ts, ok := pkt.DTS(); ok {
		return tb.Seconds(ts)
	}
	return 0
}

// SplitAll materializes every chunk of plan concurrently through a
// bounded worker pool (spec.md §5: independent chunks share no mutable
// state; each worker opens the source independently). Worker count
// defaults to min(len(plan.Chunks), GOMAXPROCS) and never exceeds the
// chunk count. The output directory is created if absent. The first
// worker error cancels the remaining workers and is returned; partial
// output files for failed chunks are left for the caller to clean up.
func SplitAll(ctx context.Context, provider avio.Provider, sourcePath string, plan *planner.Plan, outDir string, opts Options) error {
	const op = "splitter.SplitAll"

	if plan == nil || len(plan.Chunks) == 0 {
		return errs.InvalidInput(op, nil)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errs.IoOpen(op, err)
	}

	format := ResolveFormat(sourcePath, opts)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(plan.Chunks) {
		workers = len(plan.Chunks)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, chunk := range plan.Chunks {
		chunk := chunk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outPath := filepath.Join(outDir, ChunkFileName(chunk.Index, format))
			return SplitOne(provider, sourcePath, chunk, outPath, format, opts)
		})
	}
	return g.Wait()
}
