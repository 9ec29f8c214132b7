package stitcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/errs"
	"github.com/mdsohelmia/smartchunking/internal/planner"
)

// Options configures the Stitch run.
type Options struct {
	// ForceFormat overrides auto-detection of the output container format
	// from outPath's extension.
	ForceFormat string

	// Faststart moves the moov atom to the front of an mp4 output once the
	// trailer is written, via the muxer's "movflags: faststart" option.
	Faststart bool
}

// Stitch concatenates every chunk of plan, read from chunksDir, into a
// single container at outPath. The first chunk establishes the output
// stream layout and time bases; every later chunk is checked against that
// layout and its packets are rebased onto a running per-stream offset, per
// spec.md §4.4.
func Stitch(provider avio.Provider, chunksDir string, plan *planner.Plan, outPath string, opts Options) error {
	const op = "stitcher.Stitch"

	if plan == nil || len(plan.Chunks) == 0 {
		return errs.InvalidInput(op, nil)
	}

	format := resolveOutputFormat(outPath, opts)
	out, err := provider.CreateOutput(outPath, format)
	if err != nil {
		return err
	}
	defer out.Close()

	var states []*streamState
	var established []avio.StreamInfo

	for i, chunk := range plan.Chunks {
		path, err := resolveChunkPath(chunksDir, chunk.Index)
		if err != nil {
			return err
		}

		in, err := provider.OpenInput(path)
		if err != nil {
			return err
		}

		streams := nonAttachmentStreams(in.Streams())

		if i == 0 {
			established = streams
			states = make([]*streamState, len(streams))
			for pos, s := range streams {
				if _, err := out.AddStream(s); err != nil {
					in.Close()
					return err
				}
				states[pos] = &streamState{timeBase: s.TimeBase, avgFPS: s.AvgFrameRate}
			}
			headerOpts := map[string]string{"avoid_negative_ts": "disabled"}
			if opts.Faststart && format == "mp4" {
				headerOpts["movflags"] = "faststart"
			}
			if err := out.WriteHeader(headerOpts); err != nil {
				in.Close()
				return err
			}
		} else {
			if err := checkLayout(established, streams); err != nil {
				in.Close()
				return err
			}
		}

		posByIndex := make(map[int]int, len(streams))
		for pos, s := range streams {
			posByIndex[s.Index] = pos
		}

		for _, st := range states {
			st.beginChunk()
		}

		if err := stitchChunk(in, out, posByIndex, states, i == 0); err != nil {
			in.Close()
			return err
		}
		in.Close()

		for _, st := range states {
			st.endChunk()
		}
	}

	return out.WriteTrailer()
}

// stitchChunk copies every packet of one already-opened chunk into out,
// rebasing timestamps for every chunk after the first.
func stitchChunk(in avio.InputContainer, out avio.OutputContainer, posByIndex map[int]int, states []*streamState, isFirstChunk bool) error {
	// shift[pos] is the amount added to every original timestamp of that
	// stream's packets in this chunk: 0 for the header chunk (pass
	// through verbatim), offset-base for later chunks once the first
	// packet of the stream in this chunk has been seen.
	shift := make([]int64, len(states))
	haveShift := make([]bool, len(states))

	for {
		pkt, err := in.ReadPacket()
		if err != nil {
			if err == avio.ErrEOF {
				return nil
			}
			return err
		}

		pos, ok := posByIndex[pkt.StreamIndex()]
		if !ok {
			pkt.Free()
			continue
		}
		st := states[pos]

		origPTS, hasPTS := pkt.PTS()
		origDTS, hasDTS := pkt.DTS()

		if isFirstChunk {
			shift[pos] = 0
		} else if !haveShift[pos] {
			anchor := origPTS
			if !hasPTS {
				anchor = origDTS
			}
			shift[pos] = st.offset - anchor
			haveShift[pos] = true
		}

		newPTS := origPTS + shift[pos]
		newDTS := origDTS + shift[pos]

		switch {
		case hasPTS && !hasDTS:
			newDTS = newPTS
		case hasDTS && !hasPTS:
			newPTS = newDTS
		}
		if hasPTS && hasDTS && newDTS > newPTS {
			newDTS = newPTS
		}

		pkt.SetPTS(newPTS)
		pkt.SetDTS(newDTS)
		pkt.SetStreamIndex(pos)
		pkt.ClearPosition()
		st.observeTail(newPTS)

		if werr := out.WritePacket(pkt); werr != nil {
			pkt.Free()
			return werr
		}
		pkt.Free()
	}
}

// checkLayout verifies a later chunk's filtered stream list matches the
// layout established by the first chunk, per spec.md §4.4.
func checkLayout(established, streams []avio.StreamInfo) error {
	const op = "stitcher.checkLayout"
	if len(streams) != len(established) {
		return errs.LayoutMismatch(op, fmt.Errorf("got %d streams, want %d", len(streams), len(established)))
	}
	for i, s := range streams {
		want := established[i]
		if s.MediaType != want.MediaType {
			return errs.LayoutMismatch(op, fmt.Errorf("stream %d media type %s, want %s", i, s.MediaType, want.MediaType))
		}
		if s.TimeBase != want.TimeBase {
			return errs.LayoutMismatch(op, fmt.Errorf("stream %d time base %+v, want %+v", i, s.TimeBase, want.TimeBase))
		}
	}
	return nil
}

// nonAttachmentStreams filters out attachment streams, preserving
// container order; the remaining order is the position used to index
// streamState and output stream indices.
func nonAttachmentStreams(streams []avio.StreamInfo) []avio.StreamInfo {
	out := make([]avio.StreamInfo, 0, len(streams))
	for _, s := range streams {
		if s.MediaType == avio.MediaTypeAttachment {
			continue
		}
		out = append(out, s)
	}
	return out
}

// resolveChunkPath finds the on-disk chunk file for index without needing
// to know the exact extension the Splitter chose for it. chunksDir is
// canonicalized to an absolute path first, per spec.md's requirement that
// chunk paths be resolved via canonicalization before opening.
func resolveChunkPath(chunksDir string, index int) (string, error) {
	const op = "stitcher.resolveChunkPath"
	absDir, err := canonicalDir(chunksDir)
	if err != nil {
		return "", errs.IoOpen(op, err)
	}
	pattern := filepath.Join(absDir, fmt.Sprintf("chunk_%04d.*", index))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", errs.IoOpen(op, err)
	}
	if len(matches) == 0 {
		return "", errs.MissingChunk(op, fmt.Errorf("no file matching %s", pattern))
	}
	return matches[0], nil
}

// canonicalDir resolves dir to an absolute, symlink-resolved path.
func canonicalDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// resolveOutputFormat derives the muxer format name for outPath, honoring
// an explicit override.
func resolveOutputFormat(outPath string, opts Options) string {
	if opts.ForceFormat != "" {
		return opts.ForceFormat
	}
	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".mp4", ".m4v":
		return "mp4"
	case ".mov":
		return "mov"
	case ".mkv":
		return "matroska"
	case ".webm":
		return "webm"
	default:
		return "mp4"
	}
}
