package stitcher

import "github.com/mdsohelmia/smartchunking/internal/avio"

// streamState tracks one output stream's rebasing offset and the running
// maxima needed to compute the next offset, per spec.md §4.4.
type streamState struct {
	timeBase avio.Rational
	avgFPS   avio.Rational

	offset int64 // accumulated offset, in timeBase units

	haveChunkTail bool
	chunkTail     int64 // running max of this chunk's rebased PTS (DTS fallback)
}

// beginChunk resets the per-chunk scratch fields; offset (the
// cross-chunk accumulator) is untouched. The per-chunk rebase base is
// tracked by the caller (stitchChunk), since it is only meaningful
// alongside the packet loop that observes the first packet per stream.
func (s *streamState) beginChunk() {
	s.haveChunkTail = false
}

// observeTail records a rebased timestamp as a candidate for the tail
// used to compute this chunk's offset contribution.
func (s *streamState) observeTail(ts int64) {
	if !s.haveChunkTail || ts > s.chunkTail {
		s.chunkTail = ts
		s.haveChunkTail = true
	}
}

// endChunk advances offset past the tail of the chunk just written. One
// frame is added so the next chunk's first packet does not collide with
// the last packet written for this one.
func (s *streamState) endChunk() {
	tail := s.chunkTail
	if !s.haveChunkTail {
		tail = s.offset
	}
	s.offset = tail + s.oneFrame()
}

// oneFrame estimates the duration of a single frame in timeBase units
// from the stream's declared average frame rate, falling back to a
// single tick when no frame rate is known.
func (s *streamState) oneFrame() int64 {
	if s.avgFPS.Valid() && s.avgFPS.Num > 0 {
		inverseFPS := avio.Rational{Num: s.avgFPS.Den, Den: s.avgFPS.Num}
		if d := avio.Rescale(1, inverseFPS, s.timeBase); d > 0 {
			return d
		}
	}
	return 1
}
