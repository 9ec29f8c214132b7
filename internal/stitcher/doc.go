// Package stitcher concatenates a chunk plan's split files back into a
// single container with one monotonically increasing timeline per
// stream. It is a streaming state machine: the first chunk establishes
// output stream layout and starting offsets, each subsequent chunk is
// checked against that layout and rebased onto the running offset.
//
// Files:
//   - streamstate.go: per-output-stream offset/maxima bookkeeping
//   - stitcher.go: Stitch — the streaming state machine
package stitcher
