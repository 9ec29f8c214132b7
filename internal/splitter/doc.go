// Package splitter remuxes a chunk plan's entries into independent
// container files: for each chunk it seeks the source to a keyframe at or
// before the chunk's start and copies packets through without
// re-encoding, stopping at the chunk's end-of-range boundary.
//
// Files:
//   - format.go: container format selection, muxer options, chunk naming
//   - splitter.go: SplitOne (per-chunk remux), SplitAll (concurrent batch)
package splitter
