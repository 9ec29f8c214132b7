// Package planner selects keyframe-aligned cut points from a probe result
// under duration/parallelism/scene/complexity constraints, producing an
// ordered chunk plan for the splitter and stitcher to consume.
//
// Files:
//   - types.go: Config, Chunk, Plan
//   - planner.go: Build — the cut-point selection algorithm and post-processing
//   - scene.go: scene-cut annotation
//   - complexity.go: complexity annotation
package planner
