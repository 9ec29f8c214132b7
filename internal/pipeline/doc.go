// Package pipeline orchestrates a single-asset Probe → Plan → Split →
// Stitch run and reports aggregate stats for the CLI to print.
package pipeline
