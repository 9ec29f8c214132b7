// Package avio models the Media I/O Provider capability surface that the
// probe, splitter, and stitcher stages depend on: open a container,
// enumerate its streams, read and seek packets, allocate an output
// container, and write packets/trailer through it.
//
// The interfaces here are deliberately narrow and provider-agnostic (no
// stage imports astiav directly). [NewProvider] returns the concrete
// implementation backed by github.com/asticode/go-astiav; package avtest
// provides an in-memory fake for tests that must not require a real
// ffmpeg shared-library install.
package avio
