package splitter

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Options configures output-mode behavior shared by every chunk in a
// SplitAll run, per spec.md §4.3.
type Options struct {
	// ForceFormat overrides auto-detection of the container format from
	// the source file extension. Empty means auto.
	ForceFormat string

	// Fragmented requests fragmented-mp4 muxer flags when the resolved
	// format is mp4.
	Fragmented bool

	// Workers caps the concurrent worker pool. Zero means
	// min(len(chunks), GOMAXPROCS).
	Workers int
}

// ResolveFormat derives the short muxer format name for sourcePath,
// honoring an explicit override in opts.ForceFormat. Recognized
// extensions are mp4, mov, matroska (mkv), and webm; anything else falls
// back to mp4.
func ResolveFormat(sourcePath string, opts Options) string {
	if opts.ForceFormat != "" {
		return opts.ForceFormat
	}
	switch strings.ToLower(filepath.Ext(sourcePath)) {
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

// ExtForFormat returns the file extension conventionally used for a
// resolved muxer format name.
func ExtForFormat(format string) string {
	switch format {
	case "matroska":
		return "mkv"
	case "webm":
		return "webm"
	case "mov":
		return "mov"
	default:
		return "mp4"
	}
}

// MuxerOptions returns the muxer option dictionary for WriteHeader, per
// spec.md §6's required vocabulary: fragmented mp4 sets movflags to
// frag_keyframe+empty_moov+omit_tfhd_offset.
func MuxerOptions(format string, fragmented bool) map[string]string {
	opts := map[string]string{}
	if fragmented && format == "mp4" {
		opts["movflags"] = "frag_keyframe+empty_moov+omit_tfhd_offset"
	}
	return opts
}

// ChunkFileName returns the zero-padded chunk_NNNN.EXT name for index,
// per spec.md §6's chunk file layout.
func ChunkFileName(index int, format string) string {
	return fmt.Sprintf("chunk_%04d.%s", index, ExtForFormat(format))
}
