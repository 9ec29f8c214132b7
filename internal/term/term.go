// Package term provides terminal detection used to gate colorized console
// output.
package term

import (
	"os"
	"strings"

	"github.com/mdsohelmia/smartchunking/internal/config"
)

// ColorEnabled resolves the configured color mode, TTY detection, and the
// NO_COLOR env var (https://no-color.org) into whether the zerolog console
// writer attached to f should emit ANSI color codes.
func ColorEnabled(mode config.ColorMode, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // config.ColorAuto
		return IsTerminal(f) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY (character device).
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
