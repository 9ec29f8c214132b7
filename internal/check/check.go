// Package check provides the --check diagnostics flow: confirm the Media
// I/O Provider can actually open and enumerate a container, since the
// provider is a cgo binding resolved at link time rather than a PATH-based
// external tool.
package check

import (
	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/config"
)

// Logger is the minimal logging interface needed by RunCheck. Defined here
// (rather than importing the logging package) so check stays
// dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// RunCheck runs the --check flow: if an input path was given, it opens the
// container through provider and reports every stream it finds; otherwise
// it reports that there is nothing to test against. This is informational
// only, it never stops the caller.
func RunCheck(cfg *config.Config, provider avio.Provider, log Logger) {
	log.Info("=== Provider Check ===")

	if cfg.InputPath == "" {
		log.Warn("no input path given; pass one positionally to test container access")
		return
	}

	in, err := provider.OpenInput(cfg.InputPath)
	if err != nil {
		log.Error("open %s: %v", cfg.InputPath, err)
		return
	}
	defer in.Close()

	log.Success("opened %s", cfg.InputPath)
	if d := in.Duration(); d > 0 {
		log.Info("declared duration: %.3fs", d)
	}

	streams := in.Streams()
	log.Info("%d stream(s):", len(streams))
	for _, s := range streams {
		log.Info("  [%d] %s time_base=%d/%d avg_frame_rate=%d/%d",
			s.Index, s.MediaType, s.TimeBase.Num, s.TimeBase.Den, s.AvgFrameRate.Num, s.AvgFrameRate.Den)
	}
}
