package planner

import "github.com/mdsohelmia/smartchunking/internal/probe"

// annotateComplexity scores each frame in [0,1] by its packet size
// relative to the sequence's observed range, with a floor of 1.0 on the
// denominator so a constant-size sequence scores 0 throughout rather than
// dividing by zero.
func annotateComplexity(frames []probe.Frame) {
	if len(frames) == 0 {
		return
	}
	minSize, maxSize := frames[0].PacketSize, frames[0].PacketSize
	for _, f := range frames {
		if f.PacketSize < minSize {
			minSize = f.PacketSize
		}
		if f.PacketSize > maxSize {
			maxSize = f.PacketSize
		}
	}
	denom := float64(maxSize - minSize)
	if denom < 1.0 {
		denom = 1.0
	}
	for i := range frames {
		frames[i].Complexity = float64(frames[i].PacketSize-minSize) / denom
	}
}
