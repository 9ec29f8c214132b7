package planner

import "github.com/mdsohelmia/smartchunking/internal/probe"

// sceneWindow is the number of packets examined on each side of a
// keyframe candidate when computing its scene-cut score (spec.md §4.2,
// W=5).
const sceneWindow = 5

// annotateSceneCuts marks keyframe-flagged frames as scene cuts when the
// mean packet size shifts sharply across the candidate, comparing the
// sceneWindow packets strictly before against the sceneWindow packets
// starting at the candidate. It writes into a private copy of the frame
// slice — the caller's probe.Result is never mutated in place.
func annotateSceneCuts(frames []probe.Frame, threshold float64) {
	n := len(frames)
	for i := range frames {
		if !frames[i].IsKeyframe {
			continue
		}
		if i < sceneWindow || i+sceneWindow > n {
			continue
		}
		avgBefore := meanSize(frames[i-sceneWindow : i])
		avgAfter := meanSize(frames[i : i+sceneWindow])
		if avgBefore <= 0 {
			continue
		}
		if absFloat(avgAfter-avgBefore)/avgBefore > threshold {
			frames[i].IsSceneCut = true
		}
	}
}

func meanSize(frames []probe.Frame) float64 {
	if len(frames) == 0 {
		return 0
	}
	var sum int
	for _, f := range frames {
		sum += f.PacketSize
	}
	return float64(sum) / float64(len(frames))
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
