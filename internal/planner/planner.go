package planner

import (
	"github.com/mdsohelmia/smartchunking/internal/errs"
	"github.com/mdsohelmia/smartchunking/internal/probe"
)

// candidate is a scoring-ready keyframe: its timestamp plus the
// annotations (scene cut, quality score) the cut-selection step reads.
// Quality score starts at 100 for every keyframe; a scene cut adds 50,
// matching spec.md §4.2's smart-mode quality_bonus derivation.
type candidate struct {
	t          float64
	isSceneCut bool
}

func (c candidate) qualityScore() float64 {
	q := 100.0
	if c.isSceneCut {
		q += 50
	}
	return q
}

// Build selects cut points from pr under cfg and returns the resulting
// chunk plan. The caller's probe.Result is never mutated: annotations are
// computed into a private copy of the frame slice.
func Build(pr *probe.Result, cfg Config) (*Plan, error) {
	const op = "planner.Build"

	if pr == nil || pr.Duration <= 0 {
		return nil, errs.InvalidInput(op, nil)
	}

	target, minDur, maxDur := derivedParams(pr.Duration, cfg)

	frames := make([]probe.Frame, len(pr.Frames))
	copy(frames, pr.Frames)
	if cfg.SceneDetection {
		annotateSceneCuts(frames, cfg.SceneThreshold)
	}
	if cfg.ComplexityAdapt {
		annotateComplexity(frames)
	}

	keyframes := candidatesFrom(frames)

	var chunks []Chunk
	if len(keyframes) == 0 {
		chunks = []Chunk{{Index: 0, Start: 0, End: pr.Duration}}
	} else {
		chunks = buildCuts(keyframes, pr.Duration, minDur, maxDur, target, cfg)
	}

	chunks = postProcess(chunks, keyframes, pr.Duration, cfg, minDur, maxDur)

	return &Plan{Chunks: chunks, Duration: pr.Duration}, nil
}

// derivedParams implements spec.md §4.2's derived-parameter rules:
// ideal_parallel overrides target, a non-positive target falls back to
// 10s, and max_duration is normalized to be at least min_duration.
func derivedParams(duration float64, cfg Config) (target, minDur, maxDur float64) {
	target = cfg.TargetDuration
	if cfg.IdealParallel > 0 {
		target = duration / float64(cfg.IdealParallel)
	}
	if target <= 0 {
		target = 10.0
	}

	minDur = cfg.MinDuration
	if minDur < 0 {
		minDur = 0.5 * target
	}
	maxDur = cfg.MaxDuration
	if maxDur < 0 {
		maxDur = 2.0 * target
	}
	if maxDur < minDur {
		maxDur = minDur
	}
	return target, minDur, maxDur
}

func candidatesFrom(frames []probe.Frame) []candidate {
	out := make([]candidate, 0, len(frames))
	for _, f := range frames {
		if f.IsKeyframe {
			out = append(out, candidate{t: f.PTSTime, isSceneCut: f.IsSceneCut})
		}
	}
	return out
}

// buildCuts runs the cut-point selection loop of spec.md §4.2 steps 1-7
// (except renumbering/merging, which belong to post-processing).
func buildCuts(keyframes []candidate, duration, minDur, maxDur, target float64, cfg Config) []Chunk {
	var chunks []Chunk
	start := 0.0
	idx := 0
	for start < duration {
		cut := selectCut(keyframes, start, duration, minDur, maxDur, target, cfg)

		lower := start + minDur
		if lower > duration {
			lower = duration
		}
		if cut < lower {
			cut = lower
		}
		if cut > duration {
			cut = duration
		}
		if cut <= start {
			cut = start + maxDur
			if cut > duration {
				cut = duration
			}
		}

		chunks = append(chunks, Chunk{Index: idx, Start: start, End: cut})
		idx++
		start = cut
	}
	return chunks
}

// selectCut picks the next cut point after start from the ordered
// keyframe candidates, per spec.md §4.2 steps 1-5. Rule 2 ("a keyframe at
// or past duration ends the scan") folds the terminal keyframe into the
// feasible window rather than returning immediately: a keyframe that
// happens to land exactly on duration competes on score like any other
// in-window candidate, which is what lets a scene cut earlier in the
// window (step 6) win over an oversize jump straight to the asset end.
func selectCut(keyframes []candidate, start, duration, minDur, maxDur, target float64, cfg Config) float64 {
	var feasible []candidate
	fallback, haveFallback := 0.0, false

	for _, kc := range keyframes {
		if kc.t <= start {
			continue
		}
		if kc.t-start < minDur {
			continue // rule 1
		}
		if kc.t >= duration {
			if kc.t-start <= maxDur {
				feasible = append(feasible, candidate{t: duration, isSceneCut: kc.isSceneCut})
			}
			break // rule 2: nothing past duration can matter
		}
		if kc.t-start > maxDur {
			if !haveFallback {
				fallback, haveFallback = kc.t, true
			}
			break // rule 3: stop scanning, oversize fallback
		}
		feasible = append(feasible, kc)
	}

	if len(feasible) > 0 {
		best := feasible[0]
		bestScore := scoreOf(best, start, target, cfg)
		for _, kc := range feasible[1:] {
			s := scoreOf(kc, start, target, cfg)
			if s < bestScore {
				bestScore, best = s, kc
			}
		}
		return best.t
	}
	if haveFallback {
		return fallback
	}
	return duration // rule 5
}

// scoreOf implements both scoring modes of spec.md §4.2 step 4.
func scoreOf(c candidate, start, target float64, cfg Config) float64 {
	dist := absFloat(c.t - start - target)
	if cfg.Mode == ModeBasic {
		return dist
	}
	sceneBonus := 0.0
	if c.isSceneCut {
		sceneBonus = -0.3
	}
	qualityBonus := -(c.qualityScore() / 200)
	w := cfg.ComplexityWeight
	return (1-w)*dist/target + sceneBonus + qualityBonus
}

// postProcess applies spec.md §4.2's seven post-processing steps in order.
// keyframes is the full real keyframe grid from Build, carried through so
// step 6 can re-plan against actual cut candidates rather than the
// already-built chunk boundaries.
func postProcess(chunks []Chunk, keyframes []candidate, duration float64, cfg Config, minDur, maxDur float64) []Chunk {
	if len(chunks) == 0 {
		return chunks
	}

	// 1. snap to asset end.
	chunks[len(chunks)-1].End = duration

	// 2. merge a tiny trailing chunk into its predecessor.
	if cfg.AvoidTinyLast && len(chunks) > 1 {
		last := chunks[len(chunks)-1]
		if last.Length() < 0.5*minDur {
			chunks = chunks[:len(chunks)-1]
			chunks[len(chunks)-1].End = duration
		}
	}

	// 3. normalize boundaries.
	for i := 1; i < len(chunks); i++ {
		chunks[i].Start = chunks[i-1].End
		if chunks[i].End < chunks[i].Start {
			chunks[i].End = chunks[i].Start
		}
	}

	// 4. correct cumulative drift.
	var sum float64
	for _, c := range chunks {
		sum += c.Length()
	}
	if absFloat(sum-duration) > 0.001 {
		chunks[len(chunks)-1].End = duration
	}

	// 5. renumber.
	renumber(chunks)

	// 6. enforce min_chunks by re-planning against the real keyframe grid
	// with a smaller target, per spec.md §4.2 step 6.
	if cfg.MinChunks > 1 && len(chunks) < cfg.MinChunks && len(keyframes) > 0 {
		retryCfg := cfg
		retryCfg.TargetDuration = duration / float64(cfg.MinChunks)
		retryCfg.IdealParallel = 0
		retryCfg.MinChunks = 0 // avoid unbounded recursion
		retryTarget, retryMin, retryMax := derivedParams(duration, retryCfg)
		replanned := buildCuts(keyframes, duration, retryMin, retryMax, retryTarget, retryCfg)
		if len(replanned) > len(chunks) {
			chunks = replanned
			chunks[len(chunks)-1].End = duration
			renumber(chunks)
		}
	}

	// 7. enforce max_chunks by merging the smallest adjacent pair.
	if cfg.MaxChunks > 0 {
		for len(chunks) > cfg.MaxChunks {
			chunks = mergeSmallestPair(chunks)
		}
		renumber(chunks)
	}

	return chunks
}

func renumber(chunks []Chunk) {
	for i := range chunks {
		chunks[i].Index = i
	}
}

// mergeSmallestPair merges the adjacent pair of chunks with the smallest
// summed duration, per spec.md §4.2 step 7.
func mergeSmallestPair(chunks []Chunk) []Chunk {
	if len(chunks) < 2 {
		return chunks
	}
	bestIdx := 0
	bestSum := chunks[0].Length() + chunks[1].Length()
	for i := 1; i < len(chunks)-1; i++ {
		sum := chunks[i].Length() + chunks[i+1].Length()
		if sum < bestSum {
			bestSum, bestIdx = sum, i
		}
	}
	merged := Chunk{Start: chunks[bestIdx].Start, End: chunks[bestIdx+1].End}
	out := make([]Chunk, 0, len(chunks)-1)
	out = append(out, chunks[:bestIdx]...)
	out = append(out, merged)
	out = append(out, chunks[bestIdx+2:]...)
	return out
}
