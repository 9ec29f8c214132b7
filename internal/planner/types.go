package planner

// Mode selects the cut-scoring algorithm: Smart applies scene/complexity
// weighting on top of the target-duration distance, Basic compares only
// against the target duration (spec.md §9's two incompatible variants,
// selected here by a config flag rather than a hard-coded build).
type Mode int

const (
	ModeSmart Mode = iota
	ModeBasic
)

// Unset marks MinDuration/MaxDuration as not provided by the caller, so
// Build derives them from the target duration (0.5× / 2.0×). Zero is a
// legitimate explicit value for both fields (spec.md §8's literal
// scenarios pass min=0), so it cannot double as the "unset" sentinel.
const Unset = -1.0

// Config enumerates the Planner's tunable options.
type Config struct {
	TargetDuration float64 // seconds, preferred chunk length; 0 or unset falls back to 10s
	MinDuration    float64 // seconds; Unset derives 0.5×target
	MaxDuration    float64 // seconds; Unset derives 2.0×target
	AvoidTinyLast  bool
	MinChunks      int
	MaxChunks      int
	IdealParallel  int

	Mode             Mode
	SceneDetection   bool
	ComplexityAdapt  bool
	SceneThreshold   float64 // default 0.35
	ComplexityWeight float64 // default 0.3
}

// DefaultConfig returns the Planner's defaults, mirroring the
// derived-parameter fallbacks of spec.md §4.2.
func DefaultConfig() Config {
	return Config{
		TargetDuration:   10.0,
		MinDuration:      Unset,
		MaxDuration:      Unset,
		SceneThreshold:   0.35,
		ComplexityWeight: 0.3,
		Mode:             ModeSmart,
	}
}

// Chunk is a half-open time interval of the source asset, except the last
// chunk of a plan, which is closed at duration.
type Chunk struct {
	Index int
	Start float64
	End   float64
}

// Length returns the chunk's duration in seconds.
func (c Chunk) Length() float64 { return c.End - c.Start }

// Plan is the ordered sequence of chunks covering [0, duration].
type Plan struct {
	Chunks   []Chunk
	Duration float64
}
