package avio

import "errors"

// ErrEOF is returned by InputContainer.ReadPacket when the container is
// exhausted. It is distinct from io.EOF so callers don't need to import
// io purely to compare against this sentinel.
var ErrEOF = errors.New("avio: end of stream")

// Rational is a rational number used for time bases and frame rates,
// mirroring AVRational.
type Rational struct {
	Num int
	Den int
}

// Seconds converts a timestamp counted in units of r into seconds.
func (r Rational) Seconds(ts int64) float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(ts) * float64(r.Num) / float64(r.Den)
}

// Float64 returns the rational as a plain float (used for frame rates).
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Valid reports whether the rational has a non-zero denominator.
func (r Rational) Valid() bool { return r.Den != 0 }

// Rescale converts a timestamp from one rational time base to another,
// matching av_rescale_q semantics (rounded, overflow-avoiding in the real
// provider; plain rational arithmetic here since chunk-scale timestamps
// never approach int64 overflow).
func Rescale(ts int64, from, to Rational) int64 {
	if !from.Valid() || !to.Valid() || ts == 0 {
		return ts
	}
	num := int64(from.Num) * int64(to.Den)
	den := int64(from.Den) * int64(to.Num)
	if den == 0 {
		return ts
	}
	// ts * (from/to) = ts * num / den, rounded to nearest.
	prod := ts * num
	if prod >= 0 {
		return (prod + den/2) / den
	}
	return -((-prod + den/2) / den)
}

// MediaType mirrors AVMediaType, narrowed to the kinds this system cares
// about classifying.
type MediaType int

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeVideo
	MediaTypeAudio
	MediaTypeSubtitle
	MediaTypeAttachment
	MediaTypeData
)

func (m MediaType) String() string {
	switch m {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeSubtitle:
		return "subtitle"
	case MediaTypeAttachment:
		return "attachment"
	case MediaTypeData:
		return "data"
	default:
		return "unknown"
	}
}

// StreamInfo describes one stream of an opened container, per the
// "enumerate streams" capability of spec.md §6.
type StreamInfo struct {
	Index             int
	MediaType         MediaType
	CodecID           int // opaque provider codec identifier, copied verbatim on output
	TimeBase          Rational
	DeclaredDuration  float64 // seconds; 0 when the provider reports none
	AvgFrameRate      Rational
	SampleAspectRatio Rational
	Metadata          map[string]string
	IsAttachedPic     bool // video stream flagged as a single attached-picture (cover art)

	// Native is an opaque, provider-private handle (e.g. the
	// underlying *astiav.Stream) carried through so that
	// OutputContainer.AddStream can copy codec parameters verbatim
	// without re-deriving them from the fields above. Callers outside
	// the provider implementation must not depend on its concrete
	// type; it is only meaningful when the InputContainer that
	// produced it and the OutputContainer consuming it come from the
	// same Provider.
	Native any
}

// Packet is a single compressed frame read from, or about to be written
// to, a container. Implementations own the underlying buffer; callers
// must call Free when finished with a packet obtained from ReadPacket.
type Packet interface {
	StreamIndex() int
	SetStreamIndex(i int)

	PTS() (ts int64, ok bool)
	DTS() (ts int64, ok bool)
	SetPTS(ts int64)
	SetDTS(ts int64)

	Duration() int64
	SetDuration(d int64)

	Size() int
	IsKeyframe() bool

	// ClearPosition resets the packet's byte-offset hint so the output
	// muxer recomputes it rather than reusing the source's file offset.
	ClearPosition()

	// RescaleTimestamps rescales PTS, DTS, and duration from one time
	// base to another in place.
	RescaleTimestamps(from, to Rational)

	// Free releases the packet's underlying buffer. Safe to call once;
	// further use of the packet after Free is undefined.
	Free()
}

// InputContainer is an opened, readable container: the "open a
// container", "enumerate streams", "read packets", and "seek" surface
// of spec.md §6.
type InputContainer interface {
	// Streams returns every stream in container order, including
	// non-video/audio streams (subtitles, attachments, data).
	Streams() []StreamInfo

	// Duration returns the container's declared duration in seconds, or
	// 0 if the container does not declare one.
	Duration() float64

	// StreamDuration returns the declared duration of one stream in
	// seconds, or 0 if undeclared.
	StreamDuration(streamIndex int) float64

	// ReadPacket returns the next packet in container order across all
	// streams. Returns ErrEOF when the container is exhausted. The
	// returned packet is owned by the caller and must be Free'd.
	ReadPacket() (Packet, error)

	// SeekToKeyframe seeks so that the next ReadPacket call on the given
	// stream yields a packet at or before timestampSeconds that is
	// flagged as a keyframe ("backward to keyframe" semantics).
	SeekToKeyframe(streamIndex int, timestampSeconds float64) error

	// Close releases the container's handles. Safe to call once.
	Close() error
}

// OutputContainer is an allocated, writable container: the "allocate an
// output container", "create output streams", "copy codec parameters",
// "write header/packet/trailer" surface of spec.md §6.
type OutputContainer interface {
	// AddStream creates a new output stream mirroring src's codec
	// parameters, time base, frame rate, and aspect ratio, and returns
	// its index in the output container (mapping from input stream
	// index is the caller's responsibility).
	AddStream(src StreamInfo) (outputIndex int, err error)

	// WriteHeader writes the container header. opts carries muxer
	// options such as "movflags" or "avoid_negative_ts" verbatim.
	WriteHeader(opts map[string]string) error

	// WritePacket writes one packet via the interleaved-write primitive.
	// pkt.StreamIndex() must already be set to an output stream index
	// returned by AddStream.
	WritePacket(pkt Packet) error

	// WriteTrailer finalizes the container. Must be called exactly once,
	// after all packets are written, before Close.
	WriteTrailer() error

	// Close releases the container's handles. Safe to call once.
	Close() error
}

// Provider is the factory surface: open an existing container for
// reading, or allocate a new one for writing.
type Provider interface {
	// OpenInput opens path and probes its stream information.
	OpenInput(path string) (InputContainer, error)

	// CreateOutput allocates an output container at path. If formatName
	// is empty, the provider infers it from path's extension.
	CreateOutput(path, formatName string) (OutputContainer, error)
}
