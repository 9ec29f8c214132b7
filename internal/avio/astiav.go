package avio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astiav"

	"github.com/mdsohelmia/smartchunking/internal/errs"
)

// astiavProvider is the production Provider, backed by
// github.com/asticode/go-astiav (cgo bindings over ffmpeg's
// libavformat/libavcodec/libavutil). It never decodes a frame: every
// operation stays at the AVPacket level, matching spec.md §1's
// "packet-only" scope.
type astiavProvider struct{}

// NewProvider returns the astiav-backed Media I/O Provider.
func NewProvider() Provider { return astiavProvider{} }

func (astiavProvider) OpenInput(path string) (InputContainer, error) {
	const op = "avio.OpenInput"
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, errs.OutOfMemory(op, nil)
	}
	if err := fc.OpenInput(path, nil, nil); err != nil {
		fc.Free()
		return nil, errs.IoOpen(op, fmt.Errorf("open %q: %w", path, err))
	}
	if err := fc.FindStreamInfo(nil); err != nil {
		fc.CloseInput()
		fc.Free()
		return nil, errs.ProviderError(op, fmt.Errorf("find stream info %q: %w", path, err))
	}
	return &astiavInput{fc: fc}, nil
}

func (astiavProvider) CreateOutput(path, formatName string) (OutputContainer, error) {
	const op = "avio.CreateOutput"
	if formatName == "" {
		formatName = formatFromExt(path)
	}
	fc, err := astiav.AllocOutputFormatContext(nil, formatName, path)
	if err != nil || fc == nil {
		return nil, errs.StreamSetup(op, fmt.Errorf("allocate output context (format %q, path %q): %w", formatName, path, err))
	}

	ioFlags := astiav.NewIOContextFlags(astiav.IOContextFlagWrite)
	pb, err := astiav.OpenIOContext(path, ioFlags, nil, nil)
	if err != nil {
		fc.Free()
		return nil, errs.IoOpen(op, fmt.Errorf("open io context %q: %w", path, err))
	}
	fc.SetPb(pb)

	return &astiavOutput{fc: fc, pb: pb}, nil
}

// formatFromExt maps a file extension to an ffmpeg short format name,
// the "auto" side of spec.md §4.3's format selection.
func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
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

// --- input container ---

type astiavInput struct {
	fc *astiav.FormatContext
}

func (in *astiavInput) Streams() []StreamInfo {
	streams := in.fc.Streams()
	out := make([]StreamInfo, 0, len(streams))
	for _, s := range streams {
		out = append(out, streamInfoFrom(s))
	}
	return out
}

func streamInfoFrom(s *astiav.Stream) StreamInfo {
	params := s.CodecParameters()
	md := map[string]string{}
	if dict := s.Metadata(); dict != nil {
		for _, e := range dict.All() {
			md[e.Key()] = e.Value()
		}
	}

	info := StreamInfo{
		Index:             s.Index(),
		MediaType:         mediaTypeFrom(params.MediaType()),
		CodecID:           int(params.CodecID()),
		TimeBase:          rationalFrom(s.TimeBase()),
		AvgFrameRate:      rationalFrom(s.AvgFrameRate()),
		SampleAspectRatio: rationalFrom(s.SampleAspectRatio()),
		Metadata:          md,
		Native:            s,
	}
	if d := s.Duration(); d > 0 {
		info.DeclaredDuration = info.TimeBase.Seconds(d)
	}
	if info.MediaType == MediaTypeVideo {
		if disp, ok := dispositionOf(s); ok {
			info.IsAttachedPic = disp
		}
	}
	return info
}

// dispositionOf isolates the attached-pic disposition check. It reads the
// stream's disposition flags directly, so its second result is always true.
func dispositionOf(s *astiav.Stream) (bool, bool) {
	return s.Disposition().Has(astiav.StreamDispositionAttachedPic), true
}

func mediaTypeFrom(t astiav.MediaType) MediaType {
	switch t {
	case astiav.MediaTypeVideo:
		return MediaTypeVideo
	case astiav.MediaTypeAudio:
		return MediaTypeAudio
	case astiav.MediaTypeSubtitle:
		return MediaTypeSubtitle
	case astiav.MediaTypeAttachment:
		return MediaTypeAttachment
	case astiav.MediaTypeData:
		return MediaTypeData
	default:
		return MediaTypeUnknown
	}
}

func rationalFrom(r astiav.Rational) Rational {
	return Rational{Num: r.Num(), Den: r.Den()}
}

func toAstiavRational(r Rational) astiav.Rational {
	return astiav.NewRational(r.Num, r.Den)
}

func (in *astiavInput) Duration() float64 {
	d := in.fc.Duration()
	if d <= 0 {
		return 0
	}
	// AVFormatContext.Duration is in AV_TIME_BASE (microsecond) units.
	return float64(d) / float64(astiav.TimeBase)
}

func (in *astiavInput) StreamDuration(streamIndex int) float64 {
	for _, s := range in.fc.Streams() {
		if s.Index() == streamIndex {
			if d := s.Duration(); d > 0 {
				return rationalFrom(s.TimeBase()).Seconds(d)
			}
			return 0
		}
	}
	return 0
}

func (in *astiavInput) ReadPacket() (Packet, error) {
	pkt := astiav.AllocPacket()
	if err := in.fc.ReadFrame(pkt); err != nil {
		pkt.Free()
		if err == astiav.ErrEof {
			return nil, ErrEOF
		}
		return nil, errs.ProviderError("avio.ReadPacket", fmt.Errorf("read frame: %w", err))
	}
	return &astiavPacket{pkt: pkt}, nil
}

func (in *astiavInput) SeekToKeyframe(streamIndex int, timestampSeconds float64) error {
	const op = "avio.SeekToKeyframe"
	var tb Rational
	for _, s := range in.fc.Streams() {
		if s.Index() == streamIndex {
			tb = rationalFrom(s.TimeBase())
			break
		}
	}
	if !tb.Valid() {
		tb = Rational{Num: 1, Den: int(astiav.TimeBase)}
	}
	ts := int64(timestampSeconds / tb.Float64())
	flags := astiav.NewSeekFlags(astiav.SeekFlagBackward)
	if err := in.fc.SeekFrame(streamIndex, ts, flags); err != nil {
		return errs.Seek(op, fmt.Errorf("seek to %.3fs on stream %d: %w", timestampSeconds, streamIndex, err))
	}
	return nil
}

func (in *astiavInput) Close() error {
	in.fc.CloseInput()
	in.fc.Free()
	return nil
}

// --- output container ---

type astiavOutput struct {
	fc       *astiav.FormatContext
	pb       *astiav.IOContext
	streams  []*astiav.Stream
	hdrWritten bool
}

func (out *astiavOutput) AddStream(src StreamInfo) (int, error) {
	const op = "avio.AddStream"
	s := out.fc.NewStream(nil)
	if s == nil {
		return 0, errs.OutOfMemory(op, nil)
	}

	if native, ok := src.Native.(*astiav.Stream); ok {
		if err := s.CodecParameters().FromCodecParameters(native.CodecParameters()); err != nil {
			return 0, errs.StreamSetup(op, fmt.Errorf("copy codec parameters: %w", err))
		}
	}
	s.CodecParameters().SetCodecTag(0)
	s.SetTimeBase(toAstiavRational(src.TimeBase))
	if src.AvgFrameRate.Valid() {
		s.SetAvgFrameRate(toAstiavRational(src.AvgFrameRate))
	}
	if src.SampleAspectRatio.Valid() {
		s.SetSampleAspectRatio(toAstiavRational(src.SampleAspectRatio))
	}

	out.streams = append(out.streams, s)
	return len(out.streams) - 1, nil
}

func (out *astiavOutput) WriteHeader(opts map[string]string) error {
	const op = "avio.WriteHeader"
	var dict *astiav.Dictionary
	if len(opts) > 0 {
		dict = astiav.NewDictionary()
		defer dict.Free()
		for k, v := range opts {
			if err := dict.Set(k, v, 0); err != nil {
				return errs.InvalidInput(op, fmt.Errorf("set muxer option %s=%s: %w", k, v, err))
			}
		}
	}
	if err := out.fc.WriteHeader(dict); err != nil {
		return errs.IoWrite(op, fmt.Errorf("write header: %w", err))
	}
	out.hdrWritten = true
	return nil
}

func (out *astiavOutput) WritePacket(pkt Packet) error {
	const op = "avio.WritePacket"
	ap, ok := pkt.(*astiavPacket)
	if !ok {
		return errs.InvalidInput(op, fmt.Errorf("not an astiav packet"))
	}
	if err := out.fc.WriteInterleavedFrame(ap.pkt); err != nil {
		return errs.IoWrite(op, fmt.Errorf("write interleaved frame: %w", err))
	}
	return nil
}

func (out *astiavOutput) WriteTrailer() error {
	const op = "avio.WriteTrailer"
	if !out.hdrWritten {
		return errs.InvalidInput(op, fmt.Errorf("header not written"))
	}
	if err := out.fc.WriteTrailer(); err != nil {
		return errs.IoWrite(op, fmt.Errorf("write trailer: %w", err))
	}
	return nil
}

func (out *astiavOutput) Close() error {
	if out.pb != nil {
		_ = out.pb.Close()
	}
	out.fc.Free()
	return nil
}

// --- packet ---

type astiavPacket struct {
	pkt *astiav.Packet
}

func (p *astiavPacket) StreamIndex() int      { return p.pkt.StreamIndex() }
func (p *astiavPacket) SetStreamIndex(i int)  { p.pkt.SetStreamIndex(i) }

func (p *astiavPacket) PTS() (int64, bool) {
	v := p.pkt.Pts()
	return v, v != astiav.NoPtsValue
}

func (p *astiavPacket) DTS() (int64, bool) {
	v := p.pkt.Dts()
	return v, v != astiav.NoPtsValue
}

func (p *astiavPacket) SetPTS(ts int64) { p.pkt.SetPts(ts) }
func (p *astiavPacket) SetDTS(ts int64) { p.pkt.SetDts(ts) }

func (p *astiavPacket) Duration() int64     { return p.pkt.Duration() }
func (p *astiavPacket) SetDuration(d int64) { p.pkt.SetDuration(d) }

func (p *astiavPacket) Size() int { return p.pkt.Size() }

func (p *astiavPacket) IsKeyframe() bool {
	return p.pkt.Flags().Has(astiav.PacketFlagKey)
}

func (p *astiavPacket) ClearPosition() { p.pkt.SetPos(-1) }

func (p *astiavPacket) RescaleTimestamps(from, to Rational) {
	p.pkt.RescaleTs(toAstiavRational(from), toAstiavRational(to))
}

func (p *astiavPacket) Free() { p.pkt.Free() }
