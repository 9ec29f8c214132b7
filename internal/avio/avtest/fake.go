// Package avtest implements an in-memory avio.Provider for unit tests that
// must not require a real ffmpeg shared-library install. Containers are
// constructed directly from packet/stream fixtures; Split and Stitch run
// against this fake in the probe/planner/splitter/stitcher test suites.
package avtest

import (
	"sort"

	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/errs"
)

// PacketFixture is a plain-data description of one packet, used to build a
// fake container's contents.
type PacketFixture struct {
	StreamIndex int
	PTS, DTS    int64
	HasPTS      bool
	HasDTS      bool
	DurationTS  int64
	SizeBytes   int
	Keyframe    bool
}

// StreamFixture describes one stream of a fake container.
type StreamFixture struct {
	Index             int
	MediaType         avio.MediaType
	CodecID           int
	TimeBase          avio.Rational
	DeclaredDuration  float64
	AvgFrameRate      avio.Rational
	SampleAspectRatio avio.Rational
	IsAttachedPic     bool
}

// Asset is a named, fully fixtured fake container: its streams, packets (in
// container order), and container-level declared duration.
type Asset struct {
	Streams          []StreamFixture
	Packets          []PacketFixture
	DeclaredDuration float64
}

// Provider is an avio.Provider backed by in-memory Asset fixtures registered
// under a path. CreateOutput writes into an in-memory sink retrievable via
// Written, rather than touching the filesystem.
type Provider struct {
	assets  map[string]*Asset
	written map[string]*WrittenContainer
}

// NewProvider returns an empty fake provider. Call Register to seed inputs
// before OpenInput is called against a path.
func NewProvider() *Provider {
	return &Provider{
		assets:  map[string]*Asset{},
		written: map[string]*WrittenContainer{},
	}
}

// Register seeds path so that a subsequent OpenInput(path) returns a
// container backed by asset.
func (p *Provider) Register(path string, asset *Asset) {
	p.assets[path] = asset
}

// Written returns the in-memory container produced by a prior CreateOutput
// call at path, or nil if nothing was written there.
func (p *Provider) Written(path string) *WrittenContainer {
	return p.written[path]
}

func (p *Provider) OpenInput(path string) (avio.InputContainer, error) {
	asset, ok := p.assets[path]
	if !ok {
		return nil, errs.IoOpen("avtest.OpenInput", nil)
	}
	streams := make([]avio.StreamInfo, len(asset.Streams))
	for i, sf := range asset.Streams {
		streams[i] = avio.StreamInfo{
			Index:             sf.Index,
			MediaType:         sf.MediaType,
			CodecID:           sf.CodecID,
			TimeBase:          sf.TimeBase,
			DeclaredDuration:  sf.DeclaredDuration,
			AvgFrameRate:      sf.AvgFrameRate,
			SampleAspectRatio: sf.SampleAspectRatio,
			Metadata:          map[string]string{},
			IsAttachedPic:     sf.IsAttachedPic,
			Native:            sf,
		}
	}
	pkts := make([]*fakePacket, len(asset.Packets))
	for i, pf := range asset.Packets {
		pkts[i] = packetFromFixture(pf)
	}
	return &fakeInput{streams: streams, packets: pkts, duration: asset.DeclaredDuration}, nil
}

func packetFromFixture(pf PacketFixture) *fakePacket {
	return &fakePacket{
		streamIndex: pf.StreamIndex,
		pts:         pf.PTS,
		dts:         pf.DTS,
		hasPTS:      pf.HasPTS,
		hasDTS:      pf.HasDTS,
		duration:    pf.DurationTS,
		size:        pf.SizeBytes,
		keyframe:    pf.Keyframe,
	}
}

func (p *Provider) CreateOutput(path, formatName string) (avio.OutputContainer, error) {
	wc := &WrittenContainer{Format: formatName}
	p.written[path] = wc
	return &fakeOutput{wc: wc}, nil
}

// --- input container ---

type fakeInput struct {
	streams  []avio.StreamInfo
	packets  []*fakePacket
	duration float64
	cursor   int
}

func (in *fakeInput) Streams() []avio.StreamInfo { return in.streams }
func (in *fakeInput) Duration() float64          { return in.duration }

func (in *fakeInput) StreamDuration(streamIndex int) float64 {
	for _, s := range in.streams {
		if s.Index == streamIndex {
			return s.DeclaredDuration
		}
	}
	return 0
}

func (in *fakeInput) ReadPacket() (avio.Packet, error) {
	if in.cursor >= len(in.packets) {
		return nil, avio.ErrEOF
	}
	pkt := in.packets[in.cursor]
	in.cursor++
	return pkt.clone(), nil
}

func (in *fakeInput) SeekToKeyframe(streamIndex int, timestampSeconds float64) error {
	var tb avio.Rational
	for _, s := range in.streams {
		if s.Index == streamIndex {
			tb = s.TimeBase
			break
		}
	}
	if !tb.Valid() {
		return errs.Seek("avtest.SeekToKeyframe", nil)
	}
	target := int64(timestampSeconds / tb.Float64())

	best := -1
	for i, pk := range in.packets {
		if pk.streamIndex != streamIndex || !pk.keyframe {
			continue
		}
		ts := pk.pts
		if !pk.hasPTS {
			ts = pk.dts
		}
		if ts <= target {
			best = i
		} else {
			break
		}
	}
	if best == -1 {
		best = 0
	}
	in.cursor = best
	return nil
}

func (in *fakeInput) Close() error { return nil }

// --- output container ---

// WrittenContainer is the in-memory result of a fake CreateOutput call:
// every stream added, the full ordered packet log, and whether the
// header/trailer were written.
type WrittenContainer struct {
	Format       string
	Options      map[string]string
	Streams      []avio.StreamInfo
	Packets      []PacketFixture
	HeaderWritten bool
	TrailerWritten bool
}

type fakeOutput struct {
	wc *WrittenContainer
}

func (out *fakeOutput) AddStream(src avio.StreamInfo) (int, error) {
	out.wc.Streams = append(out.wc.Streams, src)
	return len(out.wc.Streams) - 1, nil
}

func (out *fakeOutput) WriteHeader(opts map[string]string) error {
	out.wc.Options = opts
	out.wc.HeaderWritten = true
	return nil
}

func (out *fakeOutput) WritePacket(pkt avio.Packet) error {
	if !out.wc.HeaderWritten {
		return errs.InvalidInput("avtest.WritePacket", nil)
	}
	fp, ok := pkt.(*fakePacket)
	if !ok {
		return errs.InvalidInput("avtest.WritePacket", nil)
	}
	pts, hasPTS := fp.PTS()
	dts, hasDTS := fp.DTS()
	out.wc.Packets = append(out.wc.Packets, PacketFixture{
		StreamIndex: fp.streamIndex,
		PTS:         pts,
		DTS:         dts,
		HasPTS:      hasPTS,
		HasDTS:      hasDTS,
		DurationTS:  fp.duration,
		SizeBytes:   fp.size,
		Keyframe:    fp.keyframe,
	})
	return nil
}

func (out *fakeOutput) WriteTrailer() error {
	if !out.wc.HeaderWritten {
		return errs.InvalidInput("avtest.WriteTrailer", nil)
	}
	out.wc.TrailerWritten = true
	return nil
}

func (out *fakeOutput) Close() error { return nil }

// --- packet ---

type fakePacket struct {
	streamIndex int
	pts, dts    int64
	hasPTS      bool
	hasDTS      bool
	duration    int64
	size        int
	keyframe    bool
}

func (p *fakePacket) clone() *fakePacket {
	cp := *p
	return &cp
}

func (p *fakePacket) StreamIndex() int     { return p.streamIndex }
func (p *fakePacket) SetStreamIndex(i int) { p.streamIndex = i }

func (p *fakePacket) PTS() (int64, bool) { return p.pts, p.hasPTS }
func (p *fakePacket) DTS() (int64, bool) { return p.dts, p.hasDTS }
func (p *fakePacket) SetPTS(ts int64)    { p.pts, p.hasPTS = ts, true }
func (p *fakePacket) SetDTS(ts int64)    { p.dts, p.hasDTS = ts, true }

func (p *fakePacket) Duration() int64     { return p.duration }
func (p *fakePacket) SetDuration(d int64) { p.duration = d }

func (p *fakePacket) Size() int       { return p.size }
func (p *fakePacket) IsKeyframe() bool { return p.keyframe }

func (p *fakePacket) ClearPosition() {}

func (p *fakePacket) RescaleTimestamps(from, to avio.Rational) {
	if p.hasPTS {
		p.pts = avio.Rescale(p.pts, from, to)
	}
	if p.hasDTS {
		p.dts = avio.Rescale(p.dts, from, to)
	}
	p.duration = avio.Rescale(p.duration, from, to)
}

func (p *fakePacket) Free() {}

// SortPacketsByTimestamp is a small fixture-building helper: many test
// assets are easiest to author grouped by stream, then interleaved by
// timestamp the way a real demuxer would emit them.
func SortPacketsByTimestamp(pkts []PacketFixture) []PacketFixture {
	sorted := append([]PacketFixture(nil), pkts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].PTS, sorted[j].PTS
		if !sorted[i].HasPTS {
			ti = sorted[i].DTS
		}
		if !sorted[j].HasPTS {
			tj = sorted[j].DTS
		}
		return ti < tj
	})
	return sorted
}
