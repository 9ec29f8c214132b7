package probe

import (
	"testing"

	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/avio/avtest"
	"github.com/mdsohelmia/smartchunking/internal/errs"
)

func videoStream(index int, declared float64) avtest.StreamFixture {
	return avtest.StreamFixture{
		Index:            index,
		MediaType:        avio.MediaTypeVideo,
		CodecID:          27, // arbitrary opaque id, H.264-shaped
		TimeBase:         avio.Rational{Num: 1, Den: 90000},
		DeclaredDuration: declared,
		AvgFrameRate:     avio.Rational{Num: 25, Den: 1},
	}
}

func attachedPicStream(index int) avtest.StreamFixture {
	return avtest.StreamFixture{
		Index:         index,
		MediaType:     avio.MediaTypeVideo,
		CodecID:       7, // mjpeg-shaped
		TimeBase:      avio.Rational{Num: 1, Den: 90000},
		IsAttachedPic: true,
	}
}

func videoPacket(streamIndex int, ptsSeconds float64, size int, keyframe bool) avtest.PacketFixture {
	return avtest.PacketFixture{
		StreamIndex: streamIndex,
		PTS:         int64(ptsSeconds * 90000),
		HasPTS:      true,
		SizeBytes:   size,
		Keyframe:    keyframe,
	}
}

func TestScan_BasicSequence(t *testing.T) {
	p := avtest.NewProvider()
	asset := &avtest.Asset{
		Streams: []avtest.StreamFixture{videoStream(0, 0)},
		Packets: []avtest.PacketFixture{
			videoPacket(0, 0.0, 50000, true),
			videoPacket(0, 1.0, 20000, false),
			videoPacket(0, 2.0, 30000, false),
			videoPacket(0, 3.0, 48000, true),
		},
	}
	p.Register("in.mp4", asset)

	res, err := Scan(p, "in.mp4")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Frames) != 4 {
		t.Fatalf("frames: got %d, want 4", len(res.Frames))
	}
	if res.Frames[0].PTSTime != 0.0 || !res.Frames[0].IsKeyframe {
		t.Errorf("frame0: got %+v", res.Frames[0])
	}
	if res.Frames[3].PTSTime != 3.0 || !res.Frames[3].IsKeyframe {
		t.Errorf("frame3: got %+v", res.Frames[3])
	}
	if res.Duration != 3.0 {
		t.Errorf("duration: got %v, want 3.0", res.Duration)
	}
}

func TestScan_DurationPrefersLargestOfThree(t *testing.T) {
	p := avtest.NewProvider()
	asset := &avtest.Asset{
		Streams:          []avtest.StreamFixture{videoStream(0, 12.5)},
		Packets:          []avtest.PacketFixture{videoPacket(0, 0.0, 1000, true)},
		DeclaredDuration: 9.0,
	}
	p.Register("in.mp4", asset)

	res, err := Scan(p, "in.mp4")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Duration != 12.5 {
		t.Errorf("duration: got %v, want 12.5 (stream declared duration wins)", res.Duration)
	}
}

func TestScan_SkipsAttachedPicPrefersRealVideo(t *testing.T) {
	p := avtest.NewProvider()
	asset := &avtest.Asset{
		Streams: []avtest.StreamFixture{
			attachedPicStream(0),
			videoStream(1, 0),
		},
		Packets: []avtest.PacketFixture{
			{StreamIndex: 0, SizeBytes: 9000, Keyframe: true},
			videoPacket(1, 0.0, 50000, true),
			videoPacket(1, 1.0, 20000, false),
		},
	}
	p.Register("in.mkv", asset)

	res, err := Scan(p, "in.mkv")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.VideoStreamIndex != 1 {
		t.Errorf("video stream index: got %d, want 1", res.VideoStreamIndex)
	}
	if len(res.Frames) != 2 {
		t.Fatalf("frames: got %d, want 2 (attached pic packet must be skipped)", len(res.Frames))
	}
}

func TestScan_IgnoresOtherStreamPackets(t *testing.T) {
	p := avtest.NewProvider()
	asset := &avtest.Asset{
		Streams: []avtest.StreamFixture{
			videoStream(0, 0),
			{Index: 1, MediaType: avio.MediaTypeAudio, TimeBase: avio.Rational{Num: 1, Den: 48000}},
		},
		Packets: []avtest.PacketFixture{
			videoPacket(0, 0.0, 50000, true),
			{StreamIndex: 1, PTS: 2000, HasPTS: true, SizeBytes: 500},
			videoPacket(0, 1.0, 20000, false),
		},
	}
	p.Register("in.mp4", asset)

	res, err := Scan(p, "in.mp4")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Frames) != 2 {
		t.Fatalf("frames: got %d, want 2 (audio packet must be ignored)", len(res.Frames))
	}
}

func TestScan_NoVideoStream(t *testing.T) {
	p := avtest.NewProvider()
	asset := &avtest.Asset{
		Streams: []avtest.StreamFixture{
			{Index: 0, MediaType: avio.MediaTypeAudio, TimeBase: avio.Rational{Num: 1, Den: 48000}},
		},
	}
	p.Register("audio_only.mp4", asset)

	_, err := Scan(p, "audio_only.mp4")
	if !errs.Is(err, errs.CodeNoVideoStream) {
		t.Fatalf("expected NoVideoStream, got %v", err)
	}
}

func TestScan_MissingFile(t *testing.T) {
	p := avtest.NewProvider()
	_, err := Scan(p, "does_not_exist.mp4")
	if !errs.Is(err, errs.CodeIoOpen) {
		t.Fatalf("expected IoOpen, got %v", err)
	}
}

func TestKeyframes(t *testing.T) {
	res := &Result{Frames: []Frame{
		{PTSTime: 0, IsKeyframe: true},
		{PTSTime: 1, IsKeyframe: false},
		{PTSTime: 2, IsKeyframe: true},
	}}
	kfs := res.Keyframes()
	if len(kfs) != 2 || kfs[0] != 0 || kfs[1] != 2 {
		t.Errorf("got %v", kfs)
	}
}
