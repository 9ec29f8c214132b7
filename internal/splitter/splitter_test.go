package splitter

import (
	"context"
	"testing"

	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/avio/avtest"
	"github.com/mdsohelmia/smartchunking/internal/planner"
)

// oneSecondTB is the 1/1000 time base used by every fixture in this file.
var oneSecondTB = avio.Rational{Num: 1, Den: 1000}

func videoAudioAsset() *avtest.Asset {
	a := &avtest.Asset{
		Streams: []avtest.StreamFixture{
			{Index: 0, MediaType: avio.MediaTypeVideo, TimeBase: oneSecondTB},
			{Index: 1, MediaType: avio.MediaTypeAudio, TimeBase: oneSecondTB},
		},
		DeclaredDuration: 10,
	}
	var pkts []avtest.PacketFixture
	for ms := int64(0); ms <= 10000; ms += 1000 {
		pkts = append(pkts, avtest.PacketFixture{
			StreamIndex: 0, PTS: ms, DTS: ms, HasPTS: true, HasDTS: true,
			SizeBytes: 1000, Keyframe: true,
		})
	}
	for ms := int64(0); ms < 10000; ms += 250 {
		pkts = append(pkts, avtest.PacketFixture{
			StreamIndex: 1, PTS: ms, DTS: ms, HasPTS: true, HasDTS: true,
			SizeBytes: 100,
		})
	}
	a.Packets = avtest.SortPacketsByTimestamp(pkts)
	return a
}

func TestSplitOne_VideoStopsBeforeKeyframeAtOrPastBoundary(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("src.mp4", videoAudioAsset())

	chunk := planner.Chunk{Index: 0, Start: 0, End: 3.5}
	if err := SplitOne(p, "src.mp4", chunk, "out/chunk_0000.mp4", "mp4", Options{}); err != nil {
		t.Fatalf("SplitOne: %v", err)
	}

	wc := p.Written("out/chunk_0000.mp4")
	if wc == nil {
		t.Fatal("no output written")
	}
	if !wc.HeaderWritten || !wc.TrailerWritten {
		t.Fatalf("header/trailer not both written: %+v", wc)
	}

	var lastVideoPTS int64 = -1
	for _, pk := range wc.Packets {
		if pk.StreamIndex == 0 {
			lastVideoPTS = pk.PTS
		}
	}
	// 3.5s falls between keyframes at 3s and 4s; the keyframe that
	// terminates the chunk (4000ms) is excluded so the next chunk's
	// backward-seek can claim it without duplicating it here.
	if lastVideoPTS != 3000 {
		t.Errorf("last video PTS = %d, want 3000 (terminal keyframe excluded)", lastVideoPTS)
	}
}

func TestSplitOne_AudioCutsExactlyAtBoundary(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("src.mp4", videoAudioAsset())

	chunk := planner.Chunk{Index: 0, Start: 0, End: 2.0}
	if err := SplitOne(p, "src.mp4", chunk, "out/chunk_0000.mp4", "mp4", Options{}); err != nil {
		t.Fatalf("SplitOne: %v", err)
	}

	wc := p.Written("out/chunk_0000.mp4")
	for _, pk := range wc.Packets {
		if pk.StreamIndex == 1 && pk.PTS >= 2000 {
			t.Errorf("audio packet at/after boundary was kept: pts=%d", pk.PTS)
		}
	}
}

func TestSplitOne_FragmentedSetsMovflags(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("src.mp4", videoAudioAsset())

	chunk := planner.Chunk{Index: 0, Start: 0, End: 5}
	opts := Options{Fragmented: true}
	if err := SplitOne(p, "src.mp4", chunk, "out/chunk_0000.mp4", "mp4", opts); err != nil {
		t.Fatalf("SplitOne: %v", err)
	}
	wc := p.Written("out/chunk_0000.mp4")
	if wc.Options["movflags"] != "frag_keyframe+empty_moov+omit_tfhd_offset" {
		t.Errorf("movflags = %q, want fragmented flags", wc.Options["movflags"])
	}
}

func TestSplitAll_WritesOneFilePerChunk(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("src.mp4", videoAudioAsset())

	plan := &planner.Plan{
		Duration: 10,
		Chunks: []planner.Chunk{
			{Index: 0, Start: 0, End: 4},
			{Index: 1, Start: 4, End: 7},
			{Index: 2, Start: 7, End: 10},
		},
	}

	outDir := t.TempDir()
	if err := SplitAll(context.Background(), p, "src.mp4", plan, outDir, Options{}); err != nil {
		t.Fatalf("SplitAll: %v", err)
	}

	for i := 0; i < 3; i++ {
		path := outDir + "/" + ChunkFileName(i, "mp4")
		wc := p.Written(path)
		if wc == nil {
			t.Fatalf("chunk %d: no file written at %s", i, path)
		}
		if !wc.TrailerWritten {
			t.Errorf("chunk %d: trailer not written", i)
		}
	}
}

func TestSplitAll_EmptyPlanIsInvalidInput(t *testing.T) {
	p := avtest.NewProvider()
	err := SplitAll(context.Background(), p, "src.mp4", &planner.Plan{}, "out", Options{})
	if err == nil {
		t.Fatal("expected error for empty plan")
	}
}

func TestResolveFormat_AutoDetectsFromExtension(t *testing.T) {
	cases := map[string]string{
		"a.mp4": "mp4", "a.mov": "mov", "a.mkv": "matroska", "a.webm": "webm", "a.avi": "mp4",
	}
	for path, want := range cases {
		if got := ResolveFormat(path, Options{}); got != want {
			t.Errorf("ResolveFormat(%q) = %q, want %q", path, got, want)
		}
	}
	if got := ResolveFormat("a.mp4", Options{ForceFormat: "matroska"}); got != "matroska" {
		t.Errorf("forced format not honored: %q", got)
	}
}
