package stitcher

import (
	"context"
	"testing"

	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/avio/avtest"
	"github.com/mdsohelmia/smartchunking/internal/errs"
	"github.com/mdsohelmia/smartchunking/internal/planner"
	"github.com/mdsohelmia/smartchunking/internal/splitter"
)

var oneSecondTB = avio.Rational{Num: 1, Den: 1000}

// chunkAsset builds a fake container for one already-split chunk: a
// video stream starting at 0 with one keyframe per second and an audio
// stream with one packet every 250ms, both for durationMS milliseconds.
func chunkAsset(durationMS int64) *avtest.Asset {
	a := &avtest.Asset{
		Streams: []avtest.StreamFixture{
			{Index: 0, MediaType: avio.MediaTypeVideo, TimeBase: oneSecondTB, AvgFrameRate: avio.Rational{Num: 1, Den: 1}},
			{Index: 1, MediaType: avio.MediaTypeAudio, TimeBase: oneSecondTB},
		},
	}
	var pkts []avtest.PacketFixture
	for ms := int64(0); ms < durationMS; ms += 1000 {
		pkts = append(pkts, avtest.PacketFixture{
			StreamIndex: 0, PTS: ms, DTS: ms, HasPTS: true, HasDTS: true,
			SizeBytes: 1000, Keyframe: true,
		})
	}
	for ms := int64(0); ms < durationMS; ms += 250 {
		pkts = append(pkts, avtest.PacketFixture{
			StreamIndex: 1, PTS: ms, DTS: ms, HasPTS: true, HasDTS: true,
			SizeBytes: 100,
		})
	}
	a.Packets = avtest.SortPacketsByTimestamp(pkts)
	return a
}

func twoChunkPlan() *planner.Plan {
	return &planner.Plan{
		Duration: 6,
		Chunks: []planner.Chunk{
			{Index: 0, Start: 0, End: 3},
			{Index: 1, Start: 3, End: 6},
		},
	}
}

func TestStitch_FirstChunkPassesThroughVerbatim(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("chunks/chunk_0000.mp4", chunkAsset(3000))
	p.Register("chunks/chunk_0001.mp4", chunkAsset(3000))

	if err := Stitch(p, "chunks", twoChunkPlan(), "out.mp4", Options{}); err != nil {
		t.Fatalf("Stitch: %v", err)
	}

	wc := p.Written("out.mp4")
	if wc == nil || !wc.HeaderWritten || !wc.TrailerWritten {
		t.Fatalf("header/trailer not written: %+v", wc)
	}

	var firstChunkVideoPTS []int64
	for _, pk := range wc.Packets {
		if pk.StreamIndex == 0 {
			firstChunkVideoPTS = append(firstChunkVideoPTS, pk.PTS)
			if len(firstChunkVideoPTS) == 3 {
				break
			}
		}
	}
	want := []int64{0, 1000, 2000}
	for i, ts := range want {
		if firstChunkVideoPTS[i] != ts {
			t.Errorf("first chunk video pts[%d] = %d, want %d (verbatim passthrough)", i, firstChunkVideoPTS[i], ts)
		}
	}
}

func TestStitch_SecondChunkIsRebasedPastFirst(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("chunks/chunk_0000.mp4", chunkAsset(3000))
	p.Register("chunks/chunk_0001.mp4", chunkAsset(3000))

	if err := Stitch(p, "chunks", twoChunkPlan(), "out.mp4", Options{}); err != nil {
		t.Fatalf("Stitch: %v", err)
	}

	wc := p.Written("out.mp4")

	var videoPTS []int64
	for _, pk := range wc.Packets {
		if pk.StreamIndex == 0 {
			videoPTS = append(videoPTS, pk.PTS)
		}
	}
	// chunk 0 has 3 keyframes (0, 1000, 2000). chunk 1's timeline must
	// start strictly after chunk 0's tail, never overlapping it.
	if len(videoPTS) < 4 {
		t.Fatalf("expected at least 4 video packets, got %d", len(videoPTS))
	}
	tailOfFirstChunk := videoPTS[2]
	firstOfSecondChunk := videoPTS[3]
	if firstOfSecondChunk <= tailOfFirstChunk {
		t.Errorf("second chunk's first pts %d does not come after first chunk's tail %d", firstOfSecondChunk, tailOfFirstChunk)
	}

	// Monotonically increasing throughout: a broken offset computation
	// would manifest as a backward jump at the chunk boundary.
	for i := 1; i < len(videoPTS); i++ {
		if videoPTS[i] <= videoPTS[i-1] {
			t.Errorf("video pts not strictly increasing at index %d: %d <= %d", i, videoPTS[i], videoPTS[i-1])
		}
	}
}

func TestStitch_LayoutMismatchOnStreamCount(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("chunks/chunk_0000.mp4", chunkAsset(3000))

	onlyVideo := &avtest.Asset{
		Streams: []avtest.StreamFixture{
			{Index: 0, MediaType: avio.MediaTypeVideo, TimeBase: oneSecondTB},
		},
		Packets: []avtest.PacketFixture{
			{StreamIndex: 0, PTS: 0, DTS: 0, HasPTS: true, HasDTS: true, Keyframe: true},
		},
	}
	p.Register("chunks/chunk_0001.mp4", onlyVideo)

	err := Stitch(p, "chunks", twoChunkPlan(), "out.mp4", Options{})
	if !errs.Is(err, errs.CodeLayoutMismatch) {
		t.Fatalf("expected layout-mismatch error, got %v", err)
	}
}

func TestStitch_LayoutMismatchOnTimeBase(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("chunks/chunk_0000.mp4", chunkAsset(3000))

	differentTB := chunkAsset(3000)
	differentTB.Streams[0].TimeBase = avio.Rational{Num: 1, Den: 90000}
	p.Register("chunks/chunk_0001.mp4", differentTB)

	err := Stitch(p, "chunks", twoChunkPlan(), "out.mp4", Options{})
	if !errs.Is(err, errs.CodeLayoutMismatch) {
		t.Fatalf("expected layout-mismatch error, got %v", err)
	}
}

func TestStitch_MissingChunkFile(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("chunks/chunk_0000.mp4", chunkAsset(3000))
	// chunk 1 never registered.

	err := Stitch(p, "chunks", twoChunkPlan(), "out.mp4", Options{})
	if err == nil {
		t.Fatal("expected error for missing chunk file")
	}
}

func TestStitch_EmptyPlanIsInvalidInput(t *testing.T) {
	p := avtest.NewProvider()
	err := Stitch(p, "chunks", &planner.Plan{}, "out.mp4", Options{})
	if err == nil {
		t.Fatal("expected error for empty plan")
	}
}

// TestSplitThenStitch_PreservesPerStreamPacketCount exercises the
// split_all -> stitch round trip: every source packet must appear exactly
// once in the stitched output, with no duplication at chunk boundaries.
func TestSplitThenStitch_PreservesPerStreamPacketCount(t *testing.T) {
	p := avtest.NewProvider()
	asset := &avtest.Asset{
		Streams: []avtest.StreamFixture{
			{Index: 0, MediaType: avio.MediaTypeVideo, TimeBase: oneSecondTB, AvgFrameRate: avio.Rational{Num: 1, Den: 1}},
			{Index: 1, MediaType: avio.MediaTypeAudio, TimeBase: oneSecondTB},
		},
		DeclaredDuration: 9,
	}
	var pkts []avtest.PacketFixture
	for ms := int64(0); ms < 9000; ms += 1000 {
		pkts = append(pkts, avtest.PacketFixture{
			StreamIndex: 0, PTS: ms, DTS: ms, HasPTS: true, HasDTS: true,
			SizeBytes: 1000, Keyframe: true,
		})
	}
	for ms := int64(0); ms < 9000; ms += 250 {
		pkts = append(pkts, avtest.PacketFixture{
			StreamIndex: 1, PTS: ms, DTS: ms, HasPTS: true, HasDTS: true,
			SizeBytes: 100,
		})
	}
	asset.Packets = avtest.SortPacketsByTimestamp(pkts)
	p.Register("src.mp4", asset)

	plan := &planner.Plan{
		Duration: 9,
		Chunks: []planner.Chunk{
			{Index: 0, Start: 0, End: 3},
			{Index: 1, Start: 3, End: 6},
			{Index: 2, Start: 6, End: 9},
		},
	}

	if err := splitter.SplitAll(context.Background(), p, "src.mp4", plan, "chunks", splitter.Options{}); err != nil {
		t.Fatalf("SplitAll: %v", err)
	}

	if err := Stitch(p, "chunks", plan, "out.mp4", Options{}); err != nil {
		t.Fatalf("Stitch: %v", err)
	}

	wc := p.Written("out.mp4")
	var videoCount, audioCount int
	for _, pk := range wc.Packets {
		switch pk.StreamIndex {
		case 0:
			videoCount++
		case 1:
			audioCount++
		}
	}
	// 9 keyframes in the source (0..8000 step 1000); each interior chunk
	// boundary hands its terminal keyframe to the next chunk exactly
	// once, so all 9 survive with no duplication and no loss.
	if videoCount != 9 {
		t.Errorf("stitched video packet count = %d, want 9 (no duplication, no loss)", videoCount)
	}
	if audioCount != 36 {
		t.Errorf("stitched audio packet count = %d, want 36 (9000ms / 250ms)", audioCount)
	}
}
