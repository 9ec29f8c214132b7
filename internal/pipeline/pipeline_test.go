package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/avio/avtest"
	"github.com/mdsohelmia/smartchunking/internal/config"
	"github.com/mdsohelmia/smartchunking/internal/logging"
)

var oneSecondTB = avio.Rational{Num: 1, Den: 1000}

// sourceAsset builds one video + one audio track, 9 seconds long, matching
// the literal end-to-end scenario of spec.md §8: split into several chunks,
// stitch back, every packet preserved exactly once.
func sourceAsset() *avtest.Asset {
	a := &avtest.Asset{
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
	a.Packets = avtest.SortPacketsByTimestamp(pkts)
	return a
}

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.JSONLogs = true
	l, err := logging.NewLogger(&cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRun_SplitOnlyReportsPlannedAndSplitChunks(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("src.mp4", sourceAsset())

	cfg := config.DefaultConfig()
	cfg.InputPath = "src.mp4"
	cfg.TargetDuration = 3

	outDir := t.TempDir()
	plan, stats, err := Run(context.Background(), "src.mp4", outDir, &cfg, newTestLogger(t), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if plan == nil || len(plan.Chunks) == 0 {
		t.Fatal("expected a non-empty plan")
	}
	if stats.ChunksPlanned != len(plan.Chunks) {
		t.Errorf("ChunksPlanned = %d, want %d", stats.ChunksPlanned, len(plan.Chunks))
	}
	if stats.ChunksSplit != stats.ChunksPlanned {
		t.Errorf("ChunksSplit = %d, want %d", stats.ChunksSplit, stats.ChunksPlanned)
	}
	if stats.Verified {
		t.Error("Verified should be false when cfg.Verify is unset")
	}

	for i := range plan.Chunks {
		path := filepath.Join(outDir, "chunks", fmt.Sprintf("chunk_%04d.mp4", i))
		wc := p.Written(path)
		if wc == nil || !wc.TrailerWritten {
			t.Errorf("chunk %d was not written at %s", i, path)
		}
	}
}

func TestRun_VerifyReassemblesAndMarksVerified(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("src.mp4", sourceAsset())

	cfg := config.DefaultConfig()
	cfg.InputPath = "src.mp4"
	cfg.TargetDuration = 3
	cfg.Verify = true

	outDir := t.TempDir()
	_, stats, err := Run(context.Background(), "src.mp4", outDir, &cfg, newTestLogger(t), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !stats.Verified {
		t.Fatal("expected Verified to be true")
	}

	wc := p.Written(filepath.Join(outDir, "reassembled.mp4"))
	if wc == nil || !wc.TrailerWritten {
		t.Fatal("reassembled output was not written")
	}

	var videoCount, audioCount int
	for _, pk := range wc.Packets {
		switch pk.StreamIndex {
		case 0:
			videoCount++
		case 1:
			audioCount++
		}
	}
	if videoCount != 9 {
		t.Errorf("stitched video packet count = %d, want 9", videoCount)
	}
	if audioCount != 36 {
		t.Errorf("stitched audio packet count = %d, want 36", audioCount)
	}
}

func TestRun_ProbeFailurePropagatesWithoutPlan(t *testing.T) {
	p := avtest.NewProvider() // "missing.mp4" never registered

	cfg := config.DefaultConfig()
	cfg.InputPath = "missing.mp4"

	plan, _, err := Run(context.Background(), "missing.mp4", t.TempDir(), &cfg, newTestLogger(t), p)
	if err == nil {
		t.Fatal("expected an error for an unopenable source")
	}
	if plan != nil {
		t.Error("expected a nil plan on probe failure")
	}
}

func TestRun_CancelledContextAbortsBeforeSplit(t *testing.T) {
	p := avtest.NewProvider()
	p.Register("src.mp4", sourceAsset())

	cfg := config.DefaultConfig()
	cfg.InputPath = "src.mp4"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Run(ctx, "src.mp4", t.TempDir(), &cfg, newTestLogger(t), p)
	if err == nil {
		t.Fatal("expected context cancellation to abort the run")
	}
}
