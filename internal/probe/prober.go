package probe

import (
	"github.com/mdsohelmia/smartchunking/internal/avio"
	"github.com/mdsohelmia/smartchunking/internal/errs"
)

// Scan opens path through provider, walks every packet in container
// order, and returns the probe result for the best video stream.
//
// Only the chosen video stream's packets are recorded; all other
// streams are skipped. The operation makes no writes and discards any
// partial result on error.
func Scan(provider avio.Provider, path string) (*Result, error) {
	const op = "probe.Scan"

	in, err := provider.OpenInput(path)
	if err != nil {
		return nil, errs.IoOpen(op, err)
	}
	defer in.Close()

	streams := in.Streams()
	videoIdx, videoStream, ok := selectVideoStream(streams)
	if !ok {
		return nil, errs.NoVideoStream(op, nil)
	}

	res := &Result{VideoStreamIndex: videoIdx}

	var lastPTSTime float64
	var sawEndTime float64

	for {
		pkt, err := in.ReadPacket()
		if err == avio.ErrEOF {
			break
		}
		if err != nil {
			return nil, errs.ProviderError(op, err)
		}

		if pkt.StreamIndex() != videoIdx {
			pkt.Free()
			continue
		}

		ptsTime, hasTime := resolveTimestamp(pkt, videoStream.TimeBase, lastPTSTime)
		if hasTime {
			lastPTSTime = ptsTime
		}

		end := ptsTime
		if d := pkt.Duration(); d > 0 {
			end = ptsTime + videoStream.TimeBase.Seconds(d)
		}
		if end > sawEndTime {
			sawEndTime = end
		}

		res.Frames = append(res.Frames, Frame{
			PTSTime:    ptsTime,
			IsKeyframe: pkt.IsKeyframe(),
			PacketSize: pkt.Size(),
		})
		pkt.Free()
	}

	res.Duration = maxDuration(sawEndTime, videoStream.DeclaredDuration, in.Duration())
	return res, nil
}

// selectVideoStream picks the "best" video stream: the first one that is
// not an attached-picture (cover art), per spec.md §4.1's "highest
// priority video track" heuristic.
func selectVideoStream(streams []avio.StreamInfo) (int, avio.StreamInfo, bool) {
	for _, s := range streams {
		if s.MediaType == avio.MediaTypeVideo && !s.IsAttachedPic {
			return s.Index, s, true
		}
	}
	return 0, avio.StreamInfo{}, false
}

// resolveTimestamp implements the PTS → DTS → last-known fallback chain.
func resolveTimestamp(pkt avio.Packet, tb avio.Rational, last float64) (float64, bool) {
	if pts, ok := pkt.PTS(); ok {
		return tb.Seconds(pts), true
	}
	if dts, ok := pkt.DTS(); ok {
		return tb.Seconds(dts), true
	}
	return last, false
}

func maxDuration(vals ...float64) float64 {
	var m float64
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}
