// Package probe performs a packet-only scan of a single video asset: it
// walks every packet in container order, records per-frame metadata for
// the chosen video stream, and determines a trustworthy total duration.
// No codec decoding is performed; the scan costs one demux pass.
package probe
