// SPDX-License-Identifier: EPL-2.0

package vorbisgo

// PacketProvider is the collaborator StreamDecoder pulls packets from. It
// owns the transport-level concerns this package treats as out of scope:
// Ogg page parsing, resync detection, and coarse page-level seeking.
// internal/ogg.Demuxer is the default implementation; callers may supply
// their own for chained or multiplexed streams.
type PacketProvider interface {
	// PeekNext returns the next packet without consuming it. A later
	// GetNext or PeekNext call returns the same packet. Returns io.EOF
	// when the stream is exhausted.
	PeekNext() (*Packet, error)

	// GetNext returns and consumes the next packet. Returns io.EOF when
	// the stream is exhausted.
	GetNext() (*Packet, error)

	// SeekTo repositions the provider at the page containing targetGranule
	// and returns the granule position landed on. Implementations perform
	// a coarse, page-granularity search; StreamDecoder handles pre-roll
	// and exact sample positioning itself.
	SeekTo(targetGranule int64) (int64, error)

	// GranuleCount returns the stream's total granule count (sample
	// count, for Vorbis), typically found by scanning to the final page.
	GranuleCount() (int64, error)
}
