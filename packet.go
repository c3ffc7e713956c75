// SPDX-License-Identifier: EPL-2.0

package vorbisgo

import "github.com/ik5/vorbisgo/internal/bitpacket"

// Packet is the bit-packed Vorbis packet type every stage of the pipeline
// reads from. It is an alias for internal/bitpacket.Packet so that the
// internal packages implementing the pipeline (which cannot import this
// root package without an import cycle) and callers implementing their own
// PacketProvider share exactly one type.
type Packet = bitpacket.Packet

// NewPacket wraps data as a Packet with no Ogg-level metadata set. A custom
// PacketProvider uses this, then the metadata setters on Packet, to report a
// packet's granule position, EOS/resync flags, and container overhead.
func NewPacket(data []byte) *Packet {
	return bitpacket.New(data)
}
