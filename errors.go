// SPDX-License-Identifier: EPL-2.0

package vorbisgo

import "fmt"

// Kind classifies a vorbisgo.Error so callers can switch on failure
// category instead of comparing error values.
type Kind int

const (
	// NotVorbis means the first packet is identifiably another codec or
	// has no recognisable Vorbis header.
	NotVorbis Kind = iota
	// HeaderMalformed means a signature mismatch, invalid codebook, or a
	// missing framing bit was found during header ingestion. Fatal at
	// construction.
	HeaderMalformed
	// PacketCorrupt means the bit reader was exhausted inside a field, an
	// out-of-range book entry or mode index was read, or a floor/residue
	// bounds check failed. The offending packet is dropped and decoding
	// continues.
	PacketCorrupt
	// SeekOutOfRange means the requested sample was negative or beyond
	// the stream's granule count.
	SeekOutOfRange
	// SeekPreRollFailed means the two packets needed to restore overlap
	// continuity after a seek could not be fetched.
	SeekPreRollFailed
	// Disposed means the operation was attempted on a decoder whose
	// provider has already been released.
	Disposed
)

func (k Kind) String() string {
	switch k {
	case NotVorbis:
		return "NotVorbis"
	case HeaderMalformed:
		return "HeaderMalformed"
	case PacketCorrupt:
		return "PacketCorrupt"
	case SeekOutOfRange:
		return "SeekOutOfRange"
	case SeekPreRollFailed:
		return "SeekPreRollFailed"
	case Disposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}

// Error is the typed error this package returns, carrying the failure
// kind, the offending packet (when one exists), and the underlying cause.
type Error struct {
	Kind    Kind
	Packet  *Packet
	Err     error
	Message string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vorbisgo: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("vorbisgo: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, pkt *Packet, message string, err error) *Error {
	return &Error{Kind: kind, Packet: pkt, Message: message, Err: err}
}
