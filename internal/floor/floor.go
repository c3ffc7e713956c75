// Package floor implements the Floor 0 (LSP) and Floor 1 (piecewise-linear)
// spectral envelope decoders described in section 4.3/4.4: each unpacks a
// per-channel envelope from a packet, then renders it into a linear-
// magnitude curve that is multiplied elementwise into a residue spectrum.
package floor

import (
	"errors"

	"github.com/ik5/vorbisgo/internal/bitpacket"
	"github.com/ik5/vorbisgo/internal/codebook"
)

var (
	ErrShortPacket  = errors.New("floor: packet exhausted while reading header or data")
	ErrBadBookIndex = errors.New("floor: book index out of range")
	ErrBadFloorType = errors.New("floor: unsupported floor type")
)

// Data is the per-packet, per-channel unpack result for either floor
// variant. A channel with NoEnergy set is "do not execute": Apply leaves
// its residue spectrum untouched (silence).
type Data interface {
	NoEnergy() bool
}

// Floor is the closed sum type over Floor 0 and Floor 1, holding the
// persistent, header-derived configuration for one floor slot.
type Floor struct {
	Type int // 0 or 1
	f0   *Floor0Config
	f1   *Floor1Config
}

// Init reads a floor header (section 4.3/4.4's "unpack" of the persistent
// configuration, as opposed to the per-packet data) from p, given the
// codebook table it may reference.
func Init(p *bitpacket.Packet, books []*codebook.Codebook) (*Floor, error) {
	t := int(p.ReadBits(16))
	switch t {
	case 0:
		cfg, err := initFloor0(p, books)
		if err != nil {
			return nil, err
		}
		return &Floor{Type: 0, f0: cfg}, nil
	case 1:
		cfg, err := initFloor1(p, books)
		if err != nil {
			return nil, err
		}
		return &Floor{Type: 1, f1: cfg}, nil
	default:
		return nil, ErrBadFloorType
	}
}

// Unpack decodes this floor's per-packet data for one channel.
func (f *Floor) Unpack(p *bitpacket.Packet, books []*codebook.Codebook) (Data, error) {
	if f.Type == 0 {
		return f.f0.unpack(p, books)
	}
	return f.f1.unpack(p, books)
}

// Apply renders data into a linear-magnitude curve of length blockSize/2
// and multiplies it elementwise into spectrum.
func (f *Floor) Apply(data Data, blockSize int, spectrum []float32) {
	if data.NoEnergy() {
		return
	}
	if f.Type == 0 {
		f.f0.apply(data.(*Floor0Data), blockSize, spectrum)
	} else {
		f.f1.apply(data.(*Floor1Data), blockSize, spectrum)
	}
}
