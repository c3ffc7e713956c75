// Package mapping wires floors and residues to channels and implements
// square-polar channel coupling, per section 4.6.
package mapping

import (
	"errors"

	"github.com/ik5/vorbisgo/internal/bitpacket"
)

var (
	ErrShortPacket     = errors.New("mapping: packet exhausted while reading header")
	ErrBadSubmapIndex  = errors.New("mapping: submap index out of range")
	ErrBadChannelIndex = errors.New("mapping: coupling channel index out of range or not distinct")
)

// CouplingPair names the magnitude and angle channels of one coupled pair.
type CouplingPair struct {
	Magnitude int
	Angle     int
}

// Submap names the floor and residue configuration used by the channels
// assigned to it.
type Submap struct {
	FloorIndex   int
	ResidueIndex int
}

// Config is the persistent, header-derived configuration for a mapping.
type Config struct {
	Submaps         []Submap
	Coupling        []CouplingPair
	ChannelSubmap   []int // per channel, index into Submaps
}

// Init reads a mapping header, given the channel count it applies to.
func Init(p *bitpacket.Packet, channels int) (*Config, error) {
	cfg := &Config{}

	submapFlag := p.ReadBit() == 1
	numSubmaps := 1
	if submapFlag {
		numSubmaps = int(p.ReadBits(4)) + 1
	}
	cfg.Submaps = make([]Submap, numSubmaps)

	couplingFlag := p.ReadBit() == 1
	if couplingFlag {
		couplingSteps := int(p.ReadBits(8)) + 1
		chBits := ilog(channels - 1)
		cfg.Coupling = make([]CouplingPair, couplingSteps)
		seen := make(map[int]bool)
		for i := range cfg.Coupling {
			m := int(p.ReadBits(chBits))
			a := int(p.ReadBits(chBits))
			if m == a || m < 0 || m >= channels || a < 0 || a >= channels {
				return nil, ErrBadChannelIndex
			}
			if seen[m] || seen[a] {
				return nil, ErrBadChannelIndex
			}
			seen[m] = true
			seen[a] = true
			cfg.Coupling[i] = CouplingPair{Magnitude: m, Angle: a}
		}
	}

	if reserved := p.ReadBits(2); reserved != 0 {
		return nil, ErrShortPacket
	}

	if numSubmaps > 1 {
		cfg.ChannelSubmap = make([]int, channels)
		for ch := range cfg.ChannelSubmap {
			cfg.ChannelSubmap[ch] = int(p.ReadBits(4))
			if cfg.ChannelSubmap[ch] >= numSubmaps {
				return nil, ErrBadSubmapIndex
			}
		}
	} else {
		cfg.ChannelSubmap = make([]int, channels)
	}

	for i := range cfg.Submaps {
		p.ReadBits(8) // unused time-domain placeholder, retained for bit alignment
		floorIdx := int(p.ReadBits(8))
		residueIdx := int(p.ReadBits(8))
		cfg.Submaps[i] = Submap{FloorIndex: floorIdx, ResidueIndex: residueIdx}
	}

	if p.Short() {
		return nil, ErrShortPacket
	}
	return cfg, nil
}

// Decouple reverses square-polar coupling in place across spectra, one
// slice per channel, each of length n frequency bins. For each coupling
// pair (M,A) and each bin k:
//
//	M>0, A>=0: (M, M-A)
//	M>0, A<0:  (M+A, M)
//	M<=0, A>=0: (M, M+A)
//	M<=0, A<0: (M-A, M)
func (cfg *Config) Decouple(spectra [][]float32) {
	for _, pair := range cfg.Coupling {
		mag := spectra[pair.Magnitude]
		ang := spectra[pair.Angle]
		n := len(mag)
		if len(ang) < n {
			n = len(ang)
		}
		for k := 0; k < n; k++ {
			m := mag[k]
			a := ang[k]
			var newM, newA float32
			switch {
			case m > 0 && a >= 0:
				newM, newA = m, m-a
			case m > 0 && a < 0:
				newM, newA = m+a, m
			case m <= 0 && a >= 0:
				newM, newA = m, m+a
			default:
				newM, newA = m-a, m
			}
			mag[k] = newM
			ang[k] = newA
		}
	}
}

func ilog(n int) int {
	bits := 0
	for n > 0 {
		bits++
		n >>= 1
	}
	return bits
}
