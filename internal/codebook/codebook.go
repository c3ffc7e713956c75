// Package codebook builds Huffman decode trees from Vorbis codebook headers
// and performs scalar and vector-quantized lookups against them.
package codebook

import (
	"errors"
	"math"

	"github.com/ik5/vorbisgo/internal/bitpacket"
)

// Sync pattern that opens every codebook header, the ASCII "BCV" read
// little-endian as three bytes.
const magic = 0x564342

var (
	ErrBadMagic      = errors.New("codebook: bad sync pattern")
	ErrShortPacket   = errors.New("codebook: packet exhausted while reading header")
	ErrBadHuffman    = errors.New("codebook: code lengths do not form a valid prefix code")
	ErrBadLookupType = errors.New("codebook: unsupported lookup type")
)

// Codebook is immutable once Init returns successfully.
type Codebook struct {
	Dimension  int
	Entries    int
	LookupType int

	lengths []int8 // -1 marks an unused entry

	root        *node // Huffman decode tree; nil when singleEntry is set
	singleEntry int   // used when the book has exactly one length-1 entry
	isSingle    bool

	vq []float32 // Entries * Dimension, populated when LookupType != 0
}

type node struct {
	entry    int // valid when leaf
	leaf     bool
	children [2]*node
}

// Init parses a codebook header out of p, per the bitstream layout in
// section 4.2: magic, dimension, entry count, ordered flag, code lengths,
// then an optional VQ lookup table.
func Init(p *bitpacket.Packet) (*Codebook, error) {
	if p.ReadBits(24) != magic {
		return nil, ErrBadMagic
	}
	dim := int(p.ReadBits(16))
	entries := int(p.ReadBits(24))
	if p.Short() {
		return nil, ErrShortPacket
	}

	cb := &Codebook{Dimension: dim, Entries: entries, lengths: make([]int8, entries)}

	ordered := p.ReadBit() == 1
	if ordered {
		cur := 0
		length := int(p.ReadBits(5)) + 1
		for cur < entries {
			num := int(p.ReadBits(ilog(entries - cur)))
			for i := 0; i < num; i++ {
				cb.lengths[cur+i] = int8(length)
			}
			cur += num
			length++
		}
	} else {
		sparse := p.ReadBit() == 1
		for i := 0; i < entries; i++ {
			used := true
			if sparse {
				used = p.ReadBit() == 1
			}
			if used {
				cb.lengths[i] = int8(p.ReadBits(5) + 1)
			} else {
				cb.lengths[i] = -1
			}
		}
	}
	if p.Short() {
		return nil, ErrShortPacket
	}

	if err := cb.buildHuffman(); err != nil {
		return nil, err
	}

	lookupType := int(p.ReadBits(4))
	cb.LookupType = lookupType
	if lookupType == 0 {
		return cb, nil
	}
	if lookupType != 1 && lookupType != 2 {
		return nil, ErrBadLookupType
	}

	minValue := float32Unpack(p.ReadBits(32))
	deltaValue := float32Unpack(p.ReadBits(32))
	valueBits := int(p.ReadBits(4)) + 1
	sequenceP := p.ReadBit() == 1

	var quantVals int
	if lookupType == 1 {
		quantVals = lookup1Values(entries, dim)
	} else {
		quantVals = entries * dim
	}

	multiplicands := make([]uint64, quantVals)
	for i := range multiplicands {
		multiplicands[i] = p.ReadBits(valueBits)
	}
	if p.Short() {
		return nil, ErrShortPacket
	}

	cb.vq = make([]float32, entries*dim)
	for j := 0; j < entries; j++ {
		var last float32
		if lookupType == 1 {
			divisor := 1
			for d := 0; d < dim; d++ {
				off := (j / divisor) % quantVals
				v := float32(multiplicands[off])*deltaValue + minValue + last
				if sequenceP {
					last = v
				}
				cb.vq[j*dim+d] = v
				divisor *= quantVals
			}
		} else {
			for d := 0; d < dim; d++ {
				v := float32(multiplicands[j*dim+d])*deltaValue + minValue + last
				if sequenceP {
					last = v
				}
				cb.vq[j*dim+d] = v
			}
		}
	}

	return cb, nil
}

// Vector returns the d-th component of entry's VQ vector. Only valid when
// LookupType != 0.
func (cb *Codebook) Vector(entry, d int) float32 {
	return cb.vq[entry*cb.Dimension+d]
}

// DecodeScalar walks the prefix tree bit by bit and returns the matching
// entry index, or -1 if the packet runs out mid-codeword.
func (cb *Codebook) DecodeScalar(p *bitpacket.Packet) int {
	if cb.isSingle {
		return cb.singleEntry
	}
	n := cb.root
	for !n.leaf {
		bit := p.ReadBit()
		if p.Short() {
			return -1
		}
		n = n.children[bit]
		if n == nil {
			return -1
		}
	}
	return n.entry
}

// buildHuffman constructs the canonical prefix-code tree from cb.lengths.
func (cb *Codebook) buildHuffman() error {
	maxLen := 0
	used := 0
	var soleUsed int
	for _, l := range cb.lengths {
		if l > 0 {
			used++
			soleUsed = int(l)
			if int(l) > maxLen {
				maxLen = int(l)
			}
		}
	}

	// Canonical code assignment: entries of the same length are assigned
	// consecutive codes in increasing entry-index order, shortest length first.
	var sum float64
	code := make([]uint32, len(cb.lengths))
	next := uint32(0)
	for length := 1; length <= maxLen; length++ {
		for i, l := range cb.lengths {
			if int(l) == length {
				code[i] = next
				next++
				sum += math.Pow(2, -float64(length))
			}
		}
		next <<= 1
	}

	const eps = 1e-9
	switch {
	case used == 1 && soleUsed == 1:
		cb.isSingle = true
		for i, l := range cb.lengths {
			if l > 0 {
				cb.singleEntry = i
			}
		}
		return nil
	case sum > 1+eps:
		return ErrBadHuffman
	case sum < 1-eps:
		return ErrBadHuffman
	}

	root := &node{}
	for i, l := range cb.lengths {
		if l <= 0 {
			continue
		}
		n := root
		length := int(l)
		c := code[i]
		for b := length - 1; b >= 0; b-- {
			bit := int((c >> uint(b)) & 1)
			if n.children[bit] == nil {
				n.children[bit] = &node{}
			}
			n = n.children[bit]
		}
		n.leaf = true
		n.entry = i
	}
	cb.root = root
	return nil
}

// ilog returns the number of bits needed to represent n (ilog(0) == 0,
// ilog(1) == 1, ilog(2) == 2, ...), matching the Vorbis spec's ilog().
func ilog(n int) int {
	bits := 0
	for n > 0 {
		bits++
		n >>= 1
	}
	return bits
}

// lookup1Values returns the largest integer v such that v^dim <= entries.
func lookup1Values(entries, dim int) int {
	v := 1
	for {
		next := v + 1
		p := 1
		overflow := false
		for i := 0; i < dim; i++ {
			p *= next
			if p > entries {
				overflow = true
				break
			}
		}
		if overflow {
			return v
		}
		v = next
	}
}

// float32Unpack decodes the Vorbis header 32-bit float representation:
// 1 sign bit, 10 exponent bits, 21 mantissa bits, biased so that
// value = mantissa * 2^(exponent-788).
func float32Unpack(x uint64) float32 {
	mantissa := int32(x & 0x1fffff)
	sign := x & 0x80000000
	exponent := int32((x & 0x7fe00000) >> 21)
	if sign != 0 {
		mantissa = -mantissa
	}
	return float32(float64(mantissa) * math.Pow(2, float64(exponent-788)))
}
