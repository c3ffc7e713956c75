// Package residue implements the Residue 0/1/2 partition-classification
// decoders described in section 4.5: per-channel spectral content decoded
// with codebooks and added into channel buffers ahead of floor application.
package residue

import (
	"errors"

	"github.com/ik5/vorbisgo/internal/bitpacket"
	"github.com/ik5/vorbisgo/internal/codebook"
)

var (
	ErrShortPacket    = errors.New("residue: packet exhausted while reading header")
	ErrBadBookIndex   = errors.New("residue: book index out of range")
	ErrBadResidueType = errors.New("residue: unsupported residue type")
)

const maxPasses = 8

// Config is the persistent, header-derived configuration for one residue
// slot (section 4.5's "begin, end, partition size, classifications,
// classbook, per-class books per pass").
type Config struct {
	Type            int
	Begin, End      int
	PartitionSize   int
	Classifications int
	ClassBook       int

	cascade [][]int // [classification][pass] -> codebook index, or -1
}

// Init reads a residue header: type (16 bits), begin/end/partition size,
// the classification count and classbook, then per-classification cascade
// bits selecting which of up to 8 passes have a dedicated book.
func Init(p *bitpacket.Packet, books []*codebook.Codebook) (*Config, error) {
	cfg := &Config{}
	cfg.Type = int(p.ReadBits(16))
	if cfg.Type < 0 || cfg.Type > 2 {
		return nil, ErrBadResidueType
	}
	cfg.Begin = int(p.ReadBits(24))
	cfg.End = int(p.ReadBits(24))
	cfg.PartitionSize = int(p.ReadBits(24)) + 1
	cfg.Classifications = int(p.ReadBits(6)) + 1
	cfg.ClassBook = int(p.ReadBits(8))
	if cfg.ClassBook < 0 || cfg.ClassBook >= len(books) {
		return nil, ErrBadBookIndex
	}

	cfg.cascade = make([][]int, cfg.Classifications)
	for c := 0; c < cfg.Classifications; c++ {
		low := int(p.ReadBits(3))
		hasHigh := p.ReadBit() == 1
		high := 0
		if hasHigh {
			high = int(p.ReadBits(5))
		}
		bitmap := (high << 3) | low
		row := make([]int, maxPasses)
		for pass := 0; pass < maxPasses; pass++ {
			if bitmap&(1<<uint(pass)) != 0 {
				idx := int(p.ReadBits(8))
				if idx < 0 || idx >= len(books) {
					return nil, ErrBadBookIndex
				}
				row[pass] = idx
			} else {
				row[pass] = -1
			}
		}
		cfg.cascade[c] = row
	}
	if p.Short() {
		return nil, ErrShortPacket
	}
	return cfg, nil
}

// Decode runs the common partition-classification algorithm (section 4.5)
// over the packet, writing decoded VQ vectors into bufs, one slice per
// channel, each of length n (the block's frequency-bin count). Channels
// with doNotDecode[ch] set are skipped entirely, per the do-not-decode
// rule; the classification read for a fully-skipped partition column is
// still consumed so bit alignment of the remaining passes is preserved.
//
// Residue 0 writes each decoded vector's components at consecutive
// positions; Residue 1 writes them one at a time, tolerating a partition
// size that does not evenly divide the book dimension.
func (cfg *Config) Decode(p *bitpacket.Packet, books []*codebook.Codebook, doNotDecode []bool, bufs [][]float32, n int) error {
	if cfg.Type == 2 {
		return cfg.decodeType2(p, books, doNotDecode, bufs, n)
	}

	classbook := books[cfg.ClassBook]
	end := cfg.End
	if end > n {
		end = n
	}
	if cfg.Begin >= end {
		return nil
	}
	width := end - cfg.Begin
	partitionsToRead := width / cfg.PartitionSize

	classwordsPerCodeword := classbook.Dimension
	numChannels := len(bufs)
	classwords := make([][]int, numChannels)
	for ch := range classwords {
		classwords[ch] = make([]int, partitionsToRead)
	}

	for pass := 0; pass < maxPasses; pass++ {
		partitionCount := 0
		for partitionCount < partitionsToRead {
			if pass == 0 {
				for ch := 0; ch < numChannels; ch++ {
					if doNotDecode[ch] {
						continue
					}
					temp := classbook.DecodeScalar(p)
					if temp < 0 {
						return nil
					}
					for i := classwordsPerCodeword - 1; i >= 0; i-- {
						if partitionCount+i < partitionsToRead {
							classwords[ch][partitionCount+i] = temp % cfg.Classifications
						}
						temp /= cfg.Classifications
					}
				}
			}

			for i := 0; i < classwordsPerCodeword && partitionCount < partitionsToRead; i++ {
				offset := cfg.Begin + partitionCount*cfg.PartitionSize
				for ch := 0; ch < numChannels; ch++ {
					if doNotDecode[ch] {
						continue
					}
					vqclass := classwords[ch][partitionCount]
					bookIdx := cfg.cascade[vqclass][pass]
					if bookIdx < 0 {
						continue
					}
					book := books[bookIdx]
					if cfg.Type == 0 {
						decodeResidue0Partition(p, book, bufs[ch], offset, cfg.PartitionSize)
					} else {
						decodeResidue1Partition(p, book, bufs[ch], offset, cfg.PartitionSize)
					}
					if p.Short() {
						return nil
					}
				}
				partitionCount++
			}
		}
	}
	return nil
}

func decodeResidue0Partition(p *bitpacket.Packet, book *codebook.Codebook, buf []float32, offset, size int) {
	dim := book.Dimension
	pos := offset
	for pos+dim <= offset+size {
		entry := book.DecodeScalar(p)
		if entry < 0 {
			return
		}
		for j := 0; j < dim; j++ {
			if pos+j < len(buf) {
				buf[pos+j] += book.Vector(entry, j)
			}
		}
		pos += dim
	}
}

func decodeResidue1Partition(p *bitpacket.Packet, book *codebook.Codebook, buf []float32, offset, size int) {
	dim := book.Dimension
	remaining := size
	pos := offset
	for remaining > 0 {
		entry := book.DecodeScalar(p)
		if entry < 0 {
			return
		}
		take := dim
		if take > remaining {
			take = remaining
		}
		for j := 0; j < take; j++ {
			if pos+j < len(buf) {
				buf[pos+j] += book.Vector(entry, j)
			}
		}
		pos += take
		remaining -= take
	}
}

// decodeType2 interleaves all channels into one virtual channel of length
// C*n (round-robin: virtual index v maps to channel v%C, bin v/C), decodes
// it with the Residue 0 inner loop, then distributes the result back.
func (cfg *Config) decodeType2(p *bitpacket.Packet, books []*codebook.Codebook, doNotDecode []bool, bufs [][]float32, n int) error {
	c := len(bufs)
	if c == 0 {
		return nil
	}
	anyActive := false
	for _, skip := range doNotDecode {
		if !skip {
			anyActive = true
		}
	}
	if !anyActive {
		return nil
	}

	virtual := make([]float32, c*n)
	inner := *cfg
	inner.Type = 0

	virtualDoNotDecode := []bool{false}
	virtualBufs := [][]float32{virtual}
	if err := inner.Decode(p, books, virtualDoNotDecode, virtualBufs, c*n); err != nil {
		return err
	}

	for v, val := range virtual {
		ch := v % c
		idx := v / c
		if idx < len(bufs[ch]) {
			bufs[ch][idx] += val
		}
	}
	return nil
}
