package floor

import (
	"math"

	"github.com/ik5/vorbisgo/internal/bitpacket"
	"github.com/ik5/vorbisgo/internal/codebook"
)

// Floor0Config is the persistent header configuration for a Floor 0 (LSP)
// slot, read once per logical stream.
type Floor0Config struct {
	Order           int
	Rate            int
	BarkMapSize     int
	AmplitudeBits   int
	AmplitudeOffset int
	BookList        []int

	barkMap []int // precomputed per line-index bark bin, length set lazily per blockSize
	mapN    int
}

// Floor0Data is the per-packet unpack result for one channel.
type Floor0Data struct {
	noEnergy  bool
	amplitude int
	book      *codebook.Codebook
	coeffs    []float32 // LSP coefficients, length Order
}

func (d *Floor0Data) NoEnergy() bool { return d.noEnergy }

func initFloor0(p *bitpacket.Packet, books []*codebook.Codebook) (*Floor0Config, error) {
	cfg := &Floor0Config{}
	cfg.Order = int(p.ReadBits(8))
	cfg.Rate = int(p.ReadBits(16))
	cfg.BarkMapSize = int(p.ReadBits(16))
	cfg.AmplitudeBits = int(p.ReadBits(6))
	cfg.AmplitudeOffset = int(p.ReadBits(8))
	numBooks := int(p.ReadBits(4)) + 1
	cfg.BookList = make([]int, numBooks)
	for i := range cfg.BookList {
		idx := int(p.ReadBits(8))
		if idx < 0 || idx >= len(books) {
			return nil, ErrBadBookIndex
		}
		cfg.BookList[i] = idx
	}
	if p.Short() {
		return nil, ErrShortPacket
	}
	return cfg, nil
}

func (cfg *Floor0Config) unpack(p *bitpacket.Packet, books []*codebook.Codebook) (Data, error) {
	amplitude := int(p.ReadBits(cfg.AmplitudeBits))
	if amplitude <= 0 {
		return &Floor0Data{noEnergy: true}, nil
	}

	numBooks := len(cfg.BookList)
	bookBits := ilog(numBooks - 1)
	bookSel := 0
	if bookBits > 0 {
		bookSel = int(p.ReadBits(bookBits))
	}
	if bookSel < 0 || bookSel >= numBooks {
		return nil, ErrBadBookIndex
	}
	book := books[cfg.BookList[bookSel]]

	coeffs := make([]float32, 0, cfg.Order+book.Dimension)
	for len(coeffs) < cfg.Order {
		entry := book.DecodeScalar(p)
		if entry < 0 || p.Short() {
			return nil, ErrShortPacket
		}
		for d := 0; d < book.Dimension; d++ {
			coeffs = append(coeffs, book.Vector(entry, d))
		}
	}
	coeffs = coeffs[:cfg.Order]

	return &Floor0Data{amplitude: amplitude, book: book, coeffs: coeffs}, nil
}

// apply synthesizes the LSP magnitude curve and multiplies it into
// spectrum, a slice of length blockSize/2.
func (cfg *Floor0Config) apply(d *Floor0Data, blockSize int, spectrum []float32) {
	n := blockSize / 2
	barkMap := cfg.lineMap(n)

	ampScale := float32(0)
	if cfg.AmplitudeBits > 0 {
		ampScale = float32(d.amplitude) / float32((int(1)<<uint(cfg.AmplitudeBits))-1)
	}

	for i := 0; i < n; i++ {
		w := math.Pi * float64(barkMap[i]) / float64(cfg.BarkMapSize)
		cosw := math.Cos(w)

		p, q := 0.5, 0.5
		half := cfg.Order / 2
		for j := 0; j < half; j++ {
			c0 := math.Cos(float64(d.coeffs[2*j]))
			p *= (cosw - c0) * (cosw - c0)
		}
		for j := 0; j < half; j++ {
			c1 := math.Cos(float64(d.coeffs[2*j+1]))
			q *= (cosw - c1) * (cosw - c1)
		}
		if cfg.Order%2 == 1 && half < cfg.Order {
			cLast := math.Cos(float64(d.coeffs[cfg.Order-1]))
			q *= (cosw - cLast) * (cosw - cLast)
		}

		mag := 1.0 / math.Sqrt(p+q)
		db := float64(ampScale)*float64(cfg.AmplitudeOffset) - 20*math.Log10(1+1/mag)
		spectrum[i] *= float32(math.Pow(10, db/20))
	}
}

// lineMap returns (building it lazily, once, for the observed n) the
// bark-warped bin index for each of the n spectral lines.
func (cfg *Floor0Config) lineMap(n int) []int {
	if cfg.mapN == n && cfg.barkMap != nil {
		return cfg.barkMap
	}
	m := make([]int, n)
	nyquist := float64(cfg.Rate) / 2
	maxBark := toBark(nyquist)
	for i := 0; i < n; i++ {
		freq := float64(i) * nyquist / float64(n)
		b := toBark(freq) / maxBark * float64(cfg.BarkMapSize-1)
		idx := int(b)
		if idx >= cfg.BarkMapSize {
			idx = cfg.BarkMapSize - 1
		}
		m[i] = idx
	}
	cfg.barkMap = m
	cfg.mapN = n
	return m
}

func toBark(hz float64) float64 {
	return 13.1*math.Atan(0.00074*hz) + 2.24*math.Atan(0.0000000185*hz*hz) + 0.0001*hz
}

func ilog(n int) int {
	bits := 0
	for n > 0 {
		bits++
		n >>= 1
	}
	return bits
}
