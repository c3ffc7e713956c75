package floor

import (
	"sort"

	"github.com/ik5/vorbisgo/internal/bitpacket"
	"github.com/ik5/vorbisgo/internal/codebook"
)

// Floor1Config is the persistent header configuration for a Floor 1
// (piecewise-linear) slot.
//
// Y values, whether the two fixed base posts or the per-partition posts
// decoded from a subclass book, are stored and rendered as indices into the
// shared 256-entry inverse-dB table; this keeps the header-to-render path
// uniform regardless of which book produced a given Y.
type Floor1Config struct {
	PartitionClassList []int
	ClassDimensions    []int
	ClassSubclasses    []int
	MasterBooks        []int
	SubclassBooks      [][]int
	Multiplier         int
	RangeBits          int
	MaxX               int
	X                  []int // posit positions in header order; X[0]=0, X[1]=MaxX
}

// Floor1Data is the per-packet unpack result for one channel.
type Floor1Data struct {
	noEnergy bool
	Y        []int
	unused   []bool
}

func (d *Floor1Data) NoEnergy() bool { return d.noEnergy }

func initFloor1(p *bitpacket.Packet, books []*codebook.Codebook) (*Floor1Config, error) {
	cfg := &Floor1Config{}
	partitions := int(p.ReadBits(5))
	cfg.PartitionClassList = make([]int, partitions)
	maxClass := -1
	for i := range cfg.PartitionClassList {
		c := int(p.ReadBits(4))
		cfg.PartitionClassList[i] = c
		if c > maxClass {
			maxClass = c
		}
	}

	numClasses := maxClass + 1
	cfg.ClassDimensions = make([]int, numClasses)
	cfg.ClassSubclasses = make([]int, numClasses)
	cfg.MasterBooks = make([]int, numClasses)
	cfg.SubclassBooks = make([][]int, numClasses)
	for c := 0; c < numClasses; c++ {
		cfg.ClassDimensions[c] = int(p.ReadBits(3)) + 1
		cfg.ClassSubclasses[c] = int(p.ReadBits(2))
		cfg.MasterBooks[c] = -1
		if cfg.ClassSubclasses[c] > 0 {
			cfg.MasterBooks[c] = int(p.ReadBits(8))
		}
		subCount := 1 << uint(cfg.ClassSubclasses[c])
		cfg.SubclassBooks[c] = make([]int, subCount)
		for s := 0; s < subCount; s++ {
			cfg.SubclassBooks[c][s] = int(p.ReadBits(8)) - 1
		}
	}

	cfg.Multiplier = int(p.ReadBits(2)) + 1
	cfg.RangeBits = int(p.ReadBits(4))
	cfg.MaxX = 1 << uint(cfg.RangeBits)

	cfg.X = append(cfg.X, 0, cfg.MaxX)
	for i := 0; i < partitions; i++ {
		class := cfg.PartitionClassList[i]
		dim := cfg.ClassDimensions[class]
		for j := 0; j < dim; j++ {
			cfg.X = append(cfg.X, int(p.ReadBits(cfg.RangeBits)))
		}
	}

	if p.Short() {
		return nil, ErrShortPacket
	}
	for _, c := range cfg.MasterBooks {
		if c >= len(books) {
			return nil, ErrBadBookIndex
		}
	}
	return cfg, nil
}

func (cfg *Floor1Config) unpack(p *bitpacket.Packet, books []*codebook.Codebook) (Data, error) {
	nonzero := p.ReadBit() == 1
	if !nonzero {
		return &Floor1Data{noEnergy: true}, nil
	}

	count := len(cfg.X)
	Y := make([]int, count)
	unused := make([]bool, count)

	rangeBits := ilog(256 - 1)
	Y[0] = int(p.ReadBits(rangeBits))
	Y[1] = int(p.ReadBits(rangeBits))

	idx := 2
	for _, class := range cfg.PartitionClassList {
		dim := cfg.ClassDimensions[class]
		csub := 1 << uint(cfg.ClassSubclasses[class])

		cval := 0
		if cfg.MasterBooks[class] >= 0 {
			cval = books[cfg.MasterBooks[class]].DecodeScalar(p)
			if cval < 0 {
				for k := 0; k < dim; k++ {
					unused[idx+k] = true
				}
				idx += dim
				continue
			}
		}

		for j := 0; j < dim; j++ {
			bookIdx := cfg.SubclassBooks[class][cval%csub]
			cval /= csub
			if bookIdx < 0 {
				Y[idx] = 0
			} else {
				val := books[bookIdx].DecodeScalar(p)
				if val < 0 {
					unused[idx] = true
					val = 0
				}
				Y[idx] = val
			}
			idx++
		}
	}
	if p.Short() {
		return nil, ErrShortPacket
	}

	// Reconstruct absolute amplitudes from predicted-plus-offset form,
	// walking posts in header order so each one's neighbors (by X, among
	// already-reconstructed indices) are available.
	for i := 2; i < count; i++ {
		if unused[i] {
			continue
		}
		lo := lowNeighbor(cfg.X, i)
		hi := highNeighbor(cfg.X, i)
		predicted := renderPoint(cfg.X[lo], Y[lo], cfg.X[hi], Y[hi], cfg.X[i])

		raw := Y[i]
		var offset int
		if raw%2 == 0 {
			offset = raw / 2
		} else {
			offset = -((raw + 1) / 2)
		}
		Y[i] = clampIndex(predicted + offset)
	}

	return &Floor1Data{Y: Y, unused: unused}, nil
}

func lowNeighbor(X []int, i int) int {
	best := -1
	for j := 0; j < i; j++ {
		if X[j] < X[i] && (best == -1 || X[j] > X[best]) {
			best = j
		}
	}
	if best == -1 {
		best = 0
	}
	return best
}

func highNeighbor(X []int, i int) int {
	best := -1
	for j := 0; j < i; j++ {
		if X[j] > X[i] && (best == -1 || X[j] < X[best]) {
			best = j
		}
	}
	if best == -1 {
		best = 1
	}
	return best
}

func renderPoint(x0, y0, x1, y1, x int) int {
	if x1 == x0 {
		return y0
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// apply renders the decoded posts into a piecewise-linear curve and
// multiplies it into spectrum, a slice of length blockSize/2.
func (cfg *Floor1Config) apply(d *Floor1Data, blockSize int, spectrum []float32) {
	n := blockSize / 2

	type point struct{ x, y int }
	pts := make([]point, 0, len(cfg.X))
	for i, x := range cfg.X {
		if d.unused[i] {
			continue
		}
		pts = append(pts, point{x, d.Y[i]})
	}
	sort.Slice(pts, func(a, b int) bool { return pts[a].x < pts[b].x })
	if len(pts) < 2 {
		return
	}

	scale := func(x int) int { return x * n / cfg.MaxX }

	for k := 0; k+1 < len(pts); k++ {
		x0, y0 := scale(pts[k].x), pts[k].y
		x1, y1 := scale(pts[k+1].x), pts[k+1].y
		if x1 <= x0 {
			continue
		}
		for x := x0; x < x1 && x < n; x++ {
			y := renderPoint(x0, y0, x1, y1, x)
			idx := clampIndex(y * cfg.Multiplier)
			spectrum[x] *= inverseDBTable[idx]
		}
	}
}
