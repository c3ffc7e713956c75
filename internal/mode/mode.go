// Package mode implements mode dispatch and per-packet decode
// orchestration, section 4.8: selecting block size and window shape,
// then driving floor, residue, mapping, and MDCT in sequence.
package mode

import (
	"errors"

	"github.com/ik5/vorbisgo/internal/bitpacket"
	"github.com/ik5/vorbisgo/internal/codebook"
	"github.com/ik5/vorbisgo/internal/floor"
	"github.com/ik5/vorbisgo/internal/mapping"
	"github.com/ik5/vorbisgo/internal/mdct"
	"github.com/ik5/vorbisgo/internal/residue"
)

var (
	ErrBadMappingIndex = errors.New("mode: mapping index out of range")
	ErrShortPacket     = errors.New("mode: packet exhausted while reading mode header")
)

// Config is one entry of the mode table (section 3's Mode type): the
// block-flag and a mapping index. The window-type and transform-type fields
// are read and must be zero, but are not stored. The
// stream decoder reads a mode-number field ahead of calling Decode to
// select which Config governs a given packet.
type Config struct {
	BlockFlag    bool
	MappingIndex int
}

// Init reads one mode header entry.
func Init(p *bitpacket.Packet, numMappings int) (*Config, error) {
	cfg := &Config{}
	cfg.BlockFlag = p.ReadBit() == 1
	windowType := p.ReadBits(16)
	transformType := p.ReadBits(16)
	cfg.MappingIndex = int(p.ReadBits(8))
	if windowType != 0 || transformType != 0 {
		return nil, ErrShortPacket
	}
	if cfg.MappingIndex < 0 || cfg.MappingIndex >= numMappings {
		return nil, ErrBadMappingIndex
	}
	if p.Short() {
		return nil, ErrShortPacket
	}
	return cfg, nil
}

// Tables bundles the header-derived lookup tables a mode needs to decode
// a packet, all immutable after header ingestion.
type Tables struct {
	Channels int
	Block0   int
	Block1   int

	Books    []*codebook.Codebook
	Floors   []*floor.Floor
	Residues []*residue.Config
	Mappings []*mapping.Config
	Windows  *mdct.WindowSet
	MDCT0    *mdct.MDCT
	MDCT1    *mdct.MDCT
}

// Result is what Decode reports back to the stream decoder so it can
// position the new buffer against prev_buf for overlap-add.
type Result struct {
	Start       int // blockSize/4 - leftHalf/2
	ValidEnd    int // blockSize/4 + rightHalf/2
	TotalLength int // blockSize
	BlockSize   int
}

// Decode performs the per-packet pipeline of section 4.8: conditionally
// read prev/next window bits, unpack floors, propagate coupling, decode
// residues, square-polar decouple, apply floors, inverse-MDCT, and
// window. out must have one []float32 per channel, each with capacity
// for at least Block1 samples; Decode writes exactly TotalLength samples
// into out[ch][:TotalLength].
func Decode(p *bitpacket.Packet, modeCfg *Config, tables *Tables, out [][]float32) (Result, error) {
	var prevWinShort, nextWinShort bool
	if modeCfg.BlockFlag {
		prevWinShort = p.ReadBit() == 1
		nextWinShort = p.ReadBit() == 1
	} else {
		prevWinShort, nextWinShort = true, true
	}

	blockSize := tables.Block0
	mdctXform := tables.MDCT0
	if modeCfg.BlockFlag {
		blockSize = tables.Block1
		mdctXform = tables.MDCT1
	}
	n := blockSize / 2

	if modeCfg.MappingIndex < 0 || modeCfg.MappingIndex >= len(tables.Mappings) {
		return Result{}, ErrBadMappingIndex
	}
	mapCfg := tables.Mappings[modeCfg.MappingIndex]

	noEnergy := make([]bool, tables.Channels)
	floorData := make([]floor.Data, tables.Channels)
	for ch := 0; ch < tables.Channels; ch++ {
		sub := channelSubmap(mapCfg, ch)
		submap := mapCfg.Submaps[sub]
		fl := tables.Floors[submap.FloorIndex]
		d, err := fl.Unpack(p, tables.Books)
		if err != nil {
			return Result{}, err
		}
		floorData[ch] = d
		noEnergy[ch] = d.NoEnergy()
	}

	// Coupling propagation: if either half of a pair carries energy, both
	// channels must participate in residue decode.
	for _, pair := range mapCfg.Coupling {
		if !noEnergy[pair.Magnitude] || !noEnergy[pair.Angle] {
			noEnergy[pair.Magnitude] = false
			noEnergy[pair.Angle] = false
		}
	}

	spectra := make([][]float32, tables.Channels)
	for ch := range spectra {
		spectra[ch] = make([]float32, n)
	}

	submapChannels := make(map[int][]int)
	for ch := 0; ch < tables.Channels; ch++ {
		sub := channelSubmap(mapCfg, ch)
		submapChannels[sub] = append(submapChannels[sub], ch)
	}
	for sub, chans := range submapChannels {
		res := tables.Residues[mapCfg.Submaps[sub].ResidueIndex]
		bufs := make([][]float32, len(chans))
		skip := make([]bool, len(chans))
		for i, ch := range chans {
			bufs[i] = spectra[ch]
			skip[i] = noEnergy[ch]
		}
		if err := res.Decode(p, tables.Books, skip, bufs, n); err != nil {
			return Result{}, err
		}
	}

	mapCfg.Decouple(spectra)

	for ch := 0; ch < tables.Channels; ch++ {
		sub := channelSubmap(mapCfg, ch)
		fl := tables.Floors[mapCfg.Submaps[sub].FloorIndex]
		fl.Apply(floorData[ch], blockSize, spectra[ch])
	}

	window := selectWindow(tables.Windows, modeCfg.BlockFlag, prevWinShort, nextWinShort)

	for ch := 0; ch < tables.Channels; ch++ {
		if cap(out[ch]) < blockSize {
			return Result{}, ErrShortPacket
		}
		buf := out[ch][:blockSize]
		mdctXform.Inverse(spectra[ch], buf)
		for i := 0; i < blockSize; i++ {
			buf[i] *= window[i]
		}
	}

	leftTaper := blockSize / 2
	if prevWinShort && modeCfg.BlockFlag {
		leftTaper = tables.Block0 / 2
	}
	rightTaper := blockSize / 2
	if nextWinShort && modeCfg.BlockFlag {
		rightTaper = tables.Block0 / 2
	}

	return Result{
		Start:       blockSize/4 - leftTaper/2,
		ValidEnd:    blockSize/4 + rightTaper/2,
		TotalLength: blockSize,
		BlockSize:   blockSize,
	}, nil
}

func channelSubmap(cfg *mapping.Config, ch int) int {
	if len(cfg.ChannelSubmap) > ch {
		return cfg.ChannelSubmap[ch]
	}
	return 0
}

func selectWindow(ws *mdct.WindowSet, blockFlag, prevShort, nextShort bool) []float32 {
	if !blockFlag {
		return ws.Short
	}
	pIdx, nIdx := 0, 0
	if prevShort {
		pIdx = 1
	}
	if nextShort {
		nIdx = 1
	}
	return ws.Long[pIdx][nIdx]
}

// GetSampleCount reads only the bits needed to determine how many PCM
// samples a packet will produce (section 4.8's get_sample_count), for
// seeking and granule accounting. modeCfg must be the mode already
// selected by the stream decoder's mode-number field for this packet.
func GetSampleCount(p *bitpacket.Packet, modeCfg *Config, block0, block1 int) int {
	if !modeCfg.BlockFlag {
		return block0
	}
	p.ReadBit() // prev window
	p.ReadBit() // next window
	return block1
}
