// Package ogg implements the Ogg page and packet demuxer that serves as
// the default PacketProvider (section 6's "packet provider contract"):
// page-header parsing, packet reassembly across pages, and granule/EOS/
// resync bookkeeping.
package ogg

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	headerSize      = 27
	maxSegmentValue = 255
)

var capturePattern = [4]byte{'O', 'g', 'g', 'S'}

var ErrBadVersion = errors.New("ogg: unsupported page version")

// Page is one parsed Ogg page: a header plus its packet-segment payload.
type Page struct {
	Version    byte
	Continued  bool
	BOS        bool
	EOS        bool
	Granule    int64
	Serial     uint32
	Sequence   uint32
	CRC        uint32
	CRCValid   bool // computed checksum matched CRC; false means payload corruption slipped past the capture pattern
	Resynced   bool // the capture pattern wasn't where expected and had to be re-acquired byte-by-byte
	Segments   []byte
	Data       []byte
	HeaderBits int // container overhead in bits: 27-byte header + segment table
}

// ReadPage reads and parses one Ogg page from r. If the capture pattern
// isn't at the current read position (a dropped byte, a truncated prior
// page, a splice point), it slides the header window forward one byte at a
// time until it finds the next "OggS" or r is exhausted, and reports the
// scan via Page.Resynced.
func ReadPage(r io.Reader) (*Page, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	resynced := false
	for hdr[0] != capturePattern[0] || hdr[1] != capturePattern[1] ||
		hdr[2] != capturePattern[2] || hdr[3] != capturePattern[3] {
		resynced = true
		copy(hdr[:headerSize-1], hdr[1:])
		if _, err := io.ReadFull(r, hdr[headerSize-1:]); err != nil {
			return nil, err
		}
	}
	if hdr[4] != 0 {
		return nil, ErrBadVersion
	}

	flags := hdr[5]
	p := &Page{
		Version:   hdr[4],
		Continued: flags&0x01 != 0,
		BOS:       flags&0x02 != 0,
		EOS:       flags&0x04 != 0,
		Granule:   int64(binary.LittleEndian.Uint64(hdr[6:14])),
		Serial:    binary.LittleEndian.Uint32(hdr[14:18]),
		Sequence:  binary.LittleEndian.Uint32(hdr[18:22]),
		CRC:       binary.LittleEndian.Uint32(hdr[22:26]),
		Resynced:  resynced,
	}

	nsegs := int(hdr[26])
	p.Segments = make([]byte, nsegs)
	if nsegs > 0 {
		if _, err := io.ReadFull(r, p.Segments); err != nil {
			return nil, err
		}
	}

	total := 0
	for _, s := range p.Segments {
		total += int(s)
	}
	p.Data = make([]byte, total)
	if total > 0 {
		if _, err := io.ReadFull(r, p.Data); err != nil {
			return nil, err
		}
	}
	p.HeaderBits = (headerSize + nsegs) * 8

	zeroedHdr := hdr
	zeroedHdr[22], zeroedHdr[23], zeroedHdr[24], zeroedHdr[25] = 0, 0, 0, 0
	sum := oggCRCUpdate(0, zeroedHdr[:])
	sum = oggCRCUpdate(sum, p.Segments)
	sum = oggCRCUpdate(sum, p.Data)
	p.CRCValid = sum == p.CRC

	return p, nil
}

// Packets splits a page's payload into its constituent packets, following
// the segment table: a packet ends at the first segment shorter than 255
// bytes. The final packet, if the page ends mid-segment-run (last segment
// is exactly 255), is incomplete and continues on the next page.
func (p *Page) Packets() (complete [][]byte, incomplete []byte) {
	start := 0
	offset := 0
	for i := 0; i < len(p.Segments); i++ {
		offset += int(p.Segments[i])
		if p.Segments[i] < maxSegmentValue {
			complete = append(complete, p.Data[start:offset])
			start = offset
		}
	}
	if start < offset {
		incomplete = p.Data[start:offset]
	}
	return complete, incomplete
}
