package ogg

import (
	"errors"
	"io"

	"github.com/ik5/vorbisgo/internal/bitpacket"
)

// noGranule is the Ogg sentinel granule position meaning "no packet
// completes on this page".
const noGranule = -1

var ErrDisposed = errors.New("ogg: demuxer has no reader")

// Demuxer reassembles packets for one logical Vorbis stream out of an Ogg
// byte stream, implementing the decoder's packet provider contract
// (PeekNext, GetNext, SeekTo, GranuleCount).
type Demuxer struct {
	r io.Reader

	serial    uint32
	hasSerial bool

	pending       []byte // bytes of a packet still awaiting its continuation page
	resyncPending bool

	ready []*bitpacket.Packet

	peeked    *bitpacket.Packet
	hasPeeked bool
}

// NewDemuxer wraps r as a packet source.
func NewDemuxer(r io.Reader) *Demuxer {
	return &Demuxer{r: r}
}

// GetNext returns the next packet, or nil, io.EOF at end of stream.
func (d *Demuxer) GetNext() (*bitpacket.Packet, error) {
	if d.hasPeeked {
		p := d.peeked
		d.peeked = nil
		d.hasPeeked = false
		return p, nil
	}
	return d.next()
}

// PeekNext returns the next packet without consuming it; a later GetNext
// or PeekNext returns the same packet.
func (d *Demuxer) PeekNext() (*bitpacket.Packet, error) {
	if d.hasPeeked {
		return d.peeked, nil
	}
	p, err := d.next()
	if err != nil {
		return nil, err
	}
	d.peeked = p
	d.hasPeeked = true
	return p, nil
}

func (d *Demuxer) next() (*bitpacket.Packet, error) {
	for len(d.ready) == 0 {
		if err := d.fillQueue(); err != nil {
			return nil, err
		}
	}
	p := d.ready[0]
	d.ready = d.ready[1:]
	return p, nil
}

func (d *Demuxer) fillQueue() error {
	if d.r == nil {
		return ErrDisposed
	}

	page, err := ReadPage(d.r)
	if err != nil {
		return err
	}

	if !page.CRCValid {
		// The capture pattern synced, but the payload doesn't match its own
		// checksum: a bit flip or a truncated-but-resumed stream. The page's
		// segment table and granule can't be trusted either, so discard the
		// whole page and mark the next packet we do produce as a resync.
		d.pending = nil
		d.resyncPending = true
		return nil
	}

	if page.Resynced {
		// The capture pattern wasn't where we expected it and ReadPage had
		// to scan forward for the next one; whatever fragment we were
		// waiting to complete is gone, and this page's Continued flag can't
		// be trusted to refer to it.
		d.pending = nil
		d.resyncPending = true
	}

	if !d.hasSerial {
		d.serial = page.Serial
		d.hasSerial = true
	}
	if page.Serial != d.serial {
		// A page from a different logical stream in a multiplexed Ogg
		// file: not ours, skip it without disturbing our pending packet.
		return nil
	}

	if len(d.pending) > 0 && !page.Continued {
		// The fragment we were waiting to complete never got its
		// continuation: drop it and mark the next packet as a resync.
		d.pending = nil
		d.resyncPending = true
	}

	complete, incomplete := page.Packets()
	attributedOverhead := page.HeaderBits

	for i, raw := range complete {
		buf := raw
		if len(d.pending) > 0 {
			buf = append(append([]byte{}, d.pending...), raw...)
			d.pending = nil
		}

		pkt := bitpacket.New(buf)
		pkt.SetStreamSerial(page.Serial)
		pkt.SetOverheadBits(attributedOverhead)
		attributedOverhead = 0
		if d.resyncPending {
			pkt.SetResync(true)
			d.resyncPending = false
		}

		isLastOnPage := i == len(complete)-1 && len(incomplete) == 0
		if isLastOnPage {
			if page.Granule != noGranule {
				pkt.SetGranule(page.Granule)
			}
			if page.EOS {
				pkt.SetEOS(true)
			}
		}
		d.ready = append(d.ready, pkt)
	}

	if len(incomplete) > 0 {
		d.pending = append([]byte{}, incomplete...)
	} else if page.Continued && len(complete) == 0 {
		// Continued flag with nothing for us to complete: we joined mid
		// packet with no prior fragment.
		d.resyncPending = true
	}

	return nil
}

// GranuleCount performs a best-effort scan to the end of a seekable
// underlying reader to find the final page's granule position, the total
// sample count for the stream.
func (d *Demuxer) GranuleCount() (int64, error) {
	seeker, ok := d.r.(io.ReadSeeker)
	if !ok {
		return 0, errors.New("ogg: underlying reader is not seekable")
	}
	const tailScan = 1 << 16
	end, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	start := end - tailScan
	if start < 0 {
		start = 0
	}
	if _, err := seeker.Seek(start, io.SeekStart); err != nil {
		return 0, err
	}
	buf := make([]byte, end-start)
	if _, err := io.ReadFull(seeker, buf); err != nil && err != io.ErrUnexpectedEOF {
		return 0, err
	}

	best := int64(noGranule)
	for i := 0; i+headerSize <= len(buf); i++ {
		if buf[i] == 'O' && buf[i+1] == 'g' && buf[i+2] == 'g' && buf[i+3] == 'S' {
			g := int64(leUint64(buf[i+6 : i+14]))
			if g != noGranule {
				best = g
			}
		}
	}
	if best == noGranule {
		return 0, errors.New("ogg: no granule-bearing page found")
	}
	return best, nil
}

// SeekTo repositions a seekable underlying reader to the page containing
// granule, clearing any in-progress packet reassembly state. It returns
// the granule position of the page landed on.
func (d *Demuxer) SeekTo(targetGranule int64) (int64, error) {
	seeker, ok := d.r.(io.ReadSeeker)
	if !ok {
		return 0, errors.New("ogg: underlying reader is not seekable")
	}

	lo, err := seeker.Seek(0, io.SeekStart)
	if err != nil {
		return 0, err
	}
	hi, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}

	landedOffset := lo
	landedGranule := int64(noGranule)

	for lo < hi {
		mid := lo + (hi-lo)/2
		offset, granule, err := scanForwardForPage(seeker, mid, hi)
		if err != nil {
			hi = mid
			continue
		}
		if granule == noGranule {
			hi = mid
			continue
		}
		if granule <= targetGranule {
			landedOffset = offset
			landedGranule = granule
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	if _, err := seeker.Seek(landedOffset, io.SeekStart); err != nil {
		return 0, err
	}
	d.pending = nil
	d.resyncPending = false
	d.ready = nil
	d.peeked = nil
	d.hasPeeked = false
	return landedGranule, nil
}

// scanForwardForPage finds the first Ogg page starting at or after from
// (bounded by limit) and returns its byte offset and granule position.
func scanForwardForPage(r io.ReadSeeker, from, limit int64) (int64, int64, error) {
	if _, err := r.Seek(from, io.SeekStart); err != nil {
		return 0, 0, err
	}
	window := make([]byte, 0, 4096)
	buf := make([]byte, 4096)
	pos := from
	for pos < limit {
		n, err := r.Read(buf)
		if n > 0 {
			window = append(window, buf[:n]...)
		}
		for i := 0; i+headerSize <= len(window); i++ {
			if window[i] == 'O' && window[i+1] == 'g' && window[i+2] == 'g' && window[i+3] == 'S' {
				granule := int64(leUint64(window[i+6 : i+14]))
				return pos + int64(i), granule, nil
			}
		}
		if err != nil {
			break
		}
		pos += int64(n)
	}
	return 0, 0, io.EOF
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
