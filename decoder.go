// SPDX-License-Identifier: EPL-2.0

package vorbisgo

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/ik5/vorbisgo/internal/codebook"
	"github.com/ik5/vorbisgo/internal/floor"
	"github.com/ik5/vorbisgo/internal/mapping"
	"github.com/ik5/vorbisgo/internal/mdct"
	"github.com/ik5/vorbisgo/internal/mode"
	"github.com/ik5/vorbisgo/internal/residue"
)

// maxSample is the largest value ReadSamples/Read ever emits, one ULP below
// 1.0, so every emitted sample satisfies the half-open bound [-1.0, 1.0).
const maxSample = float32(0.99999994)

// StreamDecoder is immutable after header ingestion except for the fields
// documented inline; it owns the overlap-add state machine of section 4.9.
type StreamDecoder struct {
	provider PacketProvider

	channels                              int
	sampleRate                            int
	bitrateMax, bitrateNominal, bitrateMin int32
	block0, block1                         int
	modeFieldWidth                        int

	serial    uint32
	hasSerial bool

	modes  []*mode.Config
	tables *mode.Tables

	comments Comments

	prevBuf, nextBuf             [][]float32
	prevStart, prevEnd, prevStop int
	currentPosition              int64
	hasPosition                  bool
	eosFound                     bool
	forcedEOS                    bool

	stats *Stats
}

// New ingests the three Vorbis header packets from provider and returns a
// decoder ready for Read. Construction-time failures are reported
// synchronously as a *Error with Kind NotVorbis or HeaderMalformed.
func New(provider PacketProvider) (*StreamDecoder, error) {
	d := &StreamDecoder{provider: provider, stats: &Stats{}}

	pkt1, err := provider.GetNext()
	if err != nil {
		return nil, newError(HeaderMalformed, nil, "could not read identification header", err)
	}
	if name := sniffNotVorbis(pkt1.Bytes()); name != "" {
		return nil, newError(NotVorbis, pkt1, fmt.Sprintf("detected %s stream", name), nil)
	}
	if err := d.parseIdentification(pkt1); err != nil {
		return nil, err
	}
	if serial, ok := pkt1.StreamSerial(); ok {
		d.serial = serial
		d.hasSerial = true
	}

	pkt2, err := provider.GetNext()
	if err != nil {
		return nil, newError(HeaderMalformed, nil, "could not read comment header", err)
	}
	if err := d.checkSerial(pkt2); err != nil {
		return nil, err
	}
	comments, err := d.parseCommentHeader(pkt2)
	if err != nil {
		return nil, err
	}
	d.comments = comments

	pkt3, err := provider.GetNext()
	if err != nil {
		return nil, newError(HeaderMalformed, nil, "could not read setup header", err)
	}
	if err := d.checkSerial(pkt3); err != nil {
		return nil, err
	}
	if err := d.parseSetupHeader(pkt3); err != nil {
		return nil, err
	}

	d.tables.Channels = d.channels
	d.tables.Block0 = d.block0
	d.tables.Block1 = d.block1
	d.tables.Windows = mdct.NewWindowSet(d.block0, d.block1)
	d.tables.MDCT0 = mdct.New(d.block0)
	d.tables.MDCT1 = mdct.New(d.block1)

	d.modeFieldWidth = ilog(len(d.modes) - 1)

	d.prevBuf = makeChannelBuffers(d.channels, d.block1)
	d.nextBuf = makeChannelBuffers(d.channels, d.block1)

	return d, nil
}

func makeChannelBuffers(channels, size int) [][]float32 {
	buf := make([][]float32, channels)
	for i := range buf {
		buf[i] = make([]float32, size)
	}
	return buf
}

// readSignature reads the one-byte packet type and the six-byte "vorbis"
// string every header packet begins with.
func readSignature(p *Packet) (byte, bool) {
	t := byte(p.ReadBits(8))
	var sig [6]byte
	p.ReadBytes(sig[:])
	if p.Short() {
		return 0, false
	}
	return t, string(sig[:]) == "vorbis"
}

var notVorbisMagics = []struct {
	prefix []byte
	name   string
}{
	{[]byte("OpusHead"), "OPUS"},
	{[]byte{0x7f}, "FLAC"},
	{[]byte("Speex   "), "Speex"},
	{[]byte("fishead\x00"), "Skeleton"},
	{[]byte{0x80, 't', 'h', 'e', 'o', 'r', 'a'}, "Theora"},
}

func sniffNotVorbis(raw []byte) string {
	for _, m := range notVorbisMagics {
		if bytes.HasPrefix(raw, m.prefix) {
			return m.name
		}
	}
	return ""
}

func (d *StreamDecoder) checkSerial(pkt *Packet) error {
	if !d.hasSerial {
		return nil
	}
	if serial, ok := pkt.StreamSerial(); ok && serial != d.serial {
		return newError(HeaderMalformed, pkt, "header packet stream serial does not match identification header", nil)
	}
	return nil
}

func (d *StreamDecoder) parseIdentification(p *Packet) error {
	t, ok := readSignature(p)
	if !ok || t != 1 {
		return newError(NotVorbis, p, "first packet is not a Vorbis identification header", nil)
	}

	version := p.ReadBits(32)
	d.channels = int(p.ReadBits(8))
	d.sampleRate = int(p.ReadBits(32))
	d.bitrateMax = int32(uint32(p.ReadBits(32)))
	d.bitrateNominal = int32(uint32(p.ReadBits(32)))
	d.bitrateMin = int32(uint32(p.ReadBits(32)))
	bs0 := p.ReadBits(4)
	bs1 := p.ReadBits(4)
	d.block0 = 1 << bs0
	d.block1 = 1 << bs1
	framing := p.ReadBit()

	if p.Short() {
		return newError(HeaderMalformed, p, "identification header ran short", nil)
	}
	if version != 0 {
		return newError(HeaderMalformed, p, "unsupported Vorbis version", nil)
	}
	if framing != 1 {
		return newError(HeaderMalformed, p, "identification header missing framing bit", nil)
	}
	if d.channels <= 0 || d.sampleRate <= 0 {
		return newError(HeaderMalformed, p, "invalid channel count or sample rate", nil)
	}
	if d.block0 < 64 || d.block1 > 8192 || d.block0 > d.block1 {
		return newError(HeaderMalformed, p, "block sizes out of range", nil)
	}
	return nil
}

func (d *StreamDecoder) parseCommentHeader(p *Packet) (Comments, error) {
	t, ok := readSignature(p)
	if !ok || t != 3 {
		return Comments{}, newError(HeaderMalformed, p, "comment header signature mismatch", nil)
	}
	return parseComments(p)
}

func (d *StreamDecoder) parseSetupHeader(p *Packet) error {
	t, ok := readSignature(p)
	if !ok || t != 5 {
		return newError(HeaderMalformed, p, "setup header signature mismatch", nil)
	}

	bookCount := int(p.ReadBits(8)) + 1
	books := make([]*codebook.Codebook, bookCount)
	for i := range books {
		cb, err := codebook.Init(p)
		if err != nil {
			return newError(HeaderMalformed, p, "codebook header invalid", err)
		}
		books[i] = cb
	}

	transformCount := int(p.ReadBits(6)) + 1
	for i := 0; i < transformCount; i++ {
		if p.ReadBits(16) != 0 {
			return newError(HeaderMalformed, p, "nonzero obsolete time-domain transform placeholder", nil)
		}
	}

	floorCount := int(p.ReadBits(6)) + 1
	floors := make([]*floor.Floor, floorCount)
	for i := range floors {
		fl, err := floor.Init(p, books)
		if err != nil {
			return newError(HeaderMalformed, p, "floor header invalid", err)
		}
		floors[i] = fl
	}

	residueCount := int(p.ReadBits(6)) + 1
	residues := make([]*residue.Config, residueCount)
	for i := range residues {
		res, err := residue.Init(p, books)
		if err != nil {
			return newError(HeaderMalformed, p, "residue header invalid", err)
		}
		residues[i] = res
	}

	mappingCount := int(p.ReadBits(6)) + 1
	mappings := make([]*mapping.Config, mappingCount)
	for i := range mappings {
		mp, err := mapping.Init(p, d.channels)
		if err != nil {
			return newError(HeaderMalformed, p, "mapping header invalid", err)
		}
		mappings[i] = mp
	}

	modeCount := int(p.ReadBits(6)) + 1
	modes := make([]*mode.Config, modeCount)
	for i := range modes {
		m, err := mode.Init(p, mappingCount)
		if err != nil {
			return newError(HeaderMalformed, p, "mode header invalid", err)
		}
		modes[i] = m
	}

	if p.ReadBit() != 1 {
		return newError(HeaderMalformed, p, "setup header missing framing bit", nil)
	}
	if p.Short() {
		return newError(HeaderMalformed, p, "setup header ran short", nil)
	}

	d.modes = modes
	d.tables = &mode.Tables{
		Books:    books,
		Floors:   floors,
		Residues: residues,
		Mappings: mappings,
	}
	return nil
}

// decodeAudioPacket reads the packet-type bit and mode number, then runs
// the mode pipeline into d.nextBuf.
func (d *StreamDecoder) decodeAudioPacket(pkt *Packet) (mode.Result, error) {
	if pkt.ReadBit() != 0 {
		return mode.Result{}, newError(PacketCorrupt, pkt, "expected an audio packet", nil)
	}
	modeNum := int(pkt.ReadBits(d.modeFieldWidth))
	if modeNum < 0 || modeNum >= len(d.modes) {
		return mode.Result{}, newError(PacketCorrupt, pkt, "mode index out of range", nil)
	}

	// Predict the block's sample count before paying for the full floor,
	// residue, and MDCT pipeline, then rewind so Decode reads the same
	// window-flag bits itself. advanceOneBlock's granule bookkeeping
	// depends on Decode's TotalLength; this catches a mode table or window
	// selection bug before it corrupts currentPosition silently.
	windowPos := pkt.BitsRead()
	predicted := mode.GetSampleCount(pkt, d.modes[modeNum], d.block0, d.block1)
	pkt.Rewind(windowPos)

	res, err := mode.Decode(pkt, d.modes[modeNum], d.tables, d.nextBuf)
	if err != nil {
		return mode.Result{}, newError(PacketCorrupt, pkt, "mode decode failed", err)
	}
	if pkt.Short() {
		return mode.Result{}, newError(PacketCorrupt, pkt, "packet exhausted during decode", nil)
	}
	if predicted != res.TotalLength {
		return mode.Result{}, newError(PacketCorrupt, pkt, "predicted sample count disagreed with decode", nil)
	}
	return res, nil
}

// blockResult reports what advanceOneBlock learned about one packet, for
// the resync/granule bookkeeping that Read performs with call-local state
// advanceOneBlock doesn't have access to.
type blockResult struct {
	err        error
	isResync   bool
	granule    int64
	hasGranule bool
}

// advanceOneBlock decodes one packet, overlap-adding its first samples into
// the tail of the previous block per section 4.9 step 2, and on decode
// failure windows the existing tail out per step 5 instead of advancing.
func (d *StreamDecoder) advanceOneBlock(pkt *Packet) blockResult {
	granule, hasGranule := pkt.Granule()
	br := blockResult{isResync: pkt.IsResync(), granule: granule, hasGranule: hasGranule}

	res, err := d.decodeAudioPacket(pkt)
	if err != nil {
		d.stats.addDropped()
		d.prevEnd = d.prevStop
		br.err = err
		return br
	}

	overlap := d.prevStop - d.prevStart
	if overlap < 0 {
		overlap = 0
	}
	if overlap > res.TotalLength {
		overlap = res.TotalLength
	}
	for ch := 0; ch < d.channels; ch++ {
		for i := 0; i < overlap; i++ {
			d.nextBuf[ch][i] += d.prevBuf[ch][d.prevStart+i]
		}
	}
	d.prevBuf, d.nextBuf = d.nextBuf, d.prevBuf
	d.prevStart = res.Start
	d.prevEnd = res.ValidEnd
	d.prevStop = res.TotalLength

	d.stats.addDecoded(pkt.OverheadBits())
	return br
}

func clipSample(v float32) float32 {
	switch {
	case v < -1:
		return -1
	case v >= 1:
		return maxSample
	default:
		return v
	}
}

// Read fills out, starting at frame offset, with up to count frames of
// interleaved PCM, returning the number of frames written. It implements
// the state machine of section 4.9: draining any buffered overlap-add
// output before pulling and decoding further packets.
func (d *StreamDecoder) Read(out []float32, offset, count int) (int, error) {
	if d.provider == nil {
		return 0, newError(Disposed, nil, "provider released", nil)
	}
	if d.forcedEOS {
		return 0, io.EOF
	}

	destBase := offset * d.channels
	produced := 0
	resyncBase := 0

	for produced < count {
		if d.prevStart < d.prevEnd {
			avail := d.prevEnd - d.prevStart
			take := count - produced
			if take > avail {
				take = avail
			}
			for f := 0; f < take; f++ {
				for ch := 0; ch < d.channels; ch++ {
					out[destBase+f*d.channels+ch] = clipSample(d.prevBuf[ch][d.prevStart+f])
				}
			}
			d.prevStart += take
			destBase += take * d.channels
			produced += take
			d.currentPosition += int64(take)
			d.stats.addFrames(int64(take))
			continue
		}

		if d.eosFound {
			break
		}

		pkt, err := d.provider.GetNext()
		if err == io.EOF {
			d.eosFound = true
			break
		}
		if err != nil {
			return produced, err
		}

		br := d.advanceOneBlock(pkt)
		if br.isResync {
			d.hasPosition = false
			resyncBase = produced
			d.stats.addResync()
		}
		if br.hasGranule {
			if !d.hasPosition {
				d.currentPosition = br.granule - int64(d.prevEnd-d.prevStart) - int64(produced-resyncBase)
				d.hasPosition = true
			}
			if pkt.EOS() {
				allowed := br.granule - d.currentPosition
				if allowed < 0 {
					allowed = 0
				}
				if int64(d.prevEnd-d.prevStart) > allowed {
					d.prevEnd = d.prevStart + int(allowed)
				}
				d.eosFound = true
			}
		}
	}

	if produced == 0 && (d.eosFound || d.forcedEOS) {
		return 0, io.EOF
	}
	return produced, nil
}

// SeekToSample repositions the decoder so the next Read starts at sample,
// interpreted relative to origin (io.SeekStart, io.SeekCurrent, or
// io.SeekEnd), restoring overlap-add continuity with a two-packet pre-roll.
func (d *StreamDecoder) SeekToSample(sample int64, origin int) (int64, error) {
	if d.provider == nil {
		return 0, newError(Disposed, nil, "provider released", nil)
	}

	var target int64
	switch origin {
	case io.SeekStart:
		target = sample
	case io.SeekCurrent:
		target = d.currentPosition + sample
	case io.SeekEnd:
		total, err := d.provider.GranuleCount()
		if err != nil {
			return 0, newError(SeekOutOfRange, nil, "could not determine stream length", err)
		}
		target = total + sample
	default:
		return 0, newError(SeekOutOfRange, nil, "unknown seek origin", nil)
	}
	if target < 0 {
		return 0, newError(SeekOutOfRange, nil, "seek target is negative", nil)
	}
	if total, err := d.provider.GranuleCount(); err == nil && target > total {
		return 0, newError(SeekOutOfRange, nil, "seek target beyond stream length", nil)
	}

	landed, err := d.provider.SeekTo(target)
	if err != nil {
		return 0, newError(SeekPreRollFailed, nil, "provider could not seek", err)
	}

	d.prevStart, d.prevEnd, d.prevStop = 0, 0, 0
	d.hasPosition = false
	d.eosFound = false
	d.forcedEOS = false

	for i := 0; i < 2; i++ {
		pkt, err := d.provider.GetNext()
		if err != nil {
			d.forcedEOS = true
			return 0, newError(SeekPreRollFailed, nil, "could not fetch pre-roll packet", err)
		}
		if br := d.advanceOneBlock(pkt); br.err != nil {
			d.forcedEOS = true
			return 0, newError(SeekPreRollFailed, pkt, "pre-roll packet failed to decode", br.err)
		}
		if i == 0 {
			// Read never fetches a new packet while prevStart < prevEnd; it
			// always drains the valid region first. The pre-roll packet's
			// output is discarded rather than drained, so its consumption
			// pointer must be advanced the same way here, or the target
			// packet's overlap-add would wrongly add the whole pre-roll
			// buffer instead of just its unconsumed tail.
			d.prevStart = d.prevEnd
		}
	}

	delta := int(target - landed)
	d.prevStart += delta
	if d.prevStart > d.prevEnd {
		d.prevStart = d.prevEnd
	}
	d.currentPosition = target
	d.hasPosition = true
	return target, nil
}

// ReadSamples adapts Read to the flat, EOF-terminated audio.Source
// convention: frames are derived from len(dst)/Channels().
func (d *StreamDecoder) ReadSamples(dst []float32) (int, error) {
	if d.channels == 0 {
		return 0, io.EOF
	}
	frames := len(dst) / d.channels
	if frames == 0 {
		return 0, nil
	}
	n, err := d.Read(dst, 0, frames)
	return n * d.channels, err
}

// SampleRate of the decoded PCM stream in Hz.
func (d *StreamDecoder) SampleRate() int { return d.sampleRate }

// Channels is the interleaved channel count.
func (d *StreamDecoder) Channels() int { return d.channels }

// BufSize is the largest number of interleaved samples one packet decode
// can produce.
func (d *StreamDecoder) BufSize() int { return d.channels * d.block1 }

// Close releases the packet provider, if it implements io.Closer, and
// marks the decoder disposed.
func (d *StreamDecoder) Close() error {
	if d.provider == nil {
		return nil
	}
	var err error
	if c, ok := d.provider.(io.Closer); ok {
		err = c.Close()
	}
	d.provider = nil
	return err
}

// TotalSamples is the stream's granule count, its total PCM frame count.
func (d *StreamDecoder) TotalSamples() (int64, error) {
	if d.provider == nil {
		return 0, newError(Disposed, nil, "provider released", nil)
	}
	return d.provider.GranuleCount()
}

// CurrentSample is the frame index the next Read will start at.
func (d *StreamDecoder) CurrentSample() int64 { return d.currentPosition }

// TotalTime is the stream's duration, derived from TotalSamples.
func (d *StreamDecoder) TotalTime() (time.Duration, error) {
	total, err := d.TotalSamples()
	if err != nil {
		return 0, err
	}
	return time.Duration(total) * time.Second / time.Duration(d.sampleRate), nil
}

// CurrentTime is the playback position, derived from CurrentSample.
func (d *StreamDecoder) CurrentTime() time.Duration {
	return time.Duration(d.currentPosition) * time.Second / time.Duration(d.sampleRate)
}

// EOS reports whether decoding has reached the end of the stream, either
// naturally or because pre-roll failed after a seek.
func (d *StreamDecoder) EOS() bool { return d.eosFound || d.forcedEOS }

// BitrateBounds returns the encoder-reported maximum, nominal, and minimum
// bitrate; any of them may be zero if the encoder did not specify one.
func (d *StreamDecoder) BitrateBounds() (max, nominal, min int32) {
	return d.bitrateMax, d.bitrateNominal, d.bitrateMin
}

// Vendor is the encoder's self-reported name from the comment header.
func (d *StreamDecoder) Vendor() string { return d.comments.Vendor }

// CommentTags returns the decoded comment dictionary.
func (d *StreamDecoder) CommentTags() Comments { return d.comments }

// Tag returns the comment header's values for key, implementing
// audio.Tagger so callers that only hold an audio.Source can still reach
// encoder-reported metadata.
func (d *StreamDecoder) Tag(key string) []string { return d.comments.Get(key) }

// Stats returns a snapshot of the decoder's running counters.
func (d *StreamDecoder) Stats() StatsSnapshot { return d.stats.Snapshot() }

// FramesDecoded, PacketsDropped, and OverheadBits implement
// audio.Instrumented, the same counters Stats reports, for callers that
// only hold an audio.Source.
func (d *StreamDecoder) FramesDecoded() int64  { return d.stats.Snapshot().FramesEmitted }
func (d *StreamDecoder) PacketsDropped() int64 { return d.stats.Snapshot().PacketsDropped }
func (d *StreamDecoder) OverheadBits() int64   { return d.stats.Snapshot().OverheadBits }

func ilog(n int) int {
	bits := 0
	for n > 0 {
		bits++
		n >>= 1
	}
	return bits
}
