// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/vorbisgo/audio"
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	channels   int
	buf        []byte
	tags       map[string][]string
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 } // return sample capacity, not bytes

// Vendor satisfies audio.Tagger; MP3/ID3v1 has no encoder field, so this is
// always empty.
func (s *source) Vendor() string { return "" }

// Tag satisfies audio.Tagger. Recognized keys are "title", "artist" and
// "album", populated from a trailing 128-byte ID3v1 tag when one is
// present.
func (s *source) Tag(key string) []string { return s.tags[key] }

func (s *source) ReadSamples(dst []float32) (int, error) {
	// go-mp3 returns 16-bit little-endian PCM bytes (stereo interleaved)
	// Each sample is 2 bytes, so we need len(dst) * 2 bytes
	bytesNeeded := len(dst) * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	n, err := s.dec.Read(s.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	// Convert bytes to samples
	// Each sample is 2 bytes (int16 little-endian)
	samples := n / 2
	for i := 0; i < samples; i++ {
		// Read int16 little-endian
		low := uint16(s.buf[2*i])
		high := uint16(s.buf[2*i+1])
		val := int16(low | (high << 8))
		dst[i] = float32(val) / 32768.0
	}

	return samples, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// ID3v1 lives in the last 128 bytes of the file, so it has to be read
	// and the reader rewound before go-mp3 ever touches r: go-mp3 tracks
	// its own read position relative to r and has no way to recover from a
	// seek performed behind its back once decoding has started.
	var tags map[string][]string
	if seeker, ok := r.(io.ReadSeeker); ok {
		tags = readID3v1(seeker)
	}

	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	// go-mp3 outputs stereo (2 channels) for most MP3 files
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   2,
		buf:        make([]byte, 8192),
		tags:       tags,
	}, nil
}

// readID3v1 looks for a trailing "TAG" + 125-byte ID3v1 tag and restores
// the seeker's original position before returning, successful or not.
func readID3v1(r io.ReadSeeker) map[string][]string {
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil
	}
	restore := func() { r.Seek(cur, io.SeekStart) }

	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		restore()
		return nil
	}
	const tagSize = 128
	if end < tagSize {
		restore()
		return nil
	}
	if _, err := r.Seek(end-tagSize, io.SeekStart); err != nil {
		restore()
		return nil
	}
	var tag [tagSize]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		restore()
		return nil
	}
	restore()

	if string(tag[0:3]) != "TAG" {
		return nil
	}

	tags := make(map[string][]string)
	if title := trimID3Field(tag[3:33]); title != "" {
		tags["title"] = []string{title}
	}
	if artist := trimID3Field(tag[33:63]); artist != "" {
		tags["artist"] = []string{artist}
	}
	if album := trimID3Field(tag[63:93]); album != "" {
		tags["album"] = []string{album}
	}
	return tags
}

func trimID3Field(b []byte) string {
	return strings.TrimRight(string(bytes.TrimRight(b, "\x00")), " ")
}
