package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/vorbisgo/audio"
)

type wavSource struct {
	r          io.Reader
	sampleRate int
	channels   int
	// assume PCM 16-bit
	buf  []byte
	tags map[string][]string
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Close() error    { return nil }
func (s *wavSource) BufSize() int    { return cap(s.buf) / 2 }

// Vendor satisfies audio.Tagger, reporting the LIST/INFO ISFT field (the
// software that produced the file) when the source WAV carried one.
func (s *wavSource) Vendor() string {
	if v := s.tags["software"]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Tag satisfies audio.Tagger. Recognized keys are "software", "title" and
// "artist", populated from a LIST/INFO chunk's ISFT/INAM/IART sub-chunks.
func (s *wavSource) Tag(key string) []string { return s.tags[key] }

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	// Read frames of int16 interleaved, convert to float32
	if len(s.buf) < len(dst)*2 {
		s.buf = make([]byte, len(dst)*2)
	}
	n, err := io.ReadFull(s.r, s.buf[:len(dst)*2])
	if err == io.ErrUnexpectedEOF {
		// Partial frame count
	} else if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// convert what we have
		} else {
			return 0, fmt.Errorf("%w", err)
		}
	}

	samples := n / 2

	for i := 0; i < samples; i++ {
		var v int16
		b := s.buf[2*i : 2*i+2]
		v = int16(binary.LittleEndian.Uint16(b))
		dst[i] = float32(v) / 32768.0
	}

	if samples == 0 && (err == io.EOF || err == io.ErrUnexpectedEOF) {
		return 0, io.EOF
	}
	return samples, nil
}

type Decoder struct{}

// Decode walks a WAV file's chunks looking for fmt, an optional LIST/INFO
// metadata chunk, and data, rather than assuming the canonical fixed
// 44-byte-header layout — a LIST chunk commonly sits between fmt and data.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	var riffHdr [12]byte
	if _, err := io.ReadFull(r, riffHdr[:]); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if !bytes.HasPrefix(riffHdr[:4], []byte("RIFF")) || !bytes.HasPrefix(riffHdr[8:12], []byte("WAVE")) {
		return nil, ErrNotWavFile
	}

	var sampleRate, channels int
	var audioFormat, bitsPerSample uint16
	haveFmt := false
	tags := make(map[string][]string)

	for {
		var chunkHdr [8]byte
		if _, err := io.ReadFull(r, chunkHdr[:]); err != nil {
			return nil, fmt.Errorf("%w", err)
		}
		id := string(chunkHdr[0:4])
		size := binary.LittleEndian.Uint32(chunkHdr[4:8])
		padded := int64(size)
		if size%2 != 0 {
			padded++
		}

		switch id {
		case "fmt ":
			body := make([]byte, padded)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w", err)
			}
			if size < 16 {
				return nil, ErrUnsupportedWavLayout
			}
			audioFormat = binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = binary.LittleEndian.Uint16(body[14:16])
			haveFmt = true

		case "LIST":
			body := make([]byte, padded)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w", err)
			}
			parseInfoChunk(body[:size], tags)

		case "data":
			if !haveFmt {
				return nil, ErrUnsupportedWavChunks
			}
			if audioFormat != 1 || bitsPerSample != 16 {
				return nil, ErrOnlyPCM16bitSupported
			}
			return &wavSource{
				r:          io.LimitReader(r, int64(size)),
				sampleRate: sampleRate,
				channels:   channels,
				buf:        make([]byte, 4096),
				tags:       tags,
			}, nil

		default:
			if _, err := io.CopyN(io.Discard, r, padded); err != nil {
				return nil, fmt.Errorf("%w", err)
			}
		}
	}
}

// parseInfoChunk reads a LIST chunk's body (with the "LIST" header already
// consumed) when it's of list-type INFO, populating tags from the ISFT,
// INAM and IART sub-chunks WriteWAV16 knows how to write.
func parseInfoChunk(body []byte, tags map[string][]string) {
	if len(body) < 4 || string(body[0:4]) != "INFO" {
		return
	}
	pos := 4
	for pos+8 <= len(body) {
		id := string(body[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(body[pos+4 : pos+8]))
		pos += 8
		if size < 0 || pos+size > len(body) {
			return
		}
		value := bytes.TrimRight(body[pos:pos+size], "\x00")
		pos += size
		if size%2 != 0 {
			pos++
		}
		if key, ok := infoKey(id); ok {
			tags[key] = append(tags[key], string(value))
		}
	}
}

func infoKey(id string) (string, bool) {
	switch id {
	case "ISFT":
		return "software", true
	case "INAM":
		return "title", true
	case "IART":
		return "artist", true
	default:
		return "", false
	}
}
