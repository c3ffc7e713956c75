// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Tags holds metadata to embed as a LIST/INFO chunk, typically carried
// over from a source decoder's comment header (see audio.Tagger) into a
// converted WAV file.
type Tags struct {
	// Software names the encoder that produced the original audio,
	// written as an ISFT sub-chunk.
	Software string
	// Title and Artist are written as INAM and IART sub-chunks when set.
	Title  string
	Artist string
}

func (t Tags) empty() bool {
	return t.Software == "" && t.Title == "" && t.Artist == ""
}

// infoChunk serializes t as a RIFF LIST/INFO chunk, or nil if t is empty.
func infoChunk(t Tags) []byte {
	if t.empty() {
		return nil
	}
	var body bytes.Buffer
	body.WriteString("INFO")
	writeInfoField(&body, "ISFT", t.Software)
	writeInfoField(&body, "INAM", t.Title)
	writeInfoField(&body, "IART", t.Artist)

	chunk := make([]byte, 8)
	copy(chunk[0:4], "LIST")
	binary.LittleEndian.PutUint32(chunk[4:8], uint32(body.Len()))
	chunk = append(chunk, body.Bytes()...)
	if len(chunk)%2 != 0 {
		chunk = append(chunk, 0) // RIFF chunks pad to an even length
	}
	return chunk
}

func writeInfoField(body *bytes.Buffer, id, value string) {
	if value == "" {
		return
	}
	field := append([]byte(value), 0) // NUL-terminated
	if len(field)%2 != 0 {
		field = append(field, 0)
	}
	body.WriteString(id)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(field)))
	body.Write(size[:])
	body.Write(field)
}

// WriteWAV16 writes a mono 16-bit PCM WAV at sampleRate. samples must be
// int16 PCM. tags, if given, is embedded as a LIST/INFO chunk between the
// fmt and data chunks. This uses an optimized implementation for minimal
// allocations.
func WriteWAV16(w io.Writer, sampleRate int, samples []int16, tags ...Tags) error {
	numChannels := uint16(1)
	bitsPerSample := uint16(16)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample/8)
	blockAlign := uint16(numChannels) * uint16(bitsPerSample/8)
	dataSize := uint32(len(samples) * 2)

	var info []byte
	if len(tags) > 0 {
		info = infoChunk(tags[0])
	}
	riffSize := 36 + uint32(len(info)) + dataSize

	// Pre-allocate buffer for entire header (44 bytes)
	header := make([]byte, 44)

	// RIFF header (12 bytes)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], riffSize)
	copy(header[8:12], "WAVE")

	// fmt chunk (24 bytes)
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	// data chunk header (8 bytes)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	// Write the RIFF and fmt headers, then the LIST/INFO chunk if any, then
	// the data chunk header, so the LIST chunk sits between fmt and data.
	if _, err := w.Write(header[:36]); err != nil {
		return fmt.Errorf("%w", err)
	}

	if len(info) > 0 {
		if _, err := w.Write(info); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	if _, err := w.Write(header[36:]); err != nil {
		return fmt.Errorf("%w", err)
	}

	// Convert samples to bytes efficiently
	// For better performance with large files, write in chunks
	const chunkSize = 8192 // Write 8KB at a time
	if len(samples) == 0 {
		return nil
	}

	// Allocate buffer for chunk writes
	bufSize := min(len(samples), chunkSize)
	buf := make([]byte, bufSize*2)

	for i := 0; i < len(samples); i += chunkSize {
		end := min(i+chunkSize, len(samples))
		chunk := samples[i:end]

		// Resize buf if needed for last chunk
		if len(chunk)*2 > len(buf) {
			buf = buf[:len(chunk)*2]
		} else {
			buf = buf[:len(chunk)*2]
		}

		// Convert int16 samples to bytes
		for j, s := range chunk {
			binary.LittleEndian.PutUint16(buf[j*2:j*2+2], uint16(s))
		}

		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}
