package wav

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func TestWriteWAV16_ValidFile(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 100, -100, 200, -200}
	buf := new(bytes.Buffer)

	err := WriteWAV16(buf, 8000, samples)
	if err != nil {
		t.Fatalf("WriteWAV16() error = %v, want nil", err)
	}

	data := buf.Bytes()
	if string(data[0:4]) != "RIFF" {
		t.Errorf("RIFF marker = %q, want \"RIFF\"", string(data[0:4]))
	}
	if string(data[8:12]) != "WAVE" {
		t.Errorf("WAVE marker = %q, want \"WAVE\"", string(data[8:12]))
	}
}

func TestWriteWAV16_EmptySamples(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	if err := WriteWAV16(buf, 8000, []int16{}); err != nil {
		t.Fatalf("WriteWAV16() error = %v, want nil", err)
	}
	if buf.Len() != 44 {
		t.Errorf("WAV file size = %d, want 44 (header only)", buf.Len())
	}
}

func TestWriteWAV16_CorrectHeader(t *testing.T) {
	t.Parallel()

	samples := []int16{100, 200, 300, 400}
	buf := new(bytes.Buffer)

	if err := WriteWAV16(buf, 44100, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	data := buf.Bytes()

	if string(data[12:16]) != "fmt " {
		t.Errorf("fmt marker = %q, want \"fmt \"", string(data[12:16]))
	}
	if fmtSize := binary.LittleEndian.Uint32(data[16:20]); fmtSize != 16 {
		t.Errorf("fmt chunk size = %d, want 16", fmtSize)
	}
	if audioFormat := binary.LittleEndian.Uint16(data[20:22]); audioFormat != 1 {
		t.Errorf("audio format = %d, want 1 (PCM)", audioFormat)
	}
	if numChannels := binary.LittleEndian.Uint16(data[22:24]); numChannels != 1 {
		t.Errorf("num channels = %d, want 1", numChannels)
	}
	if sampleRate := binary.LittleEndian.Uint32(data[24:28]); sampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", sampleRate)
	}
	if byteRate := binary.LittleEndian.Uint32(data[28:32]); byteRate != 44100*2 {
		t.Errorf("byte rate = %d, want %d", byteRate, 44100*2)
	}
	if blockAlign := binary.LittleEndian.Uint16(data[32:34]); blockAlign != 2 {
		t.Errorf("block align = %d, want 2", blockAlign)
	}
	if bitsPerSample := binary.LittleEndian.Uint16(data[34:36]); bitsPerSample != 16 {
		t.Errorf("bits per sample = %d, want 16", bitsPerSample)
	}
	if string(data[36:40]) != "data" {
		t.Errorf("data marker = %q, want \"data\"", string(data[36:40]))
	}

	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if expected := uint32(len(samples) * 2); dataSize != expected {
		t.Errorf("data size = %d, want %d", dataSize, expected)
	}

	riffSize := binary.LittleEndian.Uint32(data[4:8])
	if expected := uint32(buf.Len() - 8); riffSize != expected {
		t.Errorf("RIFF size = %d, want %d", riffSize, expected)
	}
}

func TestWriteWAV16_SampleData(t *testing.T) {
	t.Parallel()

	samples := []int16{100, -200, 300, -400}
	buf := new(bytes.Buffer)

	if err := WriteWAV16(buf, 8000, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	data := buf.Bytes()
	for i, expected := range samples {
		offset := 44 + (i * 2)
		actual := int16(binary.LittleEndian.Uint16(data[offset : offset+2]))
		if actual != expected {
			t.Errorf("sample[%d] = %d, want %d", i, actual, expected)
		}
	}
}

func TestWriteWAV16_RoundTrip(t *testing.T) {
	t.Parallel()

	originalSamples := []int16{0, 100, -100, 32767, -32768, 12345, -6789}
	buf := new(bytes.Buffer)

	if err := WriteWAV16(buf, 16000, originalSamples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	decoder := Decoder{}
	src, err := decoder.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 16000 {
		t.Errorf("SampleRate() = %d, want 16000", src.SampleRate())
	}
	if src.Channels() != 1 {
		t.Errorf("Channels() = %d, want 1", src.Channels())
	}

	dst := make([]float32, len(originalSamples))
	n, err := src.ReadSamples(dst)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != len(originalSamples) {
		t.Errorf("ReadSamples() n = %d, want %d", n, len(originalSamples))
	}

	const maxInt16 float32 = 32768.0
	for i, original := range originalSamples {
		expectedFloat := float32(original) / maxInt16
		diff := dst[i] - expectedFloat
		if diff < -0.0001 || diff > 0.0001 {
			t.Errorf("sample[%d] = %v, want ~%v (original=%d)", i, dst[i], expectedFloat, original)
		}
	}
}

func TestWriteWAV16_LargeFile(t *testing.T) {
	t.Parallel()

	numSamples := 44100 * 10
	samples := make([]int16, numSamples)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}

	buf := new(bytes.Buffer)
	if err := WriteWAV16(buf, 44100, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	if expected := 44 + (numSamples * 2); buf.Len() != expected {
		t.Errorf("WAV file size = %d, want %d", buf.Len(), expected)
	}
}

func TestWriteWAV16_NoTagsOmitsInfoChunk(t *testing.T) {
	t.Parallel()

	samples := []int16{1, 2, 3}
	buf := new(bytes.Buffer)

	if err := WriteWAV16(buf, 8000, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	// With no LIST chunk, data immediately follows the 36-byte fmt section.
	if string(buf.Bytes()[36:40]) != "data" {
		t.Errorf("expected data chunk directly after fmt chunk when no tags given")
	}
}

func TestWriteWAV16_TagsWriteInfoChunk(t *testing.T) {
	t.Parallel()

	samples := []int16{1, 2, 3}
	buf := new(bytes.Buffer)
	tags := Tags{Software: "vorbisgo", Title: "Test Tone", Artist: "Nobody"}

	if err := WriteWAV16(buf, 8000, samples, tags); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	data := buf.Bytes()
	if string(data[36:40]) != "LIST" {
		t.Fatalf("chunk after fmt = %q, want \"LIST\"", string(data[36:40]))
	}
	if string(data[44:48]) != "INFO" {
		t.Errorf("LIST subtype = %q, want \"INFO\"", string(data[44:48]))
	}
	if !bytes.Contains(data, []byte("ISFT")) || !bytes.Contains(data, []byte("vorbisgo")) {
		t.Errorf("expected an ISFT sub-chunk carrying the software tag")
	}
	if !bytes.Contains(data, []byte("INAM")) || !bytes.Contains(data, []byte("Test Tone")) {
		t.Errorf("expected an INAM sub-chunk carrying the title tag")
	}

	// The data chunk must still appear somewhere after the LIST chunk, and
	// the declared RIFF size must account for it.
	if !bytes.Contains(data[48:], []byte("data")) {
		t.Errorf("expected a data chunk after the LIST/INFO chunk")
	}
	riffSize := binary.LittleEndian.Uint32(data[4:8])
	if expected := uint32(buf.Len() - 8); riffSize != expected {
		t.Errorf("RIFF size = %d, want %d", riffSize, expected)
	}
}

func TestWriteWAV16_EmptyTagsBehaveLikeNoTags(t *testing.T) {
	t.Parallel()

	samples := []int16{1, 2, 3}

	without := new(bytes.Buffer)
	if err := WriteWAV16(without, 8000, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	withEmpty := new(bytes.Buffer)
	if err := WriteWAV16(withEmpty, 8000, samples, Tags{}); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	if !bytes.Equal(without.Bytes(), withEmpty.Bytes()) {
		t.Errorf("an empty Tags value should produce an identical file to passing none")
	}
}
