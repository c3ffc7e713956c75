// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ik5/vorbisgo/formats/wav"
)

// Example_decoding demonstrates decoding a WAV file.
func Example_decoding() {
	samples := []int16{100, 200, 300, 400, 500}
	wavData := new(bytes.Buffer)
	wav.WriteWAV16(wavData, 16000, samples)

	decoder := wav.Decoder{}
	source, err := decoder.Decode(wavData)
	if err != nil {
		fmt.Printf("Decode error: %v\n", err)
		return
	}

	fmt.Printf("Sample rate: %d Hz\n", source.SampleRate())
	fmt.Printf("Channels: %d\n", source.Channels())

	buf := make([]float32, 10)
	n, err := source.ReadSamples(buf)
	if err != nil && err != io.EOF {
		fmt.Printf("Read error: %v\n", err)
		return
	}

	fmt.Printf("Read %d samples\n", n)
	// Output:
	// Sample rate: 16000 Hz
	// Channels: 1
	// Read 5 samples
}

// Example_roundTrip shows encoding and then decoding.
func Example_roundTrip() {
	original := []int16{-1000, -500, 0, 500, 1000}

	wavData := new(bytes.Buffer)
	err := wav.WriteWAV16(wavData, 8000, original)
	if err != nil {
		fmt.Printf("Encode error: %v\n", err)
		return
	}

	decoder := wav.Decoder{}
	source, err := decoder.Decode(wavData)
	if err != nil {
		fmt.Printf("Decode error: %v\n", err)
		return
	}

	buf := make([]float32, len(original))
	n, _ := source.ReadSamples(buf)

	recovered := make([]int16, n)
	for i := 0; i < n; i++ {
		recovered[i] = int16(buf[i] * 32768.0)
	}

	fmt.Println("Round-trip successful:")
	fmt.Printf("Original:  %v\n", original)
	fmt.Printf("Recovered: %v\n", recovered)
	// Output:
	// Round-trip successful:
	// Original:  [-1000 -500 0 500 1000]
	// Recovered: [-1000 -500 0 500 1000]
}

// Example_errorNotWAV shows handling of invalid WAV files.
func Example_errorNotWAV() {
	invalidData := bytes.NewReader([]byte("This is not a WAV file"))

	decoder := wav.Decoder{}
	_, err := decoder.Decode(invalidData)

	if err == wav.ErrNotWavFile {
		fmt.Println("Detected: Not a valid WAV file")
	} else if err != nil {
		fmt.Printf("Other error: %v\n", err)
	}
	// Output: Detected: Not a valid WAV file
}

// Example_tags shows embedding encoder metadata as a LIST/INFO chunk.
func Example_tags() {
	samples := []int16{100, 200, 300}
	output := new(bytes.Buffer)

	err := wav.WriteWAV16(output, 8000, samples, wav.Tags{
		Software: "vorbisgo",
		Title:    "Test Tone",
		Artist:   "Nobody",
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Contains LIST chunk: %v\n", bytes.Contains(output.Bytes(), []byte("LIST")))
	fmt.Printf("Contains title: %v\n", bytes.Contains(output.Bytes(), []byte("Test Tone")))
	// Output:
	// Contains LIST chunk: true
	// Contains title: true
}

// Example_streamingRead demonstrates reading a WAV file in chunks.
func Example_streamingRead() {
	samples := make([]int16, 10000)
	wavData := new(bytes.Buffer)
	wav.WriteWAV16(wavData, 8000, samples)

	decoder := wav.Decoder{}
	source, _ := decoder.Decode(wavData)

	buf := make([]float32, 1000)
	chunks := 0
	totalSamples := 0

	for {
		n, err := source.ReadSamples(buf)
		if n > 0 {
			chunks++
			totalSamples += n
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			break
		}
	}

	fmt.Printf("Read %d samples in %d chunks\n", totalSamples, chunks)
	// Output:
	// Read 10000 samples in 10 chunks
}

// Example_sampleConversion shows the int16 to float32 conversion.
func Example_sampleConversion() {
	samples := []int16{-32768, -16384, 0, 16384, 32767}

	wavData := new(bytes.Buffer)
	wav.WriteWAV16(wavData, 8000, samples)

	decoder := wav.Decoder{}
	source, _ := decoder.Decode(wavData)

	buf := make([]float32, len(samples))
	n, _ := source.ReadSamples(buf)

	fmt.Println("int16 -> float32 conversion:")
	for i := 0; i < n; i++ {
		fmt.Printf("  %6d -> %+.3f\n", samples[i], buf[i])
	}
	// Output:
	// int16 -> float32 conversion:
	//   -32768 -> -1.000
	//   -16384 -> -0.500
	//        0 -> +0.000
	//    16384 -> +0.500
	//    32767 -> +1.000
}
