// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis audio file decoding.
//
// This package uses github.com/ik5/vorbisgo's from-scratch Vorbis I decoder
// and internal/ogg demuxer. Vorbis is a free, open-source lossy audio
// compression format.
//
// # Supported Formats
//
// The decoder supports:
//   - Ogg Vorbis (.ogg files)
//   - Variable bitrates
//   - Mono, stereo, and multichannel streams
//   - Various sample rates
//
// # Decoding Vorbis Files
//
// Use the Decoder to read Ogg Vorbis files:
//
//	decoder := vorbis.Decoder{}
//	file, _ := os.Open("audio.ogg")
//	source, err := decoder.Decode(file)
//	if err != nil {
//	    // Handle error: a *vorbisgo.Error distinguishes a non-Vorbis
//	    // stream, a malformed header, or a mid-stream packet failure.
//	}
//
//	// Read samples as float32 in range [-1.0, 1.0)
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// The decoder returns an audio.Source that provides samples as float32
// values normalized to the range [-1.0, 1.0).
//
// # Output Format
//
// Vorbis decoder output:
//   - Sample format: float32 in range [-1.0, 1.0)
//   - Channels: depends on file (mono, stereo, or more)
//   - Sample rate: depends on file (commonly 44.1kHz or 48kHz)
//
// # Channel Layout
//
// For stereo files, samples are interleaved:
//
//	[L0, R0, L1, R1, L2, R2, ...]
//
// To convert to mono:
//
//	vorbisSource, _ := decoder.Decode(file)
//	mono := audio.NewMonoMixer(vorbisSource)
//
// # Seeking
//
// The underlying vorbisgo.StreamDecoder supports sample-accurate seeking;
// reach it by decoding with vorbisgo.New directly against an
// internal/ogg.Demuxer rather than through this package's Decoder when
// SeekToSample is needed.
//
// # Limitations
//
// Note:
//   - Vorbis encoding is not supported (decoding only)
//   - A single logical stream per Ogg container is decoded; chained or
//     multiplexed streams need a custom vorbisgo.PacketProvider
//
// # Use Cases
//
// Common applications:
//   - Playing Ogg Vorbis files
//   - Converting Vorbis to WAV
//   - Game audio (common format in games)
//   - Audio streaming
//
// # Example: Vorbis to WAV Conversion
//
//	// Read Ogg Vorbis file
//	oggFile, _ := os.Open("input.ogg")
//	vorbisDecoder := vorbis.Decoder{}
//	source, _ := vorbisDecoder.Decode(oggFile)
//
//	// Resample and convert to mono
//	pcm16, rate, _ := audio.ResampleToMono16(source, 16000, 4096)
//
//	// Write as WAV
//	wavFile, _ := os.Create("output.wav")
//	wav.WriteWAV16(wavFile, rate, pcm16)
package vorbis
