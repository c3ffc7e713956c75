// SPDX-License-Identifier: EPL-2.0

// Package vorbisgo decodes Vorbis I audio packets into PCM.
//
// vorbisgo implements the Vorbis I codec (floor and residue decode, channel
// coupling, inverse MDCT, window overlap-add) from scratch in Go. It does
// not parse Ogg itself: a StreamDecoder is built from anything satisfying
// PacketProvider, a small interface that yields already-demuxed Vorbis
// packets with their granule position, EOS, and resync metadata attached.
// internal/ogg.Demuxer is the provider formats/vorbis wires in by default.
//
// # Quick Start
//
// Wrap an Ogg Vorbis file in a demuxer and the demuxer in a StreamDecoder:
//
//	demuxer := ogg.NewDemuxer(file)
//	dec, err := vorbisgo.New(demuxer)
//	if err != nil {
//		var verr *vorbisgo.Error
//		if errors.As(err, &verr) && verr.Kind == vorbisgo.NotVorbis {
//			// not a Vorbis stream
//		}
//	}
//
//	buf := make([]float32, dec.Channels()*4096)
//	n, err := dec.ReadSamples(buf)
//
// ReadSamples makes StreamDecoder an audio.Source, so it plugs directly
// into the audio subpackage's resampling and mixing pipeline. Read offers
// the same decode loop with explicit frame offset and count control, for
// callers that want to manage their own buffers.
//
// # Errors
//
// Failures are reported as *Error, carrying a Kind that distinguishes a
// stream that was never Vorbis (NotVorbis) from one whose headers are
// corrupt (HeaderMalformed, fatal at construction) from a single bad
// packet encountered mid-stream (PacketCorrupt, dropped, decoding
// continues) from a failed seek (SeekOutOfRange, SeekPreRollFailed) from
// use after Close (Disposed).
//
// # Seeking and comments
//
// SeekToSample repositions the decoder at a target sample, re-establishing
// overlap-add continuity with a two-packet pre-roll before the next Read
// produces output at the exact requested sample. CommentTags returns the
// comment header's vendor string and tag dictionary, looked up
// case-insensitively per the Xiph comment convention.
package vorbisgo
