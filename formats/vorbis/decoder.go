// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/ik5/vorbisgo"
	"github.com/ik5/vorbisgo/audio"
	"github.com/ik5/vorbisgo/internal/ogg"
)

// Decoder adapts vorbisgo's Vorbis I decoder to audio.Source, demuxing r as
// an Ogg bitstream and decoding its logical Vorbis stream.
type Decoder struct{}

// Decode demuxes r as Ogg and decodes its Vorbis headers. A stream that
// isn't Vorbis, or whose headers are malformed, is reported as a
// *vorbisgo.Error wrapped in the returned error.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	demuxer := ogg.NewDemuxer(r)

	dec, err := vorbisgo.New(demuxer)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}

	return dec, nil
}
