// SPDX-License-Identifier: EPL-2.0

package vorbisgo

import (
	"strings"
)

// Comments holds the decoded comment header (packet 2): an encoder vendor
// string and the user comment dictionary. Vorbis comments are "KEY=value"
// UTF-8 strings; a key may repeat, so each key maps to a slice of values.
// Lookups are case-insensitive, matching the Xiph comment convention.
type Comments struct {
	Vendor string
	Tags   map[string][]string
}

// Get returns all values for key, matched case-insensitively, or nil if the
// key is absent.
func (c Comments) Get(key string) []string {
	return c.Tags[strings.ToUpper(key)]
}

func readLengthPrefixed(p *Packet) (string, error) {
	n := p.ReadBits(32)
	if n > (1 << 24) {
		return "", newError(HeaderMalformed, p, "comment length implausibly large", nil)
	}
	buf := make([]byte, n)
	if p.ReadBytes(buf) != int(n) || p.Short() {
		return "", newError(HeaderMalformed, p, "comment string runs past packet end", nil)
	}
	return string(buf), nil
}

func parseComments(p *Packet) (Comments, error) {
	vendor, err := readLengthPrefixed(p)
	if err != nil {
		return Comments{}, err
	}

	count := p.ReadBits(32)
	if p.Short() {
		return Comments{}, newError(HeaderMalformed, p, "comment header truncated before comment count", nil)
	}

	tags := make(map[string][]string)
	for i := uint64(0); i < count; i++ {
		entry, err := readLengthPrefixed(p)
		if err != nil {
			return Comments{}, err
		}
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(key)
		tags[key] = append(tags[key], value)
	}

	if p.ReadBit() != 1 {
		return Comments{}, newError(HeaderMalformed, p, "comment header missing framing bit", nil)
	}

	return Comments{Vendor: vendor, Tags: tags}, nil
}
