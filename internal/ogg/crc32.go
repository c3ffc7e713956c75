package ogg

// Ogg's page header carries a CRC-32 computed with polynomial 0x04c11db7,
// processed MSB-first with no reflection. That is not the IEEE CRC-32
// hash/crc32 implements (polynomial 0xedb88320, reflected), so it can't be
// reused here.

var oggCRCTable = buildOggCRCTable()

func buildOggCRCTable() [256]uint32 {
	const poly = uint32(0x04c11db7)
	var t [256]uint32
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// oggCRCUpdate folds data into a running checksum, seeded with 0 at the
// start of a page (header with its own CRC field zeroed, then the segment
// table, then packet data).
func oggCRCUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << 8) ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}

// PatchCRC computes the checksum of a fully assembled raw Ogg page (the
// layout ReadPage expects: 27-byte header, segment table, packet data) and
// writes it into the header's CRC field. It exists for building page
// fixtures in tests that live outside this package and so can't reach
// oggCRCUpdate directly.
func PatchCRC(raw []byte) {
	raw[22], raw[23], raw[24], raw[25] = 0, 0, 0, 0
	sum := oggCRCUpdate(0, raw)
	raw[22] = byte(sum)
	raw[23] = byte(sum >> 8)
	raw[24] = byte(sum >> 16)
	raw[25] = byte(sum >> 24)
}
