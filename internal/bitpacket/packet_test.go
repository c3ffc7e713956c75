package bitpacket

import "testing"

// packBitsLSB writes values into a byte buffer LSB-first within each byte,
// mirroring the Vorbis packing rule, for use as test fixtures.
func packBitsLSB(fields []struct{ value uint64; width int }) []byte {
	var buf []byte
	bitPos := 0
	for _, f := range fields {
		for i := 0; i < f.width; i++ {
			byteIdx := bitPos >> 3
			for byteIdx >= len(buf) {
				buf = append(buf, 0)
			}
			bit := (f.value >> uint(i)) & 1
			buf[byteIdx] |= byte(bit) << uint(bitPos&7)
			bitPos++
		}
	}
	return buf
}

func TestReadBitsRoundTrip(t *testing.T) {
	fields := []struct{ value uint64; width int }{
		{5, 3},
		{200, 8},
		{1, 1},
		{0x1FFFF, 17},
		{0, 5},
		{12345, 20},
	}
	data := packBitsLSB(fields)
	p := New(data)

	totalWidth := 0
	for _, f := range fields {
		got := p.ReadBits(f.width)
		if got != f.value {
			t.Fatalf("ReadBits(%d) = %d, want %d", f.width, got, f.value)
		}
		totalWidth += f.width
	}
	if p.BitsRead() != totalWidth {
		t.Fatalf("BitsRead() = %d, want %d", p.BitsRead(), totalWidth)
	}
	if p.Short() {
		t.Fatalf("Short() = true, want false")
	}
}

func TestReadBitsPastEnd(t *testing.T) {
	p := New([]byte{0xFF})
	v := p.ReadBits(16)
	if v != 0xFF {
		t.Fatalf("ReadBits(16) = %#x, want 0xff", v)
	}
	if !p.Short() {
		t.Fatalf("Short() = false, want true")
	}
}

func TestPeekBitsDoesNotAdvance(t *testing.T) {
	p := New([]byte{0b10110101})
	v, n := p.PeekBits(4)
	if n != 4 {
		t.Fatalf("PeekBits n = %d, want 4", n)
	}
	if p.BitsRead() != 0 {
		t.Fatalf("BitsRead() after peek = %d, want 0", p.BitsRead())
	}
	got := p.ReadBits(4)
	if got != v {
		t.Fatalf("ReadBits after peek = %d, want %d", got, v)
	}
}

func TestResetClearsCursorAndShort(t *testing.T) {
	p := New([]byte{0x01})
	p.ReadBits(16)
	if !p.Short() {
		t.Fatalf("expected Short() true before reset")
	}
	p.Reset()
	if p.Short() || p.BitsRead() != 0 {
		t.Fatalf("Reset did not clear state: short=%v bitsRead=%d", p.Short(), p.BitsRead())
	}
}

func TestReadBytes(t *testing.T) {
	p := New([]byte{1, 2, 3, 4})
	buf := make([]byte, 4)
	n := p.ReadBytes(buf)
	if n != 4 {
		t.Fatalf("ReadBytes n = %d, want 4", n)
	}
	want := []byte{1, 2, 3, 4}
	for i, b := range want {
		if buf[i] != b {
			t.Fatalf("buf[%d] = %d, want %d", i, buf[i], b)
		}
	}
}

func TestReadBytesShort(t *testing.T) {
	p := New([]byte{1, 2})
	buf := make([]byte, 4)
	n := p.ReadBytes(buf)
	if n != 2 {
		t.Fatalf("ReadBytes n = %d, want 2", n)
	}
	if !p.Short() {
		t.Fatalf("Short() = false, want true")
	}
}

func TestMetadataAccessors(t *testing.T) {
	p := New([]byte{0})
	if _, ok := p.Granule(); ok {
		t.Fatalf("fresh packet should not have a granule")
	}
	p.SetGranule(12345)
	g, ok := p.Granule()
	if !ok || g != 12345 {
		t.Fatalf("Granule() = %d,%v want 12345,true", g, ok)
	}
	p.SetEOS(true)
	if !p.EOS() {
		t.Fatalf("EOS() = false after SetEOS(true)")
	}
	p.SetResync(true)
	if !p.IsResync() {
		t.Fatalf("IsResync() = false after SetResync(true)")
	}
	p.SetOverheadBits(27 * 8)
	if p.OverheadBits() != 27*8 {
		t.Fatalf("OverheadBits() = %d, want %d", p.OverheadBits(), 27*8)
	}
	p.SetStreamSerial(99)
	serial, ok := p.StreamSerial()
	if !ok || serial != 99 {
		t.Fatalf("StreamSerial() = %d,%v want 99,true", serial, ok)
	}
}
