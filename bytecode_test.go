package gbwt

import (
	"math"
	"testing"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 42, 127, 128, 300, 16383, 16384, 1<<32 - 1, 1 << 40, math.MaxUint64}
	var buf []byte
	for _, v := range values {
		buf = appendVarint(buf, v)
	}
	off := 0
	for _, want := range values {
		got, newOff, err := readVarint(buf, off)
		if err != nil {
			t.Fatalf("readVarint at %d failed: %v", off, err)
		}
		if got != want {
			t.Fatalf("readVarint = %d, wanted %d", got, want)
		}
		off = newOff
	}
	if off != len(buf) {
		t.Fatalf("decoded %d of %d bytes", off, len(buf))
	}
}

func TestVarintEncoding(t *testing.T) {
	tests := []struct {
		value    uint64
		expected []byte
	}{
		{0, []byte{0x00}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
	}
	for _, test := range tests {
		got := appendVarint(nil, test.value)
		if len(got) != len(test.expected) {
			t.Errorf("appendVarint(%d) = %x, wanted %x", test.value, got, test.expected)
			continue
		}
		for i := range got {
			if got[i] != test.expected[i] {
				t.Errorf("appendVarint(%d) = %x, wanted %x", test.value, got, test.expected)
				break
			}
		}
	}
}

func TestVarintTruncated(t *testing.T) {
	if _, _, err := readVarint(nil, 0); err == nil {
		t.Fatalf("readVarint(empty) should fail")
	}
	full := appendVarint(nil, 1<<40)
	if _, _, err := readVarint(full[:len(full)-1], 0); err == nil {
		t.Fatalf("readVarint(truncated) should fail")
	}
}
