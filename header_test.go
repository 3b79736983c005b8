package gbwt

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := newHeader()
	h.sequences = 3
	h.size = 17
	h.offset = 21
	h.alphabetSize = 52
	h.set(FlagBidirectional)

	buf := h.appendTo(nil)
	if len(buf) != headerSize {
		t.Fatalf("header encodes to %d bytes, wanted %d", len(buf), headerSize)
	}
	var got header
	if err := got.parse(buf); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got != h {
		t.Fatalf("parse = %+v, wanted %+v", got, h)
	}
	if !got.check() || !got.checkNew() {
		t.Fatalf("round-tripped header should check")
	}
}

func TestHeaderCheck(t *testing.T) {
	good := newHeader()
	if !good.check() {
		t.Fatalf("fresh header should check")
	}

	h := newHeader()
	h.tag = 0xDEADBEEF
	if h.check() {
		t.Errorf("bad tag should not check")
	}

	h = newHeader()
	h.version = 0
	if h.check() {
		t.Errorf("version 0 should not check")
	}

	h = newHeader()
	h.version = headerVersion + 1
	if h.check() {
		t.Errorf("future version should not check")
	}

	h = newHeader()
	h.version = headerMinVersion
	if !h.check() {
		t.Errorf("minimum version should check")
	}
	if h.checkNew() {
		t.Errorf("old version should not checkNew")
	}

	h = newHeader()
	h.flags = 0x8000
	if h.check() {
		t.Errorf("unknown flag bits should not check")
	}
}

func TestHeaderTruncated(t *testing.T) {
	h := newHeader()
	buf := h.appendTo(nil)
	var got header
	if err := got.parse(buf[:headerSize-1]); err == nil {
		t.Fatalf("parsing a truncated header should fail")
	}
}

func TestHeaderFlags(t *testing.T) {
	h := newHeader()
	if h.get(FlagBidirectional) {
		t.Fatalf("fresh header should not have the bidirectional flag")
	}
	h.set(FlagBidirectional)
	if !h.get(FlagBidirectional) {
		t.Fatalf("flag should be set")
	}
	h.unset(FlagBidirectional)
	if h.get(FlagBidirectional) {
		t.Fatalf("flag should be cleared")
	}
}
