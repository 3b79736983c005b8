package gbwt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func roundTrip(t *testing.T, g *GBWT) *GBWT {
	t.Helper()
	var buf bytes.Buffer
	ensure(g.Serialize(&buf))
	loaded := New()
	if err := loaded.Load(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return loaded
}

func TestSerializeRoundTrip(t *testing.T) {
	g := buildIndex(t, []Node{2, 4, 0, 2, 5, 0})
	loaded := roundTrip(t, g)

	var report bytes.Buffer
	if !g.Compare(loaded, &report) {
		t.Fatalf("loaded index differs:\n%s", report.String())
	}
	checkInvariants(t, loaded)
}

func TestSerializeEmpty(t *testing.T) {
	loaded := roundTrip(t, New())
	if !loaded.Empty() || loaded.Sigma() != 0 {
		t.Fatalf("empty index should round-trip empty")
	}
}

func TestSerializeLarger(t *testing.T) {
	g := buildIndex(t,
		[]Node{2, 3, 4, 0, 2, 3, 5, 0, 7, 3, 4, 0},
		[]Node{9, 9, 9, 0, 4, 3, 2, 0},
	)
	g.SetBidirectional(true)
	loaded := roundTrip(t, g)
	if !g.Compare(loaded, nil) {
		t.Fatalf("loaded index differs")
	}
	if !loaded.Bidirectional() {
		t.Fatalf("flags should survive the round trip")
	}
	for seq := 0; seq < g.Sequences(); seq++ {
		want := g.Extract(seq)
		got := loaded.Extract(seq)
		if len(want) != len(got) {
			t.Fatalf("Extract(%d) = %v, wanted %v", seq, got, want)
		}
		for i := range want {
			if want[i] != got[i] {
				t.Fatalf("Extract(%d) = %v, wanted %v", seq, got, want)
			}
		}
	}
}

func TestLoadRejectsBadTag(t *testing.T) {
	g := buildIndex(t, []Node{2, 4, 0})
	var buf bytes.Buffer
	ensure(g.Serialize(&buf))
	raw := buf.Bytes()
	binary.LittleEndian.PutUint32(raw[0:], 0xDEADBEEF)

	err := New().Load(bytes.NewReader(raw))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Load with a bad tag = %v, wanted ErrMalformed", err)
	}
}

func TestLoadRejectsUnknownFlags(t *testing.T) {
	g := buildIndex(t, []Node{2, 4, 0})
	var buf bytes.Buffer
	ensure(g.Serialize(&buf))
	raw := buf.Bytes()
	binary.LittleEndian.PutUint64(raw[40:], 0x8000)

	err := New().Load(bytes.NewReader(raw))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Load with unknown flags = %v, wanted ErrMalformed", err)
	}
}

func TestLoadRejectsTruncatedBody(t *testing.T) {
	g := buildIndex(t, []Node{2, 4, 0, 2, 5, 0})
	var buf bytes.Buffer
	ensure(g.Serialize(&buf))
	raw := buf.Bytes()

	if err := New().Load(bytes.NewReader(raw[:len(raw)-1])); err == nil {
		t.Fatalf("Load with a truncated body should fail")
	}
	if err := New().Load(bytes.NewReader(raw[:headerSize-4])); err == nil {
		t.Fatalf("Load with a truncated header should fail")
	}
}

func TestLoadLeavesIndexIntactOnFailure(t *testing.T) {
	g := buildIndex(t, []Node{2, 4, 0})
	snapshot := buildIndex(t, []Node{2, 4, 0})

	bad := bytes.Repeat([]byte{0xFF}, headerSize)
	if err := g.Load(bytes.NewReader(bad)); err == nil {
		t.Fatalf("loading garbage should fail")
	}
	if !g.Compare(snapshot, nil) {
		t.Fatalf("a failed load must not clobber the index")
	}
}
