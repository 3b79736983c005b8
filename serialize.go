package gbwt

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Extension is the conventional file extension for serialized indexes.
const Extension = ".gbwt"

/*
On-disk format, little-endian:

 1. Header (48 bytes, see header.go).
 2. Node index: the combined byte-body length as u64, then a roaring
    bitmap with one set bit per record's starting offset. The explicit
    length is needed because a roaring bitmap, unlike a succinct sparse
    bitvector, does not record the length of the universe it ranges over.
 3. The concatenated per-record encodings: varint outdegree, a varint
    (destination, offset) pair per outgoing edge, then the run-coded body.

Incoming edges are not stored; they are rebuilt from the bodies on load.
*/

// Serialize writes the index to w in the stable on-disk format. Writes
// always use the current format version.
func (g *GBWT) Serialize(w io.Writer) error {
	h := g.header
	h.version = headerVersion
	if _, err := w.Write(h.appendTo(nil)); err != nil {
		return err
	}

	var body []byte
	index := roaring64.New()
	for comp := range g.bwt {
		index.Add(uint64(len(body)))
		body = g.bwt[comp].appendTo(body)
	}

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := index.WriteTo(w); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func (r *record) appendTo(buf []byte) []byte {
	buf = appendVarint(buf, uint64(r.outdegree()))
	for _, e := range r.outgoing {
		buf = appendVarint(buf, uint64(e.node))
		buf = appendVarint(buf, uint64(e.count))
	}
	if r.outdegree() > 0 {
		codec := newRunCodec(r.outdegree())
		for _, rn := range r.body {
			buf = codec.append(buf, rn)
		}
	}
	return buf
}

// parseRecord decodes one record from a byte slice spanning exactly its
// encoding.
func parseRecord(data []byte) (record, error) {
	var r record
	outdegree64, off, err := readVarint(data, 0)
	if err != nil {
		return r, err
	}
	outdegree := int(outdegree64)
	r.outgoing = make([]edge, outdegree)
	for outrank := 0; outrank < outdegree; outrank++ {
		var node, count uint64
		node, off, err = readVarint(data, off)
		if err != nil {
			return r, err
		}
		count, off, err = readVarint(data, off)
		if err != nil {
			return r, err
		}
		r.outgoing[outrank] = edge{Node(node), int(count)}
	}
	if outdegree > 0 {
		codec := newRunCodec(outdegree)
		for off < len(data) {
			var rn run
			rn, off, err = codec.read(data, off)
			if err != nil {
				return r, err
			}
			if rn.outrank >= outdegree {
				return r, dataErrf(data, off, nil, "run rank %d out of range", rn.outrank)
			}
			r.body = append(r.body, rn)
			r.bodySize += rn.length
		}
	}
	return r, nil
}

// Load replaces the contents of the index with one read from rd. The data
// must have been written by Serialize in a version no older than the
// minimum supported one.
func (g *GBWT) Load(rd io.Reader) error {
	var hbuf [headerSize]byte
	if _, err := io.ReadFull(rd, hbuf[:]); err != nil {
		return fmt.Errorf("gbwt: reading header: %w", err)
	}
	var h header
	if err := h.parse(hbuf[:]); err != nil {
		return err
	}
	if !h.check() {
		return fmt.Errorf("gbwt: %w: invalid header (%v)", ErrMalformed, &h)
	}
	if h.offset > 0 && h.offset >= h.alphabetSize {
		return fmt.Errorf("gbwt: %w: offset %d with alphabet size %d", ErrMalformed, h.offset, h.alphabetSize)
	}
	effective := 0
	if h.alphabetSize > 0 {
		effective = int(h.alphabetSize - h.offset)
	}

	var lenBuf [8]byte
	if _, err := io.ReadFull(rd, lenBuf[:]); err != nil {
		return fmt.Errorf("gbwt: reading node index: %w", err)
	}
	bodyLen := binary.LittleEndian.Uint64(lenBuf[:])
	index := roaring64.New()
	if _, err := index.ReadFrom(rd); err != nil {
		return fmt.Errorf("gbwt: reading node index: %w", err)
	}
	if index.GetCardinality() != uint64(effective) {
		return fmt.Errorf("gbwt: %w: node index has %d records, header promises %d",
			ErrMalformed, index.GetCardinality(), effective)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(rd, body); err != nil {
		return fmt.Errorf("gbwt: reading byte body: %w", err)
	}

	bwt := make([]record, effective)
	for comp := 0; comp < effective; comp++ {
		start, err := index.Select(uint64(comp))
		if err != nil {
			return fmt.Errorf("gbwt: node index: %w", err)
		}
		stop := bodyLen
		if comp+1 < effective {
			stop, err = index.Select(uint64(comp + 1))
			if err != nil {
				return fmt.Errorf("gbwt: node index: %w", err)
			}
		}
		if start > stop || stop > uint64(len(body)) {
			return fmt.Errorf("gbwt: %w: record %d spans [%d, %d) of %d bytes",
				ErrMalformed, comp, start, stop, len(body))
		}
		rec, err := parseRecord(body[start:stop])
		if err != nil {
			return fmt.Errorf("gbwt: record %d: %w", comp, err)
		}
		bwt[comp] = rec
	}

	oldHeader, oldBWT := g.header, g.bwt
	g.header = h
	g.bwt = bwt
	if err := g.rebuildIncoming(); err != nil {
		g.header, g.bwt = oldHeader, oldBWT
		return err
	}
	return nil
}

// rebuildIncoming reconstructs the incoming edges from the record bodies.
// Records are visited in comp order, so each incoming list comes out
// sorted by predecessor. The endmarker keeps no incoming edges.
func (g *GBWT) rebuildIncoming() error {
	for comp := range g.bwt {
		cur := &g.bwt[comp]
		counts := make([]int, cur.outdegree())
		for _, rn := range cur.body {
			counts[rn.outrank] += rn.length
		}
		for outrank := 0; outrank < cur.outdegree(); outrank++ {
			to := cur.successor(outrank)
			if to == Endmarker {
				continue
			}
			if !g.hasRecord(to) {
				return fmt.Errorf("gbwt: %w: record %d has an edge to node %d outside the alphabet",
					ErrMalformed, comp, to)
			}
			g.rec(to).addIncoming(edge{g.toNode(comp), counts[outrank]})
		}
	}
	return nil
}
