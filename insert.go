package gbwt

import (
	"log/slog"
	"math"
	"sort"
)

// sequence tracks one partially inserted sequence through the batched
// engine. offset is the splice position within curr's record, except
// between the splice sweep and the offset rebuild, when it temporarily
// holds rank(next) within the rewritten record. pos is the position within
// the source: a text index, or a position in the sibling record of a
// source index.
type sequence struct {
	id     int
	curr   Node
	next   Node
	offset int
	pos    int
}

// insertSource yields the successive symbols of the sequences being
// inserted, either from a concatenated text or from another index read in
// BWT order.
type insertSource interface {
	// nextPosition updates each sequence's pos to the source position of
	// the symbol after next.
	nextPosition(seqs []sequence)
	// advancePosition rotates curr <- next and reads the new next symbol
	// at pos.
	advancePosition(seqs []sequence)
}

type textSource []Node

func (t textSource) nextPosition(seqs []sequence) {
	for i := range seqs {
		seqs[i].pos++
	}
}

func (t textSource) advancePosition(seqs []sequence) {
	for i := range seqs {
		seqs[i].curr = seqs[i].next
		seqs[i].next = t[seqs[i].pos]
	}
}

// indexSource reads the sequences of another dynamic index.
type indexSource struct {
	src *GBWT
}

func (s indexSource) nextPosition(seqs []sequence) {
	// One pass over each cluster of sequences sharing curr: walk the body
	// once, keeping a running per-outrank count on top of the outgoing
	// offsets, and translate each pos into a position within the
	// successor's record of the source.
	for i := 0; i < len(seqs); {
		curr := seqs[i].curr
		rec := s.src.rec(curr)
		result := make([]edge, len(rec.outgoing))
		copy(result, rec.outgoing)
		bi := 0
		offset := rec.body[0].length
		result[rec.body[0].outrank].count += rec.body[0].length
		for i < len(seqs) && seqs[i].curr == curr {
			for offset <= seqs[i].pos {
				bi++
				offset += rec.body[bi].length
				result[rec.body[bi].outrank].count += rec.body[bi].length
			}
			seqs[i].pos = result[rec.body[bi].outrank].count - (offset - seqs[i].pos)
			i++
		}
	}
}

func (s indexSource) advancePosition(seqs []sequence) {
	for i := 0; i < len(seqs); {
		curr := seqs[i].next
		rec := s.src.rec(curr)
		bi := 0
		offset := rec.body[0].length
		for i < len(seqs) && seqs[i].next == curr {
			seqs[i].curr = seqs[i].next
			for offset <= seqs[i].pos {
				bi++
				offset += rec.body[bi].length
			}
			seqs[i].next = rec.successor(rec.body[bi].outrank)
			i++
		}
	}
}

// sortSequences orders by (next, curr, offset) with id as the final
// tiebreak. The full key is a total order, so identical inputs always
// produce identical indexes.
func sortSequences(seqs []sequence) {
	sort.Slice(seqs, func(a, b int) bool {
		x, y := &seqs[a], &seqs[b]
		if x.next != y.next {
			return x.next < y.next
		}
		if x.curr != y.curr {
			return x.curr < y.curr
		}
		if x.offset != y.offset {
			return x.offset < y.offset
		}
		return x.id < y.id
	})
}

// insertBatch threads the given sequences through the index, one column
// per iteration, maintaining the invariant that seqs is sorted by
// (curr, offset). Returns the number of iterations.
func insertBatch(g *GBWT, seqs []sequence, src insertSource) int {
	iterations := 0
	for {
		iterations++

		// Splice sweep. For each cluster of sequences sharing curr,
		// rewrite the record's body once, splicing the new symbols in at
		// their offsets and adding outgoing edges as they are discovered.
		// Incoming edges of the endmarker are not maintained.
		for i := 0; i < len(seqs); {
			curr := seqs[i].curr
			cur := g.rec(curr)
			merger := newRunMerger(cur.outdegree())
			body := cur.body
			bi := 0
			for i < len(seqs) && seqs[i].curr == curr {
				s := &seqs[i]
				outrank := cur.edgeTo(s.next)
				if outrank >= cur.outdegree() {
					cur.addEdge(s.next)
					merger.addEdge()
				}
				for merger.size() < s.offset {
					take := s.offset - merger.size()
					if body[bi].length <= take {
						merger.insert(body[bi])
						bi++
					} else {
						merger.insert(run{body[bi].outrank, take})
						body[bi].length -= take
					}
				}
				s.offset = merger.counts[outrank] // rank(next) within the record
				merger.insertOne(outrank)
				if s.next != Endmarker {
					g.rec(s.next).increment(curr)
				}
				i++
			}
			for ; bi < len(body); bi++ {
				merger.insert(body[bi])
			}
			merger.swapBody(cur)
		}
		g.header.size += uint64(len(seqs))

		src.nextPosition(seqs)

		// Sorting by (next, curr, offset) now is the same as sorting by
		// (curr, offset) in the next iteration. Finished sequences sort to
		// the front and drop out.
		sortSequences(seqs)
		head := 0
		for head < len(seqs) && seqs[head].next == Endmarker {
			head++
		}
		seqs = seqs[head:]
		if len(seqs) == 0 {
			return iterations
		}

		// Rebuild the outgoing offsets of the edges into each node that
		// receives insertions next iteration. Incoming edges are sorted by
		// predecessor, so the running totals come out in BWT order; the
		// offsets become valid once the next sweep has run.
		prev := g.Sigma()
		for i := range seqs {
			next := seqs[i].next
			if next == prev {
				continue
			}
			prev = next
			offset := 0
			for _, in := range g.rec(next).incoming {
				pred := g.rec(in.node)
				pred.outgoing[pred.edgeTo(next)].count = offset
				offset += in.count
			}
		}

		// Convert rank(next) within the record into a position in next's
		// record by adding the edge offset, then move on in the source.
		for i := range seqs {
			s := &seqs[i]
			cur := g.rec(s.curr)
			s.offset += cur.offsetAt(cur.edgeTo(s.next))
		}
		src.advancePosition(seqs)
	}
}

// Insert appends the sequences of text to the index. The text is a
// concatenation of sequences, each terminated by an endmarker; Insert
// panics when the final terminator is missing. An empty text leaves the
// index unchanged.
func (g *GBWT) Insert(text []Node) {
	if len(text) == 0 {
		return
	}
	if text[len(text)-1] != Endmarker {
		panic("gbwt: inserted text must end with an endmarker")
	}

	// Find the start of each sequence and seed the sequence objects at the
	// endmarker record, while collecting the node range of the text.
	minNode := Node(math.MaxUint64)
	maxNode := Node(0)
	if !g.Empty() {
		minNode = Node(g.header.offset) + 1
		maxNode = g.Sigma() - 1
	}
	var seqs []sequence
	seqStart := true
	for i, node := range text {
		if seqStart {
			id := int(g.header.sequences)
			seqs = append(seqs, sequence{id: id, curr: Endmarker, next: node, offset: id, pos: i})
			g.header.sequences++
			seqStart = false
		}
		if node == Endmarker {
			seqStart = true
		} else if node < minNode {
			minNode = node
		}
		if node > maxNode {
			maxNode = node
		}
	}
	if maxNode == 0 {
		minNode = 1 // no real nodes, the offset stays 0
	}
	g.resize(minNode-1, maxNode+1)

	if g.logger != nil {
		g.logger.Debug("inserting text",
			slog.Int("sequences", len(seqs)), slog.Int("length", len(text)))
	}
	iterations := insertBatch(g, seqs, textSource(text))
	g.recode()
	if g.logger != nil {
		g.logger.Debug("insert finished", slog.Int("iterations", iterations))
	}
}

// Merge inserts every sequence of the other index into this one, reading
// them out of the other index's endmarker record in BWT order. batchSize
// bounds the number of sequences threaded through at once; 0 means all of
// them in a single batch.
func (g *GBWT) Merge(other *GBWT, batchSize int) {
	if other.Empty() {
		return
	}
	if g.Empty() {
		g.copyFrom(other)
		return
	}

	if batchSize == 0 {
		batchSize = other.Sequences()
	}
	g.resize(Node(other.header.offset), other.Sigma())

	endmarker := other.rec(Endmarker)
	bi, runOffset := 0, 0
	sourceOffset := 0
	for sourceOffset < other.Sequences() {
		limit := min(sourceOffset+batchSize, other.Sequences())
		seqs := make([]sequence, 0, limit-sourceOffset)
		for sourceOffset < limit {
			if runOffset >= endmarker.body[bi].length {
				bi++
				runOffset = 0
				continue
			}
			id := int(g.header.sequences)
			seqs = append(seqs, sequence{
				id:     id,
				curr:   Endmarker,
				next:   endmarker.successor(endmarker.body[bi].outrank),
				offset: id,
				pos:    sourceOffset,
			})
			g.header.sequences++
			sourceOffset++
			runOffset++
		}
		if g.logger != nil {
			g.logger.Debug("merging batch",
				slog.Int("from", sourceOffset-len(seqs)), slog.Int("to", sourceOffset-1))
		}
		insertBatch(g, seqs, indexSource{other})
	}
	g.recode()
}
