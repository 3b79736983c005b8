package gbwt

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Node identifies a node of the underlying graph. Node 0 is reserved for
// the endmarker that terminates every sequence.
type Node uint64

// Endmarker terminates each indexed sequence. Searching with it is not
// supported.
const Endmarker Node = 0

// GBWT is a dynamic multi-string BWT over graph node identifiers. The
// zero value is not usable; call New.
//
// Insert and Merge must not run concurrently with each other or with
// queries. LF queries are safe from multiple goroutines once insertions
// have stopped.
type GBWT struct {
	header header
	bwt    []record
	logger *slog.Logger
}

func New() *GBWT {
	return &GBWT{header: newHeader()}
}

// SetLogger directs insertion progress to l. Nil disables logging.
func (g *GBWT) SetLogger(l *slog.Logger) { g.logger = l }

// Sigma returns the alphabet size: the largest node id plus one.
func (g *GBWT) Sigma() Node { return Node(g.header.alphabetSize) }

// Effective returns the number of records backing the effective alphabet.
func (g *GBWT) Effective() int { return len(g.bwt) }

// Sequences returns the number of indexed sequences.
func (g *GBWT) Sequences() int { return int(g.header.sequences) }

// Size returns the total number of indexed symbols, endmarkers included.
func (g *GBWT) Size() int { return int(g.header.size) }

func (g *GBWT) Empty() bool { return g.header.size == 0 }

// Runs returns the total number of body runs across all records.
func (g *GBWT) Runs() int {
	total := 0
	for comp := range g.bwt {
		total += g.bwt[comp].runs()
	}
	return total
}

// Bidirectional reports the bidirectional header flag.
func (g *GBWT) Bidirectional() bool { return g.header.get(FlagBidirectional) }

// SetBidirectional sets or clears the bidirectional header flag.
func (g *GBWT) SetBidirectional(v bool) {
	if v {
		g.header.set(FlagBidirectional)
	} else {
		g.header.unset(FlagBidirectional)
	}
}

// Count returns the height of the node's column: the number of occurrences
// of the node across all indexed sequences. Count(Endmarker) equals
// Sequences.
func (g *GBWT) Count(node Node) int {
	if !g.hasRecord(node) {
		return 0
	}
	return g.rec(node).size()
}

// CountTo returns the number of symbols in from's column that map to to.
func (g *GBWT) CountTo(from, to Node) int {
	if !g.hasRecord(from) {
		return 0
	}
	return g.rec(from).countTo(to)
}

// hasRecord reports whether the node is backed by a record: the endmarker
// of a non-degenerate index, or a node in the effective range.
func (g *GBWT) hasRecord(node Node) bool {
	if node == Endmarker {
		return len(g.bwt) > 0
	}
	return node > Node(g.header.offset) && node < g.Sigma()
}

func (g *GBWT) comp(node Node) int {
	if node == Endmarker {
		return 0
	}
	return int(node - Node(g.header.offset))
}

func (g *GBWT) toNode(comp int) Node {
	if comp == 0 {
		return Endmarker
	}
	return Node(comp) + Node(g.header.offset)
}

// rec returns the record of a node that hasRecord.
func (g *GBWT) rec(node Node) *record {
	return &g.bwt[g.comp(node)]
}

// resize grows the index to cover the alphabet [newOffset+1, newSigma).
// The offset only ever shrinks, and a degenerate request (newSigma <= 1)
// keeps the current one. Existing records relocate under the new offset,
// with the endmarker pinned at comp 0.
func (g *GBWT) resize(newOffset, newSigma Node) {
	if (g.Sigma() > 1 && newOffset > Node(g.header.offset)) || newSigma <= 1 {
		newOffset = Node(g.header.offset)
	}
	if g.Sigma() > newSigma {
		newSigma = g.Sigma()
	}
	if newOffset > 0 && newOffset >= newSigma {
		panic(fmt.Sprintf("gbwt: cannot set offset %d with alphabet size %d", newOffset, newSigma))
	}
	if newOffset == Node(g.header.offset) && newSigma == g.Sigma() {
		return
	}

	if g.logger != nil {
		g.logger.Debug("resizing alphabet",
			slog.Uint64("offset", uint64(newOffset)), slog.Uint64("sigma", uint64(newSigma)))
	}
	newBWT := make([]record, newSigma-newOffset)
	if g.Effective() > 0 {
		newBWT[0] = g.bwt[0]
	}
	for comp := 1; comp < g.Effective(); comp++ {
		newBWT[comp+int(g.header.offset)-int(newOffset)] = g.bwt[comp]
	}
	g.bwt = newBWT
	g.header.offset = uint64(newOffset)
	g.header.alphabetSize = uint64(newSigma)
}

// recode normalizes every record after a batch of insertions. The work is
// independent per record and runs statically chunked across the CPUs.
func (g *GBWT) recode() {
	if len(g.bwt) == 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(g.bwt) + workers - 1) / workers
	var eg errgroup.Group
	for start := 0; start < len(g.bwt); start += chunk {
		recs := g.bwt[start:min(start+chunk, len(g.bwt))]
		eg.Go(func() error {
			for i := range recs {
				recs[i].recode()
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// LF maps position i of node from one step forward along the indexed
// sequences, to (successor node, position within its record). Reports
// false when from has no record or i is past the end of its column.
func (g *GBWT) LF(from Node, i int) (Node, int, bool) {
	if !g.hasRecord(from) {
		return Endmarker, 0, false
	}
	return g.rec(from).lfAt(i)
}

// LFTo returns the position in to's column of the first symbol that is, in
// BWT order, at or after position i of from's column. from >= Sigma yields
// the column height of to. Reports false only when to is out of range.
func (g *GBWT) LFTo(from Node, i int, to Node) (int, bool) {
	if to >= g.Sigma() {
		return 0, false
	}
	if from >= g.Sigma() {
		return g.Count(to), true
	}
	if g.hasRecord(from) {
		if pos, ok := g.rec(from).lf(i, to); ok {
			return pos, true
		}
	}
	if !g.hasRecord(to) {
		return 0, true
	}

	// Edge (from, to) has not been observed. Find the first edge into to
	// from a node >= from; if there is none, every occurrence of to comes
	// from a smaller predecessor.
	toRec := g.rec(to)
	inrank := toRec.findFirst(from)
	if inrank >= toRec.indegree() {
		return g.Count(to), true
	}
	pred := g.rec(toRec.predecessor(inrank))
	return pred.offsetAt(pred.edgeTo(to)), true
}

// Extract reconstructs the node path of the seq-th sequence by LF stepping
// from the endmarker record. The terminating endmarker is not included.
func (g *GBWT) Extract(seq int) []Node {
	if seq < 0 || seq >= g.Sequences() {
		return nil
	}
	var path []Node
	node, pos, ok := g.LF(Endmarker, seq)
	for ok && node != Endmarker {
		path = append(path, node)
		node, pos, ok = g.LF(node, pos)
	}
	return path
}

// Compare reports whether two indexes are field-equal, writing a
// description of the first mismatch to w (which may be nil).
func (g *GBWT) Compare(other *GBWT, w io.Writer) bool {
	if w == nil {
		w = io.Discard
	}
	if g.header != other.header {
		fmt.Fprintf(w, "headers differ:\n  this:    %v\n  another: %v\n", &g.header, &other.header)
		return false
	}
	for comp := range g.bwt {
		if !g.bwt[comp].equal(&other.bwt[comp]) {
			fmt.Fprintf(w, "records differ at node %d:\n  this:    %v\n  another: %v\n",
				g.toNode(comp), &g.bwt[comp], &other.bwt[comp])
			return false
		}
	}
	return true
}

// copyFrom deep-copies another index, keeping the receiver's logger.
func (g *GBWT) copyFrom(other *GBWT) {
	g.header = other.header
	g.bwt = make([]record, len(other.bwt))
	for comp := range other.bwt {
		src := &other.bwt[comp]
		g.bwt[comp] = record{
			body:     slices.Clone(src.body),
			bodySize: src.bodySize,
			outgoing: slices.Clone(src.outgoing),
			incoming: slices.Clone(src.incoming),
		}
	}
}
