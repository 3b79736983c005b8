package gbwt

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// edge pairs a node with a count. In outgoing it is the cumulative number
// of symbols mapped to that destination by records with a smaller
// compacted id; in incoming it is the number of symbols the predecessor
// contributes to this column.
type edge struct {
	node  Node
	count int
}

// run is a maximal group of adjacent equal outranks in a record body.
type run struct {
	outrank int
	length  int
}

// record is the per-node building block of the dynamic index: outgoing
// edges (whose order defines the local alphabet of the body), aggregated
// incoming edges sorted by predecessor, and the run-length encoded body.
type record struct {
	body     []run
	bodySize int
	outgoing []edge
	incoming []edge
}

func (r *record) outdegree() int { return len(r.outgoing) }
func (r *record) indegree() int  { return len(r.incoming) }
func (r *record) runs() int      { return len(r.body) }
func (r *record) size() int      { return r.bodySize }
func (r *record) empty() bool    { return r.bodySize == 0 }

func (r *record) successor(outrank int) Node  { return r.outgoing[outrank].node }
func (r *record) offsetAt(outrank int) int    { return r.outgoing[outrank].count }
func (r *record) predecessor(inrank int) Node { return r.incoming[inrank].node }

// addEdge appends an outgoing edge to the given node with a zero offset.
func (r *record) addEdge(to Node) {
	r.outgoing = append(r.outgoing, edge{node: to})
}

// edgeTo returns the local rank of the outgoing edge to the given node, or
// outdegree() if there is no such edge.
func (r *record) edgeTo(to Node) int {
	for outrank := range r.outgoing {
		if r.outgoing[outrank].node == to {
			return outrank
		}
	}
	return r.outdegree()
}

// increment adds one occurrence to the incoming edge from the given
// predecessor, creating the edge if needed. Incoming edges stay sorted by
// predecessor at all times; the offset rebuild during insertion assigns
// positions in incoming order and the BWT requires predecessor order.
func (r *record) increment(from Node) {
	for inrank := range r.incoming {
		if r.incoming[inrank].node == from {
			r.incoming[inrank].count++
			return
		}
	}
	r.addIncoming(edge{from, 1})
	sort.Slice(r.incoming, func(a, b int) bool { return r.incoming[a].node < r.incoming[b].node })
}

func (r *record) addIncoming(e edge) {
	r.incoming = append(r.incoming, e)
}

// findFirst returns the first inrank whose predecessor is >= from, or
// indegree() if every predecessor is smaller.
func (r *record) findFirst(from Node) int {
	for inrank := range r.incoming {
		if r.incoming[inrank].node >= from {
			return inrank
		}
	}
	return r.indegree()
}

// countTo returns the number of symbols in the body mapped to the given
// destination.
func (r *record) countTo(to Node) int {
	outrank := r.edgeTo(to)
	if outrank >= r.outdegree() {
		return 0
	}
	total := 0
	for _, rn := range r.body {
		if rn.outrank == outrank {
			total += rn.length
		}
	}
	return total
}

// recode sorts the outgoing edges by destination, remaps the body runs
// accordingly, and coalesces adjacent runs that carry the same outrank.
// Incoming edges end up sorted as well. This is the one pass that touches
// every run after construction; queries expect recoded records.
func (r *record) recode() {
	sort.Slice(r.incoming, func(a, b int) bool { return r.incoming[a].node < r.incoming[b].node })
	if r.outdegree() == 0 {
		return
	}

	sorted := true
	for outrank := 1; outrank < r.outdegree(); outrank++ {
		if r.successor(outrank) < r.successor(outrank-1) {
			sorted = false
			break
		}
	}
	if !sorted {
		order := make([]int, r.outdegree())
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return r.outgoing[order[a]].node < r.outgoing[order[b]].node
		})
		remap := make([]int, r.outdegree())
		newOutgoing := make([]edge, r.outdegree())
		for newRank, oldRank := range order {
			newOutgoing[newRank] = r.outgoing[oldRank]
			remap[oldRank] = newRank
		}
		r.outgoing = newOutgoing
		for i := range r.body {
			r.body[i].outrank = remap[r.body[i].outrank]
		}
	}

	if len(r.body) > 1 {
		w := 0
		for i := 1; i < len(r.body); i++ {
			if r.body[i].outrank == r.body[w].outrank {
				r.body[w].length += r.body[i].length
			} else {
				w++
				r.body[w] = r.body[i]
			}
		}
		r.body = r.body[:w+1]
	}
}

// lf counts the occurrences of to among the first i symbols of this column
// and adds the edge offset, yielding a position in to's record. Reports
// false when there is no edge to the node.
func (r *record) lf(i int, to Node) (int, bool) {
	outrank := r.edgeTo(to)
	if outrank >= r.outdegree() {
		return 0, false
	}
	result := r.offsetAt(outrank)
	offset := 0
	for _, rn := range r.body {
		if offset >= i {
			break
		}
		n := rn.length
		if offset+n > i {
			n = i - offset
		}
		if rn.outrank == outrank {
			result += n
		}
		offset += rn.length
	}
	return result, true
}

// lfAt maps position i of this column to the successor node and the
// position within its record. Reports false past the end of the column.
func (r *record) lfAt(i int) (Node, int, bool) {
	if i >= r.bodySize {
		return Endmarker, 0, false
	}
	counts := make([]int, r.outdegree())
	offset := 0
	for _, rn := range r.body {
		if i < offset+rn.length {
			outrank := rn.outrank
			return r.successor(outrank), r.offsetAt(outrank) + counts[outrank] + (i - offset), true
		}
		counts[rn.outrank] += rn.length
		offset += rn.length
	}
	return Endmarker, 0, false
}

func (r *record) equal(other *record) bool {
	return r.bodySize == other.bodySize &&
		slices.Equal(r.body, other.body) &&
		slices.Equal(r.outgoing, other.outgoing) &&
		slices.Equal(r.incoming, other.incoming)
}

func (r *record) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d runs, size %d, out [", r.runs(), r.size())
	for i, e := range r.outgoing {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "(%d,%d)", e.node, e.count)
	}
	sb.WriteString("], in [")
	for i, e := range r.incoming {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "(%d,%d)", e.node, e.count)
	}
	sb.WriteString("], body [")
	for i, rn := range r.body {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%dx%d", rn.outrank, rn.length)
	}
	sb.WriteString("]")
	return sb.String()
}
