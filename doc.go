/*
Package gbwt implements a dynamic graph BWT: a multi-string Burrows–Wheeler
transform over the node identifiers of a directed graph, supporting LF
navigation and incremental insertion of new sequences.

We implement:

1. A dynamic index (GBWT), a dense table of per-node records indexed by
compacted node id. Each record holds outgoing edges, aggregated incoming
edges, and a run-length encoded body over the local edge alphabet.

2. Batched insertion. New sequences are threaded through the index one
column per iteration; all active sequences are processed in lockstep and
re-sorted between iterations so that each record is rewritten exactly once
per iteration.

3. Merging. The sequences of another index can be read out in BWT order
and inserted in batches, reusing the same engine with a different source.

4. Serialization. A stable single-file format: fixed header, a sparse node
index with select support, and the concatenated per-record byte encodings.

5. A collection store. Many named indexes, together with their metadata
documents, can live in a single Bolt file.

# Technical Details

**Alphabet.**
Node 0 is the endmarker terminating each sequence. Only the effective
range (offset, alphabetSize) is backed by records; a node id maps to the
compacted index node-offset, with the endmarker pinned at 0. The offset
only ever shrinks as sequences covering smaller node ids arrive.

**Records reference each other by node id only.**
There are no inter-record pointers; what is logically a cyclic graph is
stored as a flat table, and every cross-record access goes back through
the table.

**Bodies are rebuilt, not edited.**
The insertion engine rewrites a record's body into a fresh run merger and
swaps it in, which keeps run coalescing trivially correct and avoids
shifting tails around.

**Outgoing edge offsets are maintained lazily.**
During a splice sweep the cumulative edge offsets go stale; they are
recomputed between iterations, and only for the nodes that receive
insertions next. A final recode pass sorts each record's edges by
destination and remaps the body runs accordingly.

**The endmarker has no incoming edges.**
Maintaining them would dominate the cost of insertion, and searching with
the endmarker does not work in a multi-string BWT.

Insertion is single-writer: the index must not be queried or mutated
concurrently with Insert or Merge. Once insertions have stopped, LF
queries are safe to run from any number of goroutines.
*/
package gbwt
