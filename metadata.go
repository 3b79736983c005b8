package gbwt

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Metadata carries the side information about the sequences of an index:
// sample and contig names plus one path name per sequence. It lives next
// to an index in a Store rather than inside the serialized index itself.
type Metadata struct {
	Samples    []string   `msgpack:"samples"`
	Contigs    []string   `msgpack:"contigs"`
	Haplotypes int        `msgpack:"haplotypes"`
	Paths      []PathName `msgpack:"paths"`
}

// PathName identifies one sequence as a haplotype path: which sample it
// belongs to, over which contig, which phase, and the fragment index when
// a path is split.
type PathName struct {
	Sample   int `msgpack:"sample"`
	Contig   int `msgpack:"contig"`
	Phase    int `msgpack:"phase"`
	Fragment int `msgpack:"fragment"`
}

// Check verifies that the metadata is internally consistent and matches
// the index it describes.
func (md *Metadata) Check(g *GBWT) error {
	if len(md.Paths) > 0 && len(md.Paths) != g.Sequences() {
		return fmt.Errorf("gbwt: metadata names %d paths, index has %d sequences",
			len(md.Paths), g.Sequences())
	}
	for i, p := range md.Paths {
		if p.Sample < 0 || p.Sample >= len(md.Samples) {
			return fmt.Errorf("gbwt: path %d references sample %d of %d", i, p.Sample, len(md.Samples))
		}
		if p.Contig < 0 || p.Contig >= len(md.Contigs) {
			return fmt.Errorf("gbwt: path %d references contig %d of %d", i, p.Contig, len(md.Contigs))
		}
	}
	return nil
}

func encodeMetadata(md *Metadata) ([]byte, error) {
	var bb bytesBuilder
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	enc.SetSortMapKeys(true)
	err := enc.Encode(md)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("gbwt: encoding metadata: %w", err)
	}
	return bb.Buf, nil
}

func decodeMetadata(raw []byte) (*Metadata, error) {
	var r bytes.Reader
	r.Reset(raw)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	md := new(Metadata)
	err := dec.Decode(md)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, dataErrf(raw, 0, err, "decoding metadata")
	}
	return md, nil
}
