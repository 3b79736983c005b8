package gbwt

import (
	"encoding/binary"
	"fmt"
)

const (
	headerTag        = 0x6B376B37
	headerVersion    = 2
	headerMinVersion = 1

	headerSize = 48
)

// FlagBidirectional marks an index whose sequences were inserted in both
// orientations for bidirectional search. The flag is carried and
// serialized; building the bidirectional index itself is up to the caller.
const FlagBidirectional = 0x0001

const flagMask = FlagBidirectional

// header is the fixed-layout metadata block at the front of a serialized
// index. size counts the endmarkers; the alphabet range [1..offset] is
// unused.
type header struct {
	tag          uint32
	version      uint32
	sequences    uint64
	size         uint64
	offset       uint64
	alphabetSize uint64
	flags        uint64
}

func newHeader() header {
	return header{tag: headerTag, version: headerVersion}
}

// check reports whether the header can belong to a loadable index.
func (h *header) check() bool {
	return h.tag == headerTag &&
		h.version >= headerMinVersion && h.version <= headerVersion &&
		h.flags&^uint64(flagMask) == 0
}

// checkNew additionally requires the current version.
func (h *header) checkNew() bool {
	return h.check() && h.version == headerVersion
}

func (h *header) get(flag uint64) bool { return h.flags&flag != 0 }
func (h *header) set(flag uint64)      { h.flags |= flag }
func (h *header) unset(flag uint64)    { h.flags &^= flag }

func (h *header) appendTo(buf []byte) []byte {
	off, buf := grow(buf, headerSize)
	b := buf[off:]
	binary.LittleEndian.PutUint32(b[0:], h.tag)
	binary.LittleEndian.PutUint32(b[4:], h.version)
	binary.LittleEndian.PutUint64(b[8:], h.sequences)
	binary.LittleEndian.PutUint64(b[16:], h.size)
	binary.LittleEndian.PutUint64(b[24:], h.offset)
	binary.LittleEndian.PutUint64(b[32:], h.alphabetSize)
	binary.LittleEndian.PutUint64(b[40:], h.flags)
	return buf
}

func (h *header) parse(b []byte) error {
	if len(b) < headerSize {
		return dataErrf(b, 0, errTruncated, "header")
	}
	h.tag = binary.LittleEndian.Uint32(b[0:])
	h.version = binary.LittleEndian.Uint32(b[4:])
	h.sequences = binary.LittleEndian.Uint64(b[8:])
	h.size = binary.LittleEndian.Uint64(b[16:])
	h.offset = binary.LittleEndian.Uint64(b[24:])
	h.alphabetSize = binary.LittleEndian.Uint64(b[32:])
	h.flags = binary.LittleEndian.Uint64(b[40:])
	return nil
}

func (h *header) String() string {
	return fmt.Sprintf("version %d, %d sequences, total length %d, offset %d, alphabet size %d, flags %#06x",
		h.version, h.sequences, h.size, h.offset, h.alphabetSize, h.flags)
}
