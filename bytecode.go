package gbwt

import "encoding/binary"

/*
Byte code: base-128 varints of non-negative integers. Seven payload bits
per byte, least significant group first, high bit set while more bytes
follow. This is the primitive both the record encoding and the run codec
are built on.
*/

func appendVarint(buf []byte, v uint64) []byte {
	off, buf := grow(buf, binary.MaxVarintLen64)
	off += binary.PutUvarint(buf[off:], v)
	return buf[:off]
}

// readVarint decodes a varint at off and returns the value and the offset
// past it.
func readVarint(data []byte, off int) (uint64, int, error) {
	v, n := binary.Uvarint(data[off:])
	if n == 0 {
		return 0, off, dataErrf(data, off, errTruncated, "varint")
	}
	if n < 0 {
		return 0, off, dataErrf(data, off, nil, "varint overflow")
	}
	return v, off + n, nil
}
