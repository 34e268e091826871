package table

import (
	"encoding/binary"
	"hash/crc32"
)

// castagnoliTable is the CRC-32C polynomial table, the same construction
// the sibling corpus member SimpleKV uses for its own block checksums
// (utils/const.go: crc32.MakeTable(crc32.Castagnoli)). No third-party
// CRC-32C package appears anywhere in the retrieval pack, so hash/crc32
// is the correct, grounded choice (see DESIGN.md).
var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// blockTrailerLen is the fixed size, in bytes, of the trailer appended to
// every block: one compression-type byte plus a 4-byte little-endian
// masked CRC-32C (spec §3 "Trailer", §4.4).
const blockTrailerLen = 5

// Compression type codes, part of the durable on-disk format (spec §6).
const (
	compressionNone   byte = 0
	compressionSnappy byte = 1
)

// maskDelta is the fixed constant added after rotating the CRC, chosen so
// that the checksum of a block can never collide with the checksum of the
// enclosing file-framing layer (spec §4.4).
const maskDelta uint32 = 0xa282ead8

// maskChecksum applies the CRC masking transform described in spec §4.4:
// ((crc >> 15) | (crc << 17)) + 0xa282ead8.
func maskChecksum(crc uint32) uint32 {
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// unmaskChecksum reverses maskChecksum; provided for the reader.
func unmaskChecksum(masked uint32) uint32 {
	rot := masked - maskDelta
	return (rot << 15) | (rot >> 17)
}

// blockChecksum computes the masked CRC-32C over (payload ‖ typeByte), the
// exact quantity stored in a block's trailer (spec §3, §4.4).
func blockChecksum(payload []byte, typeByte byte) uint32 {
	crc := crc32.Update(crc32.Checksum(payload, castagnoliTable), castagnoliTable, []byte{typeByte})
	return maskChecksum(crc)
}

// BlockHandle is the (offset, length) pair locating a block's payload (not
// its trailer) within the file (spec §3 "Block handle").
type BlockHandle struct {
	Offset uint64
	Length uint64
}

// maxBlockHandleLen is the maximum number of bytes two varint64s can take.
const maxBlockHandleLen = 2 * binary.MaxVarintLen64

// EncodeTo appends the varint-encoded handle to dst and returns the result.
func (h BlockHandle) EncodeTo(dst []byte) []byte {
	dst = binary.AppendUvarint(dst, h.Offset)
	dst = binary.AppendUvarint(dst, h.Length)
	return dst
}

// decodeBlockHandle decodes a BlockHandle from the front of src, returning
// the handle and the number of bytes consumed. It returns (zero, 0) on
// malformed input.
func decodeBlockHandle(src []byte) (BlockHandle, int) {
	offset, n := binary.Uvarint(src)
	if n <= 0 {
		return BlockHandle{}, 0
	}
	length, m := binary.Uvarint(src[n:])
	if m <= 0 {
		return BlockHandle{}, 0
	}
	return BlockHandle{Offset: offset, Length: length}, n + m
}

// footerLen is the fixed, exact size of the trailing footer record (spec
// §3 "Footer", §6). It mirrors LevelDB's legacy footer: two block handles,
// zero padding out to 2*maxBlockHandleLen, then the 8-byte magic.
const footerLen = 2*maxBlockHandleLen + 8

// tableMagic is the fixed 64-bit constant identifying this format version,
// encoded little-endian at the very end of the file. This is the same
// magic LevelDB and its descendants use (0xdb4775248b80fb57), reproduced
// byte-for-byte so that a conforming external reader recognizes the file.
var tableMagic = [8]byte{0x57, 0xfb, 0x80, 0x8b, 0x24, 0x75, 0x47, 0xdb}

// footer holds the two handles advertised at the fixed end-of-file
// location (spec §3 "Footer").
type footer struct {
	metaindexHandle BlockHandle
	indexHandle     BlockHandle
}

// encode returns the fixed-size footer encoding: both handles, zero
// padding to fill the body, then the magic number (spec §6 "footer").
func (f footer) encode() []byte {
	buf := make([]byte, footerLen)
	n := 0
	n += copy(buf[n:], f.metaindexHandle.EncodeTo(nil))
	n += copy(buf[n:], f.indexHandle.EncodeTo(nil))
	// buf[n:footerLen-8] is already zero (the padding).
	copy(buf[footerLen-8:], tableMagic[:])
	return buf
}

// decodeFooter parses the trailing footerLen bytes of a table file.
func decodeFooter(buf []byte) (footer, error) {
	if len(buf) != footerLen {
		return footer{}, ErrCorruption
	}
	if string(buf[footerLen-8:]) != string(tableMagic[:]) {
		return footer{}, ErrCorruption
	}
	var f footer
	var n int
	f.metaindexHandle, n = decodeBlockHandle(buf)
	if n == 0 {
		return footer{}, ErrCorruption
	}
	buf = buf[n:]
	f.indexHandle, n = decodeBlockHandle(buf)
	if n == 0 {
		return footer{}, ErrCorruption
	}
	return f, nil
}
