package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskChecksumRoundTrip(t *testing.T) {
	tests := []uint32{0, 1, 0xdeadbeef, 0xffffffff}
	for _, crc := range tests {
		masked := maskChecksum(crc)
		assert.Equal(t, crc, unmaskChecksum(masked))
	}
}

func TestBlockChecksumDetectsCorruption(t *testing.T) {
	payload := []byte("hello world")
	crc := blockChecksum(payload, compressionNone)

	corrupted := append([]byte(nil), payload...)
	corrupted[0] ^= 0xff
	assert.NotEqual(t, crc, blockChecksum(corrupted, compressionNone))
}

func TestBlockHandleEncodeDecode(t *testing.T) {
	tests := []BlockHandle{
		{Offset: 0, Length: 0},
		{Offset: 123, Length: 456},
		{Offset: 1 << 40, Length: 1 << 20},
	}

	for _, h := range tests {
		encoded := h.EncodeTo(nil)
		decoded, n := decodeBlockHandle(encoded)
		assert.Equal(t, len(encoded), n)
		assert.Equal(t, h, decoded)
	}
}

func TestFooterEncodeDecode(t *testing.T) {
	f := footer{
		metaindexHandle: BlockHandle{Offset: 10, Length: 20},
		indexHandle:     BlockHandle{Offset: 30, Length: 40},
	}
	encoded := f.encode()
	assert.Len(t, encoded, footerLen)

	decoded, err := decodeFooter(encoded)
	assert.NoError(t, err)
	assert.Equal(t, f, decoded)
}

func TestDecodeFooterRejectsBadMagic(t *testing.T) {
	f := footer{}
	encoded := f.encode()
	encoded[len(encoded)-1] ^= 0xff

	_, err := decodeFooter(encoded)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestDecodeFooterRejectsWrongLength(t *testing.T) {
	_, err := decodeFooter([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrCorruption)
}
