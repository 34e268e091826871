package table

import (
	"encoding/binary"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/twmb/murmur3"
)

// filterBaseLg controls the granularity at which filter segments are
// emitted: one segment per 2^filterBaseLg (2KiB) of data-block bytes
// written, following the classic LevelDB filter-block scheme referenced
// by SPEC_FULL.md §14 ("Filter segment granularity").
const filterBaseLg = 11

// bloomHashSeed matches the seed the wider LSM-storage corpus's bloom
// filters use for their Murmur-style key hash (see DESIGN.md).
const bloomHashSeed = 0xbc9f1d34

// BloomFilterPolicy is a FilterPolicy that builds Bloom filters with
// approximately bitsPerKey bits of filter data per key (spec §4.3,
// §6 "Filter policy (input capability)").
type BloomFilterPolicy struct {
	bitsPerKey int
	numProbes  int
}

// NewBloomFilterPolicy returns a policy targeting bitsPerKey bits per key.
// 10 bits per key yields roughly a 1% false-positive rate.
func NewBloomFilterPolicy(bitsPerKey int) *BloomFilterPolicy {
	if bitsPerKey < 1 {
		bitsPerKey = 1
	}
	// k = bitsPerKey * ln(2), clamped to a sane probe-count range.
	numProbes := int(math.Round(float64(bitsPerKey) * 0.69))
	if numProbes < 1 {
		numProbes = 1
	}
	if numProbes > 30 {
		numProbes = 30
	}
	return &BloomFilterPolicy{bitsPerKey: bitsPerKey, numProbes: numProbes}
}

func (p *BloomFilterPolicy) Name() string { return "leveldb.BuiltinBloomFilter" }

func (p *BloomFilterPolicy) NewFilterBuilder() FilterBuilder {
	return &bloomFilterBuilder{policy: p}
}

// bloomFilterBuilder implements FilterBuilder, emitting one Bloom filter
// segment per 2^filterBaseLg bytes of data blocks, plus a trailing array of
// segment offsets and a base-lg byte (spec §3 "Filter block").
type bloomFilterBuilder struct {
	policy *BloomFilterPolicy

	keys        [][]byte // keys accumulated for the segment under construction
	result      []byte   // growing output: segment bytes so far
	segmentOffs []uint32 // result offset at the start of each segment
}

func (b *bloomFilterBuilder) StartBlock(offset uint64) {
	filterIndex := offset / (1 << filterBaseLg)
	for uint64(len(b.segmentOffs)) < filterIndex {
		b.generateSegment()
	}
}

func (b *bloomFilterBuilder) AddKey(key []byte) {
	b.keys = append(b.keys, append([]byte(nil), key...))
}

func (b *bloomFilterBuilder) Finish() []byte {
	if len(b.keys) > 0 {
		b.generateSegment()
	}

	arrayOffset := uint32(len(b.result))
	for _, off := range b.segmentOffs {
		b.result = binary.LittleEndian.AppendUint32(b.result, off)
	}
	b.result = binary.LittleEndian.AppendUint32(b.result, arrayOffset)
	b.result = append(b.result, byte(filterBaseLg))
	return b.result
}

// generateSegment builds one Bloom filter segment over the keys collected
// since the previous segment boundary and appends it to result, recording
// its starting offset.
func (b *bloomFilterBuilder) generateSegment() {
	b.segmentOffs = append(b.segmentOffs, uint32(len(b.result)))

	n := len(b.keys)
	if n == 0 {
		return
	}

	numBits := n * b.policy.bitsPerKey
	if numBits < 64 {
		numBits = 64
	}
	numBytes := (numBits + 7) / 8
	numBits = numBytes * 8

	bits := bitset.New(uint(numBits))
	for _, key := range b.keys {
		h := murmur3.SeedSum32(bloomHashSeed, key)
		delta := (h >> 17) | (h << 15) // rotate, spreads probes across the filter
		for i := 0; i < b.policy.numProbes; i++ {
			bitPos := uint(h) % uint(numBits)
			bits.Set(bitPos)
			h += delta
		}
	}

	segment := make([]byte, numBytes+1)
	for i := 0; i < numBits; i++ {
		if bits.Test(uint(i)) {
			segment[i/8] |= 1 << uint(i%8)
		}
	}
	segment[numBytes] = byte(b.policy.numProbes)

	b.result = append(b.result, segment...)
	b.keys = b.keys[:0]
}

// bloomMayContain reports whether filter (one segment, as produced by
// generateSegment) may contain key. Used by the reader.
func bloomMayContain(filter, key []byte) bool {
	if len(filter) < 2 {
		return false
	}
	numProbes := int(filter[len(filter)-1])
	bitsData := filter[:len(filter)-1]
	numBits := len(bitsData) * 8

	h := murmur3.SeedSum32(bloomHashSeed, key)
	delta := (h >> 17) | (h << 15)
	for i := 0; i < numProbes; i++ {
		bitPos := uint(h) % uint(numBits)
		if bitsData[bitPos/8]&(1<<uint(bitPos%8)) == 0 {
			return false
		}
		h += delta
	}
	return true
}

// filterReader looks up the segment covering a data block starting at a
// given file offset and tests a key against it (spec §3 "Filter block").
type filterReader struct {
	data        []byte
	segmentOffs []uint32
	baseLg      int
}

func newFilterReader(data []byte) (*filterReader, error) {
	if len(data) < 5 {
		return nil, ErrCorruption
	}
	baseLg := int(data[len(data)-1])
	arrayOffset := binary.LittleEndian.Uint32(data[len(data)-5:])
	if int(arrayOffset) > len(data)-5 {
		return nil, ErrCorruption
	}
	// offsBytes covers the N per-segment offsets plus the trailing
	// arrayOffset word itself, which doubles as the end-of-data sentinel
	// for the last segment (classic LevelDB filter-block trick: the word
	// one past the last real offset is the offset array's own start).
	offsBytes := data[arrayOffset : len(data)-1]
	if len(offsBytes)%4 != 0 {
		return nil, ErrCorruption
	}
	offs := make([]uint32, len(offsBytes)/4)
	for i := range offs {
		offs[i] = binary.LittleEndian.Uint32(offsBytes[i*4:])
	}
	return &filterReader{data: data[:arrayOffset], segmentOffs: offs, baseLg: baseLg}, nil
}

func (r *filterReader) mayContain(blockOffset uint64, key []byte) bool {
	index := blockOffset >> uint(r.baseLg)
	if index+1 >= uint64(len(r.segmentOffs)) {
		// Missing offset entry for this block; be conservative.
		return true
	}
	start := r.segmentOffs[index]
	limit := r.segmentOffs[index+1]
	if start > limit || int(limit) > len(r.data) {
		return true
	}
	if start == limit {
		return false
	}
	return bloomMayContain(r.data[start:limit], key)
}
