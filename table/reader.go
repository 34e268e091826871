package table

import (
	"encoding/binary"

	"github.com/golang/snappy"
)

// Reader is the minimal conforming reader referenced by spec §8 scenario
// 6 ("round-trip ... parsed by a conforming reader"). It is not part of
// the builder's required component set (spec §1 scopes "the reader/scan
// path" as design-only), but is supplied so the format the Builder writes
// is independently verifiable.
type Reader struct {
	data     []byte
	comparer Comparer

	indexPayload []byte
	filter       *filterReader
}

// OpenReader parses a complete table file held in data. opts supplies the
// comparer used to order keys and, if non-nil, the filter policy expected
// to match the table's filter block.
func OpenReader(data []byte, opts *Options) (*Reader, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if len(data) < footerLen {
		return nil, ErrCorruption
	}
	f, err := decodeFooter(data[len(data)-footerLen:])
	if err != nil {
		return nil, err
	}

	indexPayload, err := readBlock(data, f.indexHandle)
	if err != nil {
		return nil, err
	}
	metaPayload, err := readBlock(data, f.metaindexHandle)
	if err != nil {
		return nil, err
	}

	r := &Reader{data: data, comparer: opts.Comparer, indexPayload: indexPayload}

	if opts.FilterPolicy != nil {
		handle, ok, err := lookupMetaindex(metaPayload, "filter."+opts.FilterPolicy.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			filterPayload, err := readBlock(data, handle)
			if err != nil {
				return nil, err
			}
			fr, err := newFilterReader(filterPayload)
			if err != nil {
				return nil, err
			}
			r.filter = fr
		}
	}

	return r, nil
}

// lookupMetaindex scans the metaindex block for an entry with the given
// key, returning its decoded BlockHandle.
func lookupMetaindex(payload []byte, key string) (BlockHandle, bool, error) {
	it, err := newBlockIter(payload)
	if err != nil {
		return BlockHandle{}, false, err
	}
	for it.SeekToFirst(); it.Valid(); it.Next() {
		if string(it.Key()) == key {
			handle, n := decodeBlockHandle(it.Value())
			if n == 0 {
				return BlockHandle{}, false, ErrCorruption
			}
			return handle, true, nil
		}
	}
	if it.Error() != nil {
		return BlockHandle{}, false, it.Error()
	}
	return BlockHandle{}, false, nil
}

// readBlock reads, checksums, and decompresses the block located by h.
func readBlock(data []byte, h BlockHandle) ([]byte, error) {
	end := h.Offset + h.Length + blockTrailerLen
	if h.Offset > uint64(len(data)) || end > uint64(len(data)) {
		return nil, ErrCorruption
	}
	payload := data[h.Offset : h.Offset+h.Length]
	trailer := data[h.Offset+h.Length : end]

	typeByte := trailer[0]
	got := binary.LittleEndian.Uint32(trailer[1:])
	if got != blockChecksum(payload, typeByte) {
		return nil, ErrCorruption
	}

	switch typeByte {
	case compressionNone:
		return payload, nil
	case compressionSnappy:
		decoded, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, ErrCorruption
		}
		return decoded, nil
	default:
		return nil, ErrCorruption
	}
}

// Get returns the value associated with key, or ErrNotFound if no such
// record was written.
func (r *Reader) Get(key []byte) ([]byte, error) {
	idx, err := newBlockIter(r.indexPayload)
	if err != nil {
		return nil, err
	}
	idx.Seek(r.comparer, key)
	if !idx.Valid() {
		if idx.Error() != nil {
			return nil, idx.Error()
		}
		return nil, ErrNotFound
	}

	handle, n := decodeBlockHandle(idx.Value())
	if n == 0 {
		return nil, ErrCorruption
	}

	if r.filter != nil && !r.filter.mayContain(handle.Offset, key) {
		return nil, ErrNotFound
	}

	blockPayload, err := readBlock(r.data, handle)
	if err != nil {
		return nil, err
	}
	bi, err := newBlockIter(blockPayload)
	if err != nil {
		return nil, err
	}
	bi.Seek(r.comparer, key)
	if !bi.Valid() || r.comparer.Compare(bi.Key(), key) != 0 {
		if bi.Error() != nil {
			return nil, bi.Error()
		}
		return nil, ErrNotFound
	}
	return append([]byte(nil), bi.Value()...), nil
}

// Iterator walks every record in a table in key order.
type Iterator struct {
	r   *Reader
	idx *blockIter
	cur *blockIter
	err error
}

// NewIterator returns an Iterator positioned before the first record.
func (r *Reader) NewIterator() (*Iterator, error) {
	idx, err := newBlockIter(r.indexPayload)
	if err != nil {
		return nil, err
	}
	return &Iterator{r: r, idx: idx}, nil
}

// SeekToFirst positions the iterator at the table's first record.
func (it *Iterator) SeekToFirst() {
	it.idx.SeekToFirst()
	it.loadBlock()
}

// Next advances to the following record.
func (it *Iterator) Next() {
	if it.cur == nil {
		return
	}
	it.cur.Next()
	for it.err == nil && (it.cur == nil || !it.cur.Valid()) {
		if it.cur != nil && it.cur.Error() != nil {
			it.err = it.cur.Error()
			it.cur = nil
			return
		}
		it.idx.Next()
		if !it.idx.Valid() {
			// No more data blocks; end of table, not an error.
			it.cur = nil
			return
		}
		it.loadBlock()
	}
}

// loadBlock opens the data block referenced by the current index entry.
func (it *Iterator) loadBlock() {
	if !it.idx.Valid() {
		it.cur = nil
		return
	}
	handle, n := decodeBlockHandle(it.idx.Value())
	if n == 0 {
		it.err = ErrCorruption
		it.cur = nil
		return
	}
	payload, err := readBlock(it.r.data, handle)
	if err != nil {
		it.err = err
		it.cur = nil
		return
	}
	bi, err := newBlockIter(payload)
	if err != nil {
		it.err = err
		it.cur = nil
		return
	}
	bi.SeekToFirst()
	it.cur = bi
}

// Valid reports whether the iterator is positioned at a record.
func (it *Iterator) Valid() bool { return it.cur != nil && it.cur.Valid() }

// Key returns the current record's key. Valid must be true.
func (it *Iterator) Key() []byte { return it.cur.Key() }

// Value returns the current record's value. Valid must be true.
func (it *Iterator) Value() []byte { return it.cur.Value() }

// Error returns the first error encountered while iterating, if any.
func (it *Iterator) Error() error { return it.err }
