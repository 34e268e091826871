package table

import (
	"encoding/binary"

	"github.com/golang/snappy"

	"github.com/lsmkit/tablebuilder/pkg/log"
)

// Builder assembles one immutable sorted-string table from a strictly
// increasing stream of records (spec §1 OVERVIEW, §2 COMPONENT MAP). It is
// constructed bound to one Options snapshot and one Sink, and is mutated
// exclusively by Add, Flush, Finish, or Abandon (spec §3 "Lifecycle").
//
// A Builder is not safe for concurrent use; one instance is owned by one
// caller (spec §5 "Scheduling model").
type Builder struct {
	opts *Options
	sink Sink

	dataBlock  *blockBuilder
	indexBlock *blockBuilder

	filterBuilder FilterBuilder

	offset     uint64
	numEntries uint64

	lastKey []byte

	pendingIndexEntry bool
	pendingHandle     BlockHandle

	closed bool
	err    error
}

// NewBuilder constructs a Builder bound to sink, using a copy of opts (or
// DefaultOptions if opts is nil) so that later mutation of the caller's
// Options struct has no effect (spec §6 "Construct(options_snapshot, sink)").
func NewBuilder(opts *Options, sink Sink) *Builder {
	if opts == nil {
		opts = DefaultOptions()
	}
	snapshot := opts.clone()

	b := &Builder{
		opts:       snapshot,
		sink:       sink,
		dataBlock:  newBlockBuilder(snapshot.BlockRestartInterval),
		indexBlock: newBlockBuilder(1), // index restart interval is always 1 (spec §4.1)
	}
	if snapshot.FilterPolicy != nil {
		b.filterBuilder = snapshot.FilterPolicy.NewFilterBuilder()
		b.filterBuilder.StartBlock(0)
	}
	return b
}

// ok reports whether the builder's sticky status is still clear (spec §7
// "Error stickiness").
func (b *Builder) ok() bool { return b.err == nil }

// Add appends one record. key must compare strictly greater than the key
// of the previous Add call; violating this is a precondition failure, not
// a returned error (spec §7 "Precondition violations").
func (b *Builder) Add(key, value []byte) error {
	if b.closed {
		return ErrClosed
	}
	if !b.ok() {
		return b.err
	}
	if b.numEntries > 0 && b.opts.Comparer.Compare(key, b.lastKey) <= 0 {
		panic("table: Add called with a key not greater than the previous key")
	}

	if b.pendingIndexEntry {
		sep := b.opts.Comparer.FindShortestSeparator(append([]byte(nil), b.lastKey...), key)
		var handleBuf []byte
		handleBuf = b.pendingHandle.EncodeTo(handleBuf)
		b.indexBlock.Add(sep, handleBuf)
		b.pendingIndexEntry = false
	}

	if b.filterBuilder != nil {
		b.filterBuilder.AddKey(key)
	}

	b.lastKey = append(b.lastKey[:0], key...)
	b.dataBlock.Add(key, value)
	b.numEntries++

	if b.dataBlock.CurrentSizeEstimate() >= b.opts.BlockSize {
		return b.Flush()
	}
	return nil
}

// Flush finalizes the current data block, if non-empty, writes it, and
// stages its index entry for the next Add (or Finish) to materialize
// (spec §4.2 "Flush() contract").
func (b *Builder) Flush() error {
	if b.closed {
		return ErrClosed
	}
	if !b.ok() {
		return b.err
	}
	if b.dataBlock.Empty() {
		return nil
	}

	handle, err := b.writeBlock(b.dataBlock, b.opts.Compression)
	if err != nil {
		b.err = err
		return err
	}
	b.pendingHandle = handle
	b.pendingIndexEntry = true

	if err := b.sink.Flush(); err != nil {
		b.err = err
		return err
	}

	if b.filterBuilder != nil {
		b.filterBuilder.StartBlock(b.offset)
	}

	log.Debugf("table: flushed data block at offset %d, size %d", handle.Offset, handle.Length)
	return nil
}

// Finish drains any pending data, emits the filter, metaindex, and index
// blocks, and appends the footer, returning the builder's final status
// (spec §4.5 "Finalizer"). It may be called at most once.
func (b *Builder) Finish() error {
	if b.closed {
		panic("table: Finish called on an already-closed builder")
	}

	b.Flush()
	b.closed = true

	var filterHandle BlockHandle
	haveFilter := false
	if b.ok() && b.filterBuilder != nil && b.numEntries > 0 {
		payload := b.filterBuilder.Finish()
		h, err := b.writeRawBlock(payload, compressionNone)
		if err != nil {
			b.err = err
		} else {
			filterHandle = h
			haveFilter = true
		}
	}

	var metaHandle BlockHandle
	if b.ok() {
		meta := newBlockBuilder(b.opts.BlockRestartInterval)
		if haveFilter {
			var hb []byte
			hb = filterHandle.EncodeTo(hb)
			meta.Add([]byte("filter."+b.opts.FilterPolicy.Name()), hb)
		}
		h, err := b.writeBlock(meta, b.opts.Compression)
		if err != nil {
			b.err = err
		} else {
			metaHandle = h
		}
	}

	var indexHandle BlockHandle
	if b.ok() {
		if b.pendingIndexEntry {
			sep := b.opts.Comparer.FindShortSuccessor(append([]byte(nil), b.lastKey...))
			var hb []byte
			hb = b.pendingHandle.EncodeTo(hb)
			b.indexBlock.Add(sep, hb)
			b.pendingIndexEntry = false
		}
		h, err := b.writeBlock(b.indexBlock, b.opts.Compression)
		if err != nil {
			b.err = err
		} else {
			indexHandle = h
		}
	}

	if b.ok() {
		f := footer{metaindexHandle: metaHandle, indexHandle: indexHandle}
		if err := b.sink.Append(f.encode()); err != nil {
			b.err = err
		} else {
			b.offset += footerLen
		}
	}

	log.Infof("table: finished, %d entries, %d bytes, status=%v", b.numEntries, b.offset, b.err)
	return b.err
}

// Abandon marks the builder closed without emitting any terminating
// structures. The partial file written so far is not a valid table
// (spec §4.2 "Abandon()").
func (b *Builder) Abandon() error {
	if b.closed {
		panic("table: Abandon called on an already-closed builder")
	}
	b.closed = true
	return b.err
}

// ChangeOptions updates the builder's options for subsequent blocks. Any
// attempt to change the comparer is rejected (spec §4.2 "ChangeOptions").
func (b *Builder) ChangeOptions(newOpts *Options) error {
	if b.closed {
		return ErrClosed
	}
	if !b.ok() {
		return b.err
	}
	if newOpts.Comparer != nil && newOpts.Comparer.Name() != b.opts.Comparer.Name() {
		return ErrInvalidArgument
	}

	next := newOpts.clone()
	next.Comparer = b.opts.Comparer
	b.opts = next

	// The data-block accumulator holds its own restart interval; propagate
	// the change so it takes effect starting with the next restart point,
	// rather than being silently captured only at construction time.
	b.dataBlock.SetRestartInterval(next.BlockRestartInterval)

	return nil
}

// NumEntries returns the number of successful Add calls (spec §6).
func (b *Builder) NumEntries() uint64 { return b.numEntries }

// FileSize returns the current file offset: the number of bytes already
// appended to the sink, excluding any data still held in the unflushed
// data-block accumulator (spec §6, SPEC_FULL.md §14).
func (b *Builder) FileSize() uint64 { return b.offset }

// Status returns the builder's latched error, if any (spec §6).
func (b *Builder) Status() error { return b.err }

// writeBlock finalizes bb, applies the compression policy, writes the
// result through writeRawBlock, and resets bb for reuse (spec §4.4
// "Raw-block writer").
func (b *Builder) writeBlock(bb *blockBuilder, compression Compression) (BlockHandle, error) {
	raw := bb.Finish()

	payload := raw
	typeByte := compressionNone
	if compression == SnappyCompression {
		compressed := snappy.Encode(nil, raw)
		if len(compressed) < len(raw)-len(raw)/8 {
			payload = compressed
			typeByte = compressionSnappy
		}
	}

	handle, err := b.writeRawBlock(payload, typeByte)
	bb.Reset()
	return handle, err
}

// writeRawBlock appends payload and its trailer to the sink and advances
// the file-offset counter (spec §4.4 steps 3-4).
func (b *Builder) writeRawBlock(payload []byte, typeByte byte) (BlockHandle, error) {
	handle := BlockHandle{Offset: b.offset, Length: uint64(len(payload))}

	if err := b.sink.Append(payload); err != nil {
		return BlockHandle{}, err
	}

	var trailer [blockTrailerLen]byte
	trailer[0] = typeByte
	binary.LittleEndian.PutUint32(trailer[1:], blockChecksum(payload, typeByte))
	if err := b.sink.Append(trailer[:]); err != nil {
		return BlockHandle{}, err
	}

	b.offset += uint64(len(payload)) + blockTrailerLen
	return handle, nil
}
