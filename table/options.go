package table

// Compression names the compression policy applied to data, filter,
// metaindex, and index blocks before they are framed with a trailer
// (spec §4.4 "Raw-block writer").
type Compression int

const (
	// NoCompression stores every block verbatim.
	NoCompression Compression = iota
	// SnappyCompression compresses a block with Snappy, but only keeps
	// the compressed form when it saves at least 12.5% over the raw
	// payload (spec §4.4, SPEC_FULL.md §13).
	SnappyCompression
)

// Options bundles the capabilities and tunables a Builder is constructed
// with (spec §6 "External interfaces", "Options (input capability)").
type Options struct {
	// Comparer orders keys and derives the short separators stored in the
	// index block. Defaults to DefaultComparer.
	Comparer Comparer

	// Compression selects the block compression policy. Defaults to
	// SnappyCompression.
	Compression Compression

	// FilterPolicy, if non-nil, causes a filter block to be built and
	// referenced from the metaindex block (spec §4.3). A nil policy
	// means the table carries no filter block, which is a valid
	// configuration (spec §8, "Disabled filter").
	FilterPolicy FilterPolicy

	// BlockSize is the uncompressed size, in bytes, at which a data
	// block is flushed (spec §4.2 "Data-block pipeline"). It is a
	// target, not a hard limit: a single oversized record can still
	// push a block over this size.
	BlockSize int

	// BlockRestartInterval is the number of entries between restart
	// points within a data block (spec §4.1).
	BlockRestartInterval int
}

// DefaultOptions returns the Options a Builder uses when none are
// supplied, mirroring the defaults in pkg/config.TableConfig.
func DefaultOptions() *Options {
	return &Options{
		Comparer:             DefaultComparer,
		Compression:          SnappyCompression,
		FilterPolicy:         NewBloomFilterPolicy(10),
		BlockSize:            4096,
		BlockRestartInterval: 16,
	}
}

// clone returns a shallow copy, used when a Builder snapshots the options
// it was constructed with so a later ChangeOptions call can be validated
// against the original comparer (spec §4.5, invariant "Comparer is fixed
// at construction").
func (o *Options) clone() *Options {
	cp := *o
	return &cp
}
