package table

// FilterBuilder accumulates keys added to a table and emits filter
// segments at each data-block boundary (spec §4.3 "Filter builder"). The
// builder owns exactly one FilterBuilder instance for the table's
// lifetime.
type FilterBuilder interface {
	// StartBlock declares that keys added from now on belong to a data
	// block beginning at file offset offset. It is called once with
	// offset 0 immediately after construction, and again after every
	// data-block flush with the new offset (spec §4.3).
	StartBlock(offset uint64)

	// AddKey records a key as belonging to the current block.
	AddKey(key []byte)

	// Finish returns the serialized filter block, covering every key
	// seen so far, organized into the per-range segments described in
	// spec §3 "Filter block".
	Finish() []byte
}

// FilterPolicy names a filter algorithm and constructs builders for it
// (spec §6 "Filter policy (input capability)").
type FilterPolicy interface {
	// Name identifies the policy; it is the suffix of the metaindex key
	// "filter." + Name() that advertises the filter block's handle
	// (spec §4.3).
	Name() string

	// NewFilterBuilder constructs a fresh FilterBuilder.
	NewFilterBuilder() FilterBuilder
}
