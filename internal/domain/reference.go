package domain

// TxReference is a transaction's lightweight index entry: everything the index
// knows without touching the payload. References are produced by the gateway
// layer and read-only downstream.
type TxReference struct {
	id             string
	owner          string
	tags           []Tag
	sizeBytes      int64
	blockHeight    int64
	blockTimestamp int64
	confirmed      bool
}

// ReconstructRef assembles a confirmed transaction reference from index data.
func ReconstructRef(id, owner string, tags []Tag, sizeBytes, blockHeight, blockTimestamp int64) TxReference {
	return TxReference{
		id:             id,
		owner:          owner,
		tags:           tags,
		sizeBytes:      sizeBytes,
		blockHeight:    blockHeight,
		blockTimestamp: blockTimestamp,
		confirmed:      true,
	}
}

// ReconstructPendingRef assembles a reference for a transaction the index has
// seen but no block has included yet.
func ReconstructPendingRef(id, owner string, tags []Tag, sizeBytes int64) TxReference {
	return TxReference{id: id, owner: owner, tags: tags, sizeBytes: sizeBytes}
}

// ID returns the transaction's content address.
func (r TxReference) ID() string { return r.id }

// Owner returns the posting wallet address.
func (r TxReference) Owner() string { return r.owner }

// Tags returns the transaction's tags in index order.
func (r TxReference) Tags() []Tag { return r.tags }

// SizeBytes returns the payload size reported by the index.
func (r TxReference) SizeBytes() int64 { return r.sizeBytes }

// Confirmed reports whether the transaction has been included in a block.
func (r TxReference) Confirmed() bool { return r.confirmed }

// BlockHeight returns the including block's height (0 when unconfirmed).
func (r TxReference) BlockHeight() int64 { return r.blockHeight }

// BlockTimestamp returns the including block's Unix timestamp in seconds
// (0 when unconfirmed; check Confirmed first).
func (r TxReference) BlockTimestamp() int64 { return r.blockTimestamp }

// TagValue returns the first value of the named tag, or "" if absent.
func (r TxReference) TagValue(name string) string {
	for _, t := range r.tags {
		if t.Name == name {
			return t.Value
		}
	}
	return ""
}

// IndexPage is one page of index results: references in index order plus the
// cursor for the following page ("" means no further pages).
type IndexPage struct {
	Refs       []TxReference
	NextCursor string
}
