package catalog

import "github.com/r888888888/iqdb/internal/sig"

// SigReader resolves a catalog index to its persisted full signature. In
// simple (read-only) mode this typically reads from a memory-mapped window
// over the database file's own signature section, since the mode has no
// separate signature cache (spec.md §4.4, §4.5).
type SigReader func(index int) (sig.ImgData, error)

// ReadOnly is the catalog implementation for simple mode: image_info is
// stored inline in a dense, index-addressed slice, and id lookups go
// through a plain map to that index (spec.md §4.4).
type ReadOnly struct {
	entries []ImageInfo
	byID    map[uint64]int
	sigs    SigReader
}

// NewReadOnly creates an empty read-only catalog. SetSigReader must be
// called before Sig/SigByID are used.
func NewReadOnly() *ReadOnly {
	return &ReadOnly{byID: make(map[uint64]int)}
}

// SetSigReader installs the signature accessor, typically bound to the
// loaded database file's mmap'd signature region.
func (c *ReadOnly) SetSigReader(r SigReader) {
	c.sigs = r
}

// Add appends the next entry, assigned the next dense index. Per spec.md
// §4.7, add is permitted in simple mode mainly to support loading; buckets
// are not re-sorted as a side effect.
func (c *ReadOnly) Add(info ImageInfo) (index int, err error) {
	if _, exists := c.byID[info.ID]; exists {
		return 0, &ErrDuplicateID{ID: info.ID}
	}
	index = len(c.entries)
	c.entries = append(c.entries, info)
	c.byID[info.ID] = index
	return index, nil
}

// Tombstone marks id as removed by zeroing avgl[0], without touching
// buckets (spec.md §3, §4.7).
func (c *ReadOnly) Tombstone(id uint64) bool {
	idx, ok := c.byID[id]
	if !ok {
		return false
	}
	c.entries[idx].Avgl[0] = 0
	delete(c.byID, id)
	return true
}

// At returns the info at index. ok is false for an out-of-range index; a
// tombstoned entry is still returned with ok=true (callers check Deleted).
func (c *ReadOnly) At(index int) (ImageInfo, bool) {
	if index < 0 || index >= len(c.entries) {
		return ImageInfo{}, false
	}
	return c.entries[index], true
}

// IndexByID returns the index for a live id.
func (c *ReadOnly) IndexByID(id uint64) (int, bool) {
	idx, ok := c.byID[id]
	return idx, ok
}

// Sig resolves a catalog index's full signature via the installed SigReader.
func (c *ReadOnly) Sig(index int) (sig.ImgData, error) {
	return c.sigs(index)
}

// SigByID resolves an image id's full signature.
func (c *ReadOnly) SigByID(id uint64) (sig.ImgData, error) {
	idx, ok := c.IndexByID(id)
	if !ok {
		return sig.ImgData{}, &ErrUnknownID{ID: id}
	}
	return c.Sig(idx)
}

// Len returns the number of live (non-tombstoned) entries.
func (c *ReadOnly) Len() int {
	return len(c.byID)
}

// NextIndex returns the number of indices ever assigned.
func (c *ReadOnly) NextIndex() int {
	return len(c.entries)
}

// Has reports whether id is present and not tombstoned.
func (c *ReadOnly) Has(id uint64) bool {
	_, ok := c.byID[id]
	return ok
}

// EachIndex calls fn for every entry (including tombstones) in index order;
// callers filter with info.Deleted().
func (c *ReadOnly) EachIndex(fn func(index int, info ImageInfo)) {
	for i, info := range c.entries {
		fn(i, info)
	}
}

// ListIDs returns every live image id, in catalog order.
func (c *ReadOnly) ListIDs() []uint64 {
	ids := make([]uint64, 0, len(c.byID))
	for _, info := range c.entries {
		if !info.Deleted() {
			ids = append(ids, info.ID)
		}
	}
	return ids
}
