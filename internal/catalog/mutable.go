package catalog

import "github.com/r888888888/iqdb/internal/sig"

type mutableRecord struct {
	info  ImageInfo
	index int
}

// Mutable is the catalog implementation for normal and alter mode: entries
// are addressed by id through a map to a pointer-held record, and
// signatures live in a SignatureCache rather than inline (spec.md §4.4).
type Mutable struct {
	byID      map[uint64]*mutableRecord
	byIndex   []*mutableRecord // nil at holes left by Remove
	nextIndex int
	cache     SignatureCache
}

// NewMutable creates an empty mutable catalog backed by cache.
func NewMutable(cache SignatureCache) *Mutable {
	return &Mutable{
		byID:  make(map[uint64]*mutableRecord),
		cache: cache,
	}
}

// Add inserts a new entry, assigning it the next monotonic index. It fails
// if id is already present.
func (c *Mutable) Add(id uint64, info ImageInfo, d sig.ImgData) (index int, err error) {
	if _, exists := c.byID[id]; exists {
		return 0, &ErrDuplicateID{ID: id}
	}
	info.ID = id
	index = c.nextIndex
	c.nextIndex++

	rec := &mutableRecord{info: info, index: index}
	c.byID[id] = rec
	c.byIndex = append(c.byIndex, rec)

	if err := c.cache.Put(index, d); err != nil {
		delete(c.byID, id)
		c.byIndex = c.byIndex[:len(c.byIndex)-1]
		c.nextIndex--
		return 0, err
	}
	return index, nil
}

// Remove deletes id from the catalog entirely. The vacated index is left as
// a hole; bucket removal is the caller's responsibility (it needs the
// signature, which the catalog no longer has once this returns).
func (c *Mutable) Remove(id uint64) (removedIndex int, ok bool) {
	rec, exists := c.byID[id]
	if !exists {
		return 0, false
	}
	delete(c.byID, id)
	c.byIndex[rec.index] = nil
	return rec.index, true
}

// At returns the info for a catalog index. ok is false at a hole.
func (c *Mutable) At(index int) (ImageInfo, bool) {
	if index < 0 || index >= len(c.byIndex) || c.byIndex[index] == nil {
		return ImageInfo{}, false
	}
	return c.byIndex[index].info, true
}

// IndexByID returns the dense index for id.
func (c *Mutable) IndexByID(id uint64) (int, bool) {
	rec, ok := c.byID[id]
	if !ok {
		return 0, false
	}
	return rec.index, true
}

// Sig returns the full signature for a catalog index, read from the cache.
func (c *Mutable) Sig(index int) (sig.ImgData, error) {
	return c.cache.Get(index)
}

// SigByID returns the full signature for an image id.
func (c *Mutable) SigByID(id uint64) (sig.ImgData, error) {
	idx, ok := c.IndexByID(id)
	if !ok {
		return sig.ImgData{}, &ErrUnknownID{ID: id}
	}
	return c.Sig(idx)
}

// SetInfo overwrites the stored metadata for id (used by set_resolution).
func (c *Mutable) SetInfo(id uint64, info ImageInfo) bool {
	rec, ok := c.byID[id]
	if !ok {
		return false
	}
	info.ID = id
	rec.info = info
	return true
}

// Len returns the number of live (non-removed) entries.
func (c *Mutable) Len() int {
	return len(c.byID)
}

// NextIndex returns the number of indices ever assigned, including holes
// left by Remove (spec.md §3's next_index invariant).
func (c *Mutable) NextIndex() int {
	return c.nextIndex
}

// Has reports whether id is present.
func (c *Mutable) Has(id uint64) bool {
	_, ok := c.byID[id]
	return ok
}

// EachIndex calls fn for every live (index, info) pair in index order.
func (c *Mutable) EachIndex(fn func(index int, info ImageInfo)) {
	for i, rec := range c.byIndex {
		if rec != nil {
			fn(i, rec.info)
		}
	}
}

// ListIDs returns every live image id, in catalog (insertion) order.
func (c *Mutable) ListIDs() []uint64 {
	ids := make([]uint64, 0, len(c.byID))
	for _, rec := range c.byIndex {
		if rec != nil {
			ids = append(ids, rec.info.ID)
		}
	}
	return ids
}

// Close releases the signature cache.
func (c *Mutable) Close() error {
	return c.cache.Close()
}
