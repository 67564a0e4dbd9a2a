package bucket

import (
	"github.com/r888888888/iqdb/internal/deltaqueue"
	"github.com/r888888888/iqdb/internal/mmap"
)

// ReadOnlyBucket is one bucket in simple (read-only) mode: an insertion
// ordered, delta-packed sequence of catalog indices (spec.md §4.2). Add is
// the only writer; an Add after Freeze rebuilds the bucket from its frozen
// contents and the bucket must be frozen again before Each.
type ReadOnlyBucket struct {
	builder *deltaqueue.Builder // used only while still being built (load time)
	frozen  []byte              // finalized bytes, possibly a window into an mmap region
	count   int
}

// Add appends index. Indices must be added in increasing order. If the
// bucket was already frozen (e.g. a runtime add after the initial load
// pass), its existing contents are replayed into a fresh builder first so
// they are not lost.
func (b *ReadOnlyBucket) Add(index uint32) {
	if b.builder == nil {
		b.builder = deltaqueue.NewBuilder()
		if b.frozen != nil {
			for _, v := range deltaqueue.All(b.frozen, b.count) {
				b.builder.Append(v)
			}
			b.frozen = nil
		}
	}
	b.builder.Append(index)
}

// Freeze finalizes a bucket built via Add, making it ready for Each.
func (b *ReadOnlyBucket) Freeze() {
	if b.builder != nil {
		b.frozen = b.builder.Bytes()
		b.count = b.builder.Len()
		b.builder = nil
	}
}

// LoadFrozen installs an already-encoded region (typically an mmap window)
// with a known value count, bypassing the builder entirely.
func (b *ReadOnlyBucket) LoadFrozen(data []byte, count int) {
	b.frozen = data
	b.count = count
	b.builder = nil
}

// Len returns the number of indices in the bucket.
func (b *ReadOnlyBucket) Len() int {
	if b.builder != nil {
		return b.builder.Len()
	}
	return b.count
}

// Each calls fn for every catalog index in insertion order.
func (b *ReadOnlyBucket) Each(fn func(index uint32)) {
	if b == nil {
		return
	}
	var cur *deltaqueue.Cursor
	if b.builder != nil {
		cur = b.builder.Cursor()
	} else {
		cur = deltaqueue.NewCursor(b.frozen, b.count)
	}
	for {
		v, ok := cur.Next()
		if !ok {
			return
		}
		fn(v)
	}
}

// ReadOnlySet is the full bucket array for simple (read-only) mode.
// Its byte contents may be backed by a single memory mapping of the
// database file's bucket region rather than copied into the heap.
type ReadOnlySet struct {
	buckets [NumBuckets]ReadOnlyBucket
	region  *mmap.Mapping // owns the mapping, if any, for Close
}

// NewReadOnlySet creates an empty read-only bucket set, to be filled via Add
// during load and then Freeze.
func NewReadOnlySet() *ReadOnlySet {
	return &ReadOnlySet{}
}

// Bucket returns a pointer to the bucket at c.
func (s *ReadOnlySet) Bucket(c Coord) *ReadOnlyBucket {
	return &s.buckets[c.Index()]
}

// Add inserts index into every bucket named by sig for the active channel
// set. Indices must be added in increasing catalog-index order overall.
func (s *ReadOnlySet) Add(sigv [3][40]int32, index uint32, grayscale bool) {
	channels := 3
	if grayscale {
		channels = 1
	}
	for c := 0; c < channels; c++ {
		for k := 0; k < 40; k++ {
			s.Bucket(FromSigned(c, sigv[c][k])).Add(index)
		}
	}
}

// FreezeAll finalizes every bucket after a load pass.
func (s *ReadOnlySet) FreezeAll() {
	for i := range s.buckets {
		s.buckets[i].Freeze()
	}
}

// Sizes returns the entry count of every bucket in index order, for
// coeff_stats and for the informational bucket-size table written on save.
func (s *ReadOnlySet) Sizes() []uint32 {
	sizes := make([]uint32, NumBuckets)
	for i := range s.buckets {
		sizes[i] = uint32(s.buckets[i].Len())
	}
	return sizes
}

// SetMappedRegion records the mmap backing bucket byte windows, so Close can
// release it once the set is no longer needed.
func (s *ReadOnlySet) SetMappedRegion(m *mmap.Mapping) {
	s.region = m
}

// Close releases any owned memory mapping.
func (s *ReadOnlySet) Close() error {
	if s.region == nil {
		return nil
	}
	return s.region.Close()
}
