package query

import (
	"github.com/r888888888/iqdb/internal/bucket"
	"github.com/r888888888/iqdb/internal/catalog"
)

// Source abstracts catalog and bucket access so the scoring algorithm in
// engine.go runs identically over mutable (normal/alter) and read-only
// (simple) storage, which otherwise share no concrete type (spec.md §9).
type Source interface {
	// NextIndex is the size the score buffer must cover.
	NextIndex() int
	// At returns the metadata for a catalog index, or ok=false if the index
	// was never assigned or is a hole left by a removal.
	At(index int) (info catalog.ImageInfo, ok bool)
	// BucketLen returns the number of entries in the named bucket, without
	// materializing them; used for the nocommon threshold.
	BucketLen(c bucket.Coord) int
	// EachInBucket calls fn with the catalog index of every entry in the
	// named bucket.
	EachInBucket(c bucket.Coord, fn func(index int))
}

// MutableSource adapts a mutable catalog + bucket set (normal/alter mode),
// translating bucket contents from image ids to catalog indices.
type MutableSource struct {
	Catalog *catalog.Mutable
	Buckets *bucket.MutableSet
}

func (s *MutableSource) NextIndex() int { return s.Catalog.NextIndex() }

func (s *MutableSource) At(index int) (catalog.ImageInfo, bool) {
	return s.Catalog.At(index)
}

func (s *MutableSource) BucketLen(c bucket.Coord) int {
	b := s.Buckets.Bucket(c)
	if b == nil {
		return 0
	}
	return b.Len()
}

func (s *MutableSource) EachInBucket(c bucket.Coord, fn func(index int)) {
	b := s.Buckets.Bucket(c)
	if b == nil {
		return
	}
	_ = b.Each(func(id uint64) {
		if idx, ok := s.Catalog.IndexByID(id); ok {
			fn(idx)
		}
	})
}

// ReadOnlySource adapts a read-only catalog + bucket set (simple mode),
// where bucket contents are already catalog indices.
type ReadOnlySource struct {
	Catalog *catalog.ReadOnly
	Buckets *bucket.ReadOnlySet
}

func (s *ReadOnlySource) NextIndex() int { return s.Catalog.NextIndex() }

func (s *ReadOnlySource) At(index int) (catalog.ImageInfo, bool) {
	return s.Catalog.At(index)
}

func (s *ReadOnlySource) BucketLen(c bucket.Coord) int {
	return s.Buckets.Bucket(c).Len()
}

func (s *ReadOnlySource) EachInBucket(c bucket.Coord, fn func(index int)) {
	s.Buckets.Bucket(c).Each(func(idx uint32) {
		fn(int(idx))
	})
}
