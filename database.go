package iqdb

import "github.com/r888888888/iqdb/internal/sig"

// Database is the capability set every mode implements, per spec.md §9's
// "one polymorphic interface with the capability set {query, add, remove,
// save, load, stats, rehash}". Concrete modes (Normal, Simple, Alter) share
// this interface but not their internal representation; a call not valid
// in the receiver's current mode returns an *Error of KindRecoverableUsage
// rather than panicking or being compiled away, matching spec.md §4.8's
// failure semantics.
type Database interface {
	// Add inserts a decoded image under id, computing its signature and
	// populating every bucket it touches.
	Add(id uint64, img Image) error

	// Remove deletes id. In Simple mode this tombstones the catalog entry
	// without touching buckets; in Alter mode it defers the removal to the
	// next Save.
	Remove(id uint64) error

	// SetResolution updates the stored width/height for id without
	// recomputing its signature.
	SetResolution(id uint64, width, height uint32) error

	// Query ranks the catalog against an arbitrary signature.
	Query(s sig.ImgData, n int, flags Flags) ([]Result, error)

	// QueryByID ranks the catalog against an already-stored image's
	// signature.
	QueryByID(id uint64, n int, flags Flags) ([]Result, error)

	// Count returns the number of live (non-removed) images.
	Count() int

	// ListIDs returns every live image id, in catalog order.
	ListIDs() []uint64

	// ListInfo returns metadata for every live image, in catalog order.
	ListInfo() []ImageInfo

	// Has reports whether id is present and not removed.
	Has(id uint64) bool

	// Diff computes a direct, bucket-free distance between two catalog
	// entries, where identical signatures score 0 and less similar pairs
	// score higher; pairs whose average colors differ can score above 100.
	// Lower is more similar.
	Diff(id1, id2 uint64, ignoreColor bool) (float64, error)

	// Rehash rebuilds every bucket from the catalog's signatures.
	Rehash() error

	// Save persists the database to path, atomically.
	Save(path string) error

	// CoeffStats returns the entry count of every non-empty bucket. Entries
	// tombstoned in Simple mode, and Alter-mode removals not yet saved, are
	// still counted.
	CoeffStats() []BucketStat

	// Close releases scratch files, memory mappings and caches. The
	// instance must not be used afterward.
	Close() error
}
