package iqdb

import (
	"github.com/r888888888/iqdb/internal/query"
	"github.com/r888888888/iqdb/internal/sig"
)

// Image is a decoded 128x128 8-bit RGB plane plus the source resolution, the
// collaborator contract spec.md §6 assigns to an external decoder/resizer.
type Image struct {
	RGB           []byte // GridSize*GridSize*3 bytes, row-major
	Width, Height int    // original, pre-resize resolution
}

// Flags mirrors the query option bitmask of spec.md §4.3.
type Flags = query.Flags

// Result is one ranked query hit.
type Result = query.Result

// ImageInfo is the per-image metadata exposed by ListInfo.
type ImageInfo struct {
	ID            uint64
	Width, Height uint32
	Set, Mask     uint16
}

// BucketStat is one entry of the coeff_stats operation: a bucket's flat
// index and how many images it currently holds.
type BucketStat struct {
	Index int
	Size  uint32
}

// BuildSignature computes the perceptual signature for a decoded image,
// exposed so callers can build a signature once and query with it
// repeatedly without inserting it into any database.
func BuildSignature(id uint64, img Image) (sig.ImgData, error) {
	return sig.Build(id, img.RGB, img.Width, img.Height)
}
