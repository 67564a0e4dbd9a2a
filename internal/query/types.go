package query

import "github.com/r888888888/iqdb/internal/sig"

// Flags mirrors the query option bitmask of spec.md §4.3.
type Flags struct {
	Sketch    bool // use the hand-drawn weight table instead of the natural-image one
	Uniqueset bool // at most one result per distinct Set tag
	NoCommon  bool // skip buckets containing more than 10% of the catalog
	Fast      bool // only score k=0 (the single strongest coefficient per channel)
	Mask      bool // apply the (entry.mask & MaskAnd) == MaskXor predicate
}

// Request is one query's input.
type Request struct {
	Sig      sig.ImgData
	N        int
	Flags    Flags
	MaskAnd  uint16
	MaskXor  uint16
}

// Result is one ranked hit, per spec.md §4.3's sim_value.
type Result struct {
	ID            uint64
	Score         float64
	Width, Height uint32
}
