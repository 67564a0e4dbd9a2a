package iqdb

import (
	"github.com/r888888888/iqdb/internal/catalog"
	"github.com/r888888888/iqdb/internal/persist"
	"github.com/r888888888/iqdb/internal/query"
	"github.com/r888888888/iqdb/internal/sig"
)

// Simple is the read-only database mode of spec.md §4.7: catalog metadata
// lives in a dense slice, signatures are read lazily out of a single
// memory mapping of the database file, and buckets are delta-encoded,
// frozen after load. Remove only tombstones; Save and Rehash are refused.
type Simple struct {
	opts    options
	catalog *catalog.ReadOnly
	buckets *query.ReadOnlySource
	loaded  *persist.SimpleLoaded
}

// OpenSimple loads a database file into Simple (read-only) mode. Simple
// mode has no Create counterpart per spec.md §4.7 — there is nothing to
// query in a database that was never populated from a file or another mode.
func OpenSimple(path string, optFns ...Option) (*Simple, error) {
	o := applyOptions(optFns)
	loaded, err := persist.LoadSimple(path)
	if err != nil {
		o.logger.LogLoad(path, 0, err)
		return nil, newErr(KindFatalData, "load", err)
	}
	o.logger.LogLoad(path, loaded.Catalog.Len(), nil)
	return &Simple{
		opts:    o,
		catalog: loaded.Catalog,
		buckets: &query.ReadOnlySource{Catalog: loaded.Catalog, Buckets: loaded.Buckets},
		loaded:  loaded,
	}, nil
}

// Add appends a new entry during a load-replay pass. Per spec.md §4.7's
// footnote, this does not re-sort or otherwise rebalance buckets — regular
// runtime inserts belong in Normal mode.
func (s *Simple) Add(id uint64, img Image) error {
	if s.catalog.Has(id) {
		return translateError("add", &catalog.ErrDuplicateID{ID: id})
	}
	d, err := sig.Build(id, img.RGB, img.Width, img.Height)
	if err != nil {
		return translateError("add", err)
	}
	info := catalog.ImageInfo{ID: id, Width: uint32(img.Width), Height: uint32(img.Height)}
	for c := 0; c < 3; c++ {
		info.Avgl[c] = sig.QuantizeAvg(d.AvgLF[c])
	}
	idx, err := s.catalog.Add(info)
	if err != nil {
		return translateError("add", err)
	}
	s.buckets.Buckets.Add(d.Sig, uint32(idx), d.Grayscale())
	return nil
}

// Remove tombstones id (zeroes avgl[0]) without touching buckets, per
// spec.md §3 and §4.7; a tombstoned entry never appears in query results
// again because the scorer skips ImageInfo.Deleted() entries.
func (s *Simple) Remove(id uint64) error {
	if !s.catalog.Tombstone(id) {
		return translateError("remove", &catalog.ErrUnknownID{ID: id})
	}
	return nil
}

func (s *Simple) SetResolution(id uint64, width, height uint32) error {
	return newErr(KindRecoverableUsage, "set_resolution", ErrModeUnsupported)
}

func (s *Simple) Query(sigv sig.ImgData, count int, flags Flags) ([]Result, error) {
	if s.opts.sketch {
		flags.Sketch = true
	}
	results := query.Run(s.buckets, query.Request{Sig: sigv, N: count, Flags: flags})
	return results, nil
}

func (s *Simple) QueryByID(id uint64, count int, flags Flags) ([]Result, error) {
	d, err := s.catalog.SigByID(id)
	if err != nil {
		return nil, translateError("query_by_id", err)
	}
	return s.Query(d, count, flags)
}

func (s *Simple) Count() int { return s.catalog.Len() }

func (s *Simple) ListIDs() []uint64 { return s.catalog.ListIDs() }

func (s *Simple) ListInfo() []ImageInfo {
	var out []ImageInfo
	s.catalog.EachIndex(func(_ int, info catalog.ImageInfo) {
		if info.Deleted() {
			return
		}
		out = append(out, ImageInfo{ID: info.ID, Width: info.Width, Height: info.Height, Set: info.Set, Mask: info.Mask})
	})
	return out
}

func (s *Simple) Has(id uint64) bool { return s.catalog.Has(id) }

func (s *Simple) Diff(id1, id2 uint64, ignoreColor bool) (float64, error) {
	a, err := s.catalog.SigByID(id1)
	if err != nil {
		return 0, translateError("diff", err)
	}
	b, err := s.catalog.SigByID(id2)
	if err != nil {
		return 0, translateError("diff", err)
	}
	return query.Diff(a, b, ignoreColor), nil
}

func (s *Simple) Rehash() error {
	return newErr(KindRecoverableUsage, "rehash", ErrModeUnsupported)
}

func (s *Simple) Save(path string) error {
	return newErr(KindRecoverableUsage, "save", ErrModeUnsupported)
}

func (s *Simple) CoeffStats() []BucketStat {
	sizes := s.buckets.Buckets.Sizes()
	var out []BucketStat
	for i, sz := range sizes {
		if sz > 0 {
			out = append(out, BucketStat{Index: i, Size: sz})
		}
	}
	return out
}

func (s *Simple) Close() error {
	return s.loaded.Close()
}

var _ Database = (*Simple)(nil)
