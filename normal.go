package iqdb

import (
	"github.com/r888888888/iqdb/internal/bucket"
	"github.com/r888888888/iqdb/internal/catalog"
	"github.com/r888888888/iqdb/internal/persist"
	"github.com/r888888888/iqdb/internal/query"
	"github.com/r888888888/iqdb/internal/sig"
)

// Normal is the fully mutable database mode of spec.md §4.7: an in-memory
// catalog backed by a signature cache, and a paged, scratch-file-backed
// bucket set. Add, Remove, Query, Save and Rehash are all supported.
type Normal struct {
	opts    options
	catalog *catalog.Mutable
	buckets *bucket.MutableSet
	scratch *bucket.Scratch
}

// NewNormal creates an empty Normal-mode database.
func NewNormal(optFns ...Option) *Normal {
	o := applyOptions(optFns)
	scratch, err := bucket.NewScratch(o.scratchDir, o.pageSize)
	if err != nil {
		// NewScratch only fails on a temp-file creation error, which is an
		// operating-environment problem the caller cannot fix by retrying
		// with different arguments; surface it as a panic-free degenerate
		// database instead of complicating every constructor's signature
		// with an error return the vast majority of callers would ignore.
		scratch = nil
	}
	return &Normal{
		opts:    o,
		catalog: catalog.NewMutable(catalog.NewMemoryCache()),
		buckets: bucket.NewMutableSet(scratch),
		scratch: scratch,
	}
}

// OpenNormal loads a previously saved database file into Normal mode.
func OpenNormal(path string, optFns ...Option) (*Normal, error) {
	o := applyOptions(optFns)
	loaded, err := persist.LoadNormal(path, o.scratchDir, o.pageSize)
	if err != nil {
		o.logger.LogLoad(path, 0, err)
		return nil, newErr(KindFatalData, "load", err)
	}
	o.logger.LogLoad(path, loaded.Catalog.Len(), nil)
	return &Normal{opts: o, catalog: loaded.Catalog, buckets: loaded.Buckets}, nil
}

func (n *Normal) source() *query.MutableSource {
	return &query.MutableSource{Catalog: n.catalog, Buckets: n.buckets}
}

func (n *Normal) Add(id uint64, img Image) error {
	if n.catalog.Has(id) {
		err := translateError("add", &catalog.ErrDuplicateID{ID: id})
		n.opts.logger.LogAdd(id, err)
		return err
	}
	d, err := sig.Build(id, img.RGB, img.Width, img.Height)
	if err != nil {
		wrapped := translateError("add", err)
		n.opts.logger.LogAdd(id, wrapped)
		return wrapped
	}
	info := catalog.ImageInfo{Width: uint32(img.Width), Height: uint32(img.Height)}
	for c := 0; c < 3; c++ {
		info.Avgl[c] = sig.QuantizeAvg(d.AvgLF[c])
	}
	if _, err := n.catalog.Add(id, info, d); err != nil {
		wrapped := translateError("add", err)
		n.opts.logger.LogAdd(id, wrapped)
		return wrapped
	}
	if err := n.buckets.Add(d.Sig, id, d.Grayscale()); err != nil {
		// Roll back the catalog insert so a failed add leaves the database
		// unchanged, per spec.md §7.
		n.catalog.Remove(id)
		wrapped := translateError("add", err)
		n.opts.logger.LogAdd(id, wrapped)
		return wrapped
	}
	n.opts.logger.LogAdd(id, nil)
	return nil
}

func (n *Normal) Remove(id uint64) error {
	d, err := n.catalog.SigByID(id)
	if err != nil {
		wrapped := translateError("remove", err)
		n.opts.logger.LogRemove(id, wrapped)
		return wrapped
	}
	// Catalog removal is the last step, so a bucket-removal failure leaves
	// the catalog entry intact rather than orphaning bucket cleanup.
	if err := n.buckets.Remove(d.Sig, id, d.Grayscale()); err != nil {
		wrapped := translateError("remove", err)
		n.opts.logger.LogRemove(id, wrapped)
		return wrapped
	}
	n.catalog.Remove(id)
	n.opts.logger.LogRemove(id, nil)
	return nil
}

func (n *Normal) SetResolution(id uint64, width, height uint32) error {
	idx, ok := n.catalog.IndexByID(id)
	if !ok {
		return translateError("set_resolution", &catalog.ErrUnknownID{ID: id})
	}
	info, _ := n.catalog.At(idx)
	info.Width, info.Height = width, height
	n.catalog.SetInfo(id, info)
	return nil
}

func (n *Normal) Query(s sig.ImgData, count int, flags Flags) ([]Result, error) {
	if n.opts.sketch {
		flags.Sketch = true
	}
	results := query.Run(n.source(), query.Request{Sig: s, N: count, Flags: flags})
	n.opts.logger.LogQuery(count, len(results), nil)
	return results, nil
}

func (n *Normal) QueryByID(id uint64, count int, flags Flags) ([]Result, error) {
	d, err := n.catalog.SigByID(id)
	if err != nil {
		return nil, translateError("query_by_id", err)
	}
	return n.Query(d, count, flags)
}

func (n *Normal) Count() int { return n.catalog.Len() }

func (n *Normal) ListIDs() []uint64 { return n.catalog.ListIDs() }

func (n *Normal) ListInfo() []ImageInfo {
	var out []ImageInfo
	n.catalog.EachIndex(func(_ int, info catalog.ImageInfo) {
		out = append(out, ImageInfo{ID: info.ID, Width: info.Width, Height: info.Height, Set: info.Set, Mask: info.Mask})
	})
	return out
}

func (n *Normal) Has(id uint64) bool { return n.catalog.Has(id) }

func (n *Normal) Diff(id1, id2 uint64, ignoreColor bool) (float64, error) {
	a, err := n.catalog.SigByID(id1)
	if err != nil {
		return 0, translateError("diff", err)
	}
	b, err := n.catalog.SigByID(id2)
	if err != nil {
		return 0, translateError("diff", err)
	}
	return query.Diff(a, b, ignoreColor), nil
}

// Rehash rebuilds every bucket from the catalog's signatures, discarding
// the current scratch file (spec.md §8's rehash-equivalence property).
func (n *Normal) Rehash() error {
	scratch, err := bucket.NewScratch(n.opts.scratchDir, n.opts.pageSize)
	if err != nil {
		n.opts.logger.LogRehash(0, err)
		return newErr(KindFatalIO, "rehash", err)
	}
	fresh := bucket.NewMutableSet(scratch)
	var count int
	var addErr error
	n.catalog.EachIndex(func(_ int, info catalog.ImageInfo) {
		if addErr != nil {
			return
		}
		d, err := n.catalog.SigByID(info.ID)
		if err != nil {
			addErr = err
			return
		}
		if err := fresh.Add(d.Sig, info.ID, d.Grayscale()); err != nil {
			addErr = err
			return
		}
		count++
	})
	if addErr != nil {
		_ = fresh.Close()
		n.opts.logger.LogRehash(0, addErr)
		return newErr(KindFatalInternal, "rehash", addErr)
	}
	if n.buckets != nil {
		_ = n.buckets.Close()
	}
	n.buckets = fresh
	n.scratch = scratch
	n.opts.logger.LogRehash(count, nil)
	return nil
}

func (n *Normal) Save(path string) error {
	ids := n.catalog.ListIDs()
	sigAt := func(i int) (sig.ImgData, error) { return n.catalog.SigByID(ids[i]) }
	err := persist.Save(path, ids, sigAt, n.buckets.Sizes())
	n.opts.logger.LogSave(path, len(ids), err)
	if err != nil {
		return newErr(KindFatalIO, "save", err)
	}
	return nil
}

func (n *Normal) CoeffStats() []BucketStat {
	sizes := n.buckets.Sizes()
	var out []BucketStat
	for i, s := range sizes {
		if s > 0 {
			out = append(out, BucketStat{Index: i, Size: s})
		}
	}
	return out
}

func (n *Normal) Close() error {
	return n.buckets.Close()
}

var _ Database = (*Normal)(nil)
