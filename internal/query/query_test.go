package query

import (
	"testing"

	"github.com/r888888888/iqdb/internal/bucket"
	"github.com/r888888888/iqdb/internal/catalog"
	"github.com/r888888888/iqdb/internal/sig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSig(seed int32) sig.ImgData {
	var d sig.ImgData
	d.ID = uint64(seed)
	d.Width, d.Height = 100, 100
	for c := 0; c < 3; c++ {
		d.AvgLF[c] = 0.1 * float64(c+1)
		for k := 0; k < sig.NumCoeffs; k++ {
			d.Sig[c][k] = seed*1000 + int32(c*sig.NumCoeffs+k) + 1
		}
	}
	return d
}

func newMutableFixture(t *testing.T) (*MutableSource, *catalog.Mutable, *bucket.MutableSet) {
	t.Helper()
	store, err := bucket.NewScratch(t.TempDir(), 4096)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cat := catalog.NewMutable(catalog.NewMemoryCache())
	buckets := bucket.NewMutableSet(store)
	return &MutableSource{Catalog: cat, Buckets: buckets}, cat, buckets
}

func addImage(t *testing.T, src *MutableSource, cat *catalog.Mutable, buckets *bucket.MutableSet, id uint64, d sig.ImgData) {
	t.Helper()
	info := catalog.ImageInfo{Width: d.Width, Height: d.Height}
	for c := 0; c < 3; c++ {
		info.Avgl[c] = sig.QuantizeAvg(d.AvgLF[c])
	}
	_, err := cat.Add(id, info, d)
	require.NoError(t, err)
	require.NoError(t, buckets.Add(d.Sig, id, d.Grayscale()))
}

func TestRun_SelfQueryIsTopResult(t *testing.T) {
	src, cat, buckets := newMutableFixture(t)
	target := makeSig(1)
	addImage(t, src, cat, buckets, 1, target)
	addImage(t, src, cat, buckets, 2, makeSig(2))
	addImage(t, src, cat, buckets, 3, makeSig(3))

	results := Run(src, Request{Sig: target, N: 10})
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(1), results[0].ID)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestRun_DisjointImagesScoreLower(t *testing.T) {
	src, cat, buckets := newMutableFixture(t)
	target := makeSig(1)
	addImage(t, src, cat, buckets, 1, target)
	addImage(t, src, cat, buckets, 2, makeSig(10))

	results := Run(src, Request{Sig: target, N: 10})
	require.Len(t, results, 2)
	byID := map[uint64]float64{}
	for _, r := range results {
		byID[r.ID] = r.Score
	}
	assert.Greater(t, byID[1], byID[2])
}

func TestRun_NoCommonSkipsOverfullBuckets(t *testing.T) {
	src, cat, buckets := newMutableFixture(t)
	target := makeSig(1)
	addImage(t, src, cat, buckets, 1, target)
	for i := uint64(2); i <= 20; i++ {
		addImage(t, src, cat, buckets, i, target) // all share every bucket with id 1
	}

	plain := Run(src, Request{Sig: target, N: 20})
	noCommon := Run(src, Request{Sig: target, N: 20, Flags: Flags{NoCommon: true}})
	require.Len(t, plain, 20)
	require.Len(t, noCommon, 20)
	// With every bucket over the 10% threshold, nocommon degrades to pure
	// DC-term scoring: identical signatures all tie at the same score.
	for i := 1; i < len(noCommon); i++ {
		assert.InDelta(t, noCommon[0].Score, noCommon[i].Score, 1e-9)
	}
}

func TestRun_UniquesetKeepsOneResultPerSet(t *testing.T) {
	src, cat, buckets := newMutableFixture(t)
	target := makeSig(1)
	addImage(t, src, cat, buckets, 1, target)

	d2 := makeSig(2)
	info2 := catalog.ImageInfo{Width: d2.Width, Height: d2.Height, Set: 7}
	for c := 0; c < 3; c++ {
		info2.Avgl[c] = sig.QuantizeAvg(d2.AvgLF[c])
	}
	_, err := cat.Add(2, info2, d2)
	require.NoError(t, err)
	require.NoError(t, buckets.Add(d2.Sig, 2, d2.Grayscale()))

	d3 := makeSig(3)
	info3 := catalog.ImageInfo{Width: d3.Width, Height: d3.Height, Set: 7}
	for c := 0; c < 3; c++ {
		info3.Avgl[c] = sig.QuantizeAvg(d3.AvgLF[c])
	}
	_, err = cat.Add(3, info3, d3)
	require.NoError(t, err)
	require.NoError(t, buckets.Add(d3.Sig, 3, d3.Grayscale()))

	results := Run(src, Request{Sig: target, N: 10, Flags: Flags{Uniqueset: true}})
	setSeen := map[uint16]int{}
	for _, r := range results {
		info, ok := cat.At(mustIndex(t, cat, r.ID))
		require.True(t, ok)
		setSeen[info.Set]++
	}
	for set, count := range setSeen {
		if set != 0 {
			assert.LessOrEqual(t, count, 1)
		}
	}
}

func mustIndex(t *testing.T, cat *catalog.Mutable, id uint64) int {
	t.Helper()
	idx, ok := cat.IndexByID(id)
	require.True(t, ok)
	return idx
}

func TestRun_GrayscaleQueryOnlyScoresChannelZero(t *testing.T) {
	src, cat, buckets := newMutableFixture(t)
	d := makeSig(1)
	d.AvgLF[1], d.AvgLF[2] = 0, 0 // near-zero chrominance makes this grayscale
	addImage(t, src, cat, buckets, 1, d)
	require.True(t, d.Grayscale())

	results := Run(src, Request{Sig: d, N: 1})
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].ID)
	// Only channel 0 buckets were populated; scoring channels 1 and 2 would
	// add unmatched weight to the scale and pull the self-match below 100.
	assert.InDelta(t, 100, results[0].Score, 1e-9)
}

func TestRun_EmptyCatalogReturnsNil(t *testing.T) {
	src, _, _ := newMutableFixture(t)
	results := Run(src, Request{Sig: makeSig(1), N: 5})
	assert.Nil(t, results)
}

func TestDiff_IsSymmetric(t *testing.T) {
	a := makeSig(1)
	b := makeSig(2)
	assert.InDelta(t, Diff(a, b, false), Diff(b, a, false), 1e-9)
}

func TestDiff_IdenticalSignatureIsZero(t *testing.T) {
	a := makeSig(1)
	b := makeSig(1)
	c := makeSig(2)
	assert.InDelta(t, 0, Diff(a, b, false), 1e-9)
	assert.Greater(t, Diff(a, c, false), Diff(a, b, false))
}
