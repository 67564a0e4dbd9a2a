package catalog

import (
	"testing"

	"github.com/r888888888/iqdb/internal/sig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSig(id uint64) sig.ImgData {
	var d sig.ImgData
	d.ID = id
	d.Width, d.Height = 100, 100
	for c := 0; c < 3; c++ {
		d.AvgLF[c] = 0.1 * float64(c+1)
		for k := 0; k < sig.NumCoeffs; k++ {
			d.Sig[c][k] = int32(k + 1 + c*sig.NumCoeffs)
		}
	}
	return d
}

func TestMutable_AddAndLookup(t *testing.T) {
	c := NewMutable(NewMemoryCache())
	idx, err := c.Add(10, ImageInfo{Width: 100, Height: 100}, testSig(10))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	got, ok := c.At(0)
	require.True(t, ok)
	assert.EqualValues(t, 10, got.ID)

	gotIdx, ok := c.IndexByID(10)
	require.True(t, ok)
	assert.Equal(t, 0, gotIdx)

	d, err := c.SigByID(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), d.ID)
}

func TestMutable_AddDuplicateFails(t *testing.T) {
	c := NewMutable(NewMemoryCache())
	_, err := c.Add(10, ImageInfo{}, testSig(10))
	require.NoError(t, err)

	_, err = c.Add(10, ImageInfo{}, testSig(10))
	require.Error(t, err)
	var dup *ErrDuplicateID
	require.ErrorAs(t, err, &dup)
}

func TestMutable_RemoveLeavesHole(t *testing.T) {
	c := NewMutable(NewMemoryCache())
	_, _ = c.Add(1, ImageInfo{}, testSig(1))
	_, _ = c.Add(2, ImageInfo{}, testSig(2))

	idx, ok := c.Remove(1)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.NextIndex())

	_, ok = c.At(0)
	assert.False(t, ok)

	ids := c.ListIDs()
	assert.Equal(t, []uint64{2}, ids)
}

func TestFileCache_RoundTrip(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	d := testSig(99)
	require.NoError(t, cache.Put(3, d))

	got, err := cache.Get(3)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, d.Sig, got.Sig)
}

func TestReadOnly_TombstoneHidesButKeepsIndex(t *testing.T) {
	c := NewReadOnly()
	c.SetSigReader(func(index int) (sig.ImgData, error) { return testSig(uint64(index)), nil })

	idx1, err := c.Add(ImageInfo{ID: 1, Avgl: [3]int32{1, 0, 0}})
	require.NoError(t, err)
	idx2, err := c.Add(ImageInfo{ID: 2, Avgl: [3]int32{1, 0, 0}})
	require.NoError(t, err)

	require.True(t, c.Tombstone(1))
	assert.False(t, c.Has(1))
	assert.True(t, c.Has(2))

	info, ok := c.At(idx1)
	require.True(t, ok)
	assert.True(t, info.Deleted())

	info2, ok := c.At(idx2)
	require.True(t, ok)
	assert.False(t, info2.Deleted())

	assert.Equal(t, []uint64{2}, c.ListIDs())
}

func TestReadOnly_DuplicateAddFails(t *testing.T) {
	c := NewReadOnly()
	_, err := c.Add(ImageInfo{ID: 5})
	require.NoError(t, err)

	_, err = c.Add(ImageInfo{ID: 5})
	require.Error(t, err)
}
