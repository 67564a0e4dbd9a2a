package bucket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoord_FromSigned(t *testing.T) {
	c := FromSigned(1, 42)
	assert.Equal(t, Coord{Channel: 1, Sign: 0, Magnitude: 42}, c)

	c = FromSigned(1, -42)
	assert.Equal(t, Coord{Channel: 1, Sign: 1, Magnitude: 42}, c)
}

func TestCoord_IndexIsWithinRange(t *testing.T) {
	for channel := 0; channel < NumChannels; channel++ {
		for sign := 0; sign < NumSigns; sign++ {
			c := Coord{Channel: channel, Sign: sign, Magnitude: MaxMagnitude - 1}
			require.Less(t, c.Index(), NumBuckets)
			require.GreaterOrEqual(t, c.Index(), 0)
		}
	}
}

func TestMutableBucket_AddAndEach(t *testing.T) {
	store, err := NewScratch(t.TempDir(), 4096)
	require.NoError(t, err)
	defer store.Close()

	b := newMutableBucket(store)
	for id := uint64(1); id <= 300; id++ { // exceeds the flush threshold
		require.NoError(t, b.Add(id))
	}
	assert.Equal(t, 300, b.Len())

	var got []uint64
	require.NoError(t, b.Each(func(id uint64) { got = append(got, id) }))
	require.Len(t, got, 300)
	assert.EqualValues(t, 1, got[0])
	assert.EqualValues(t, 300, got[299])
}

func TestMutableBucket_RemoveFromTailAndPage(t *testing.T) {
	store, err := NewScratch(t.TempDir(), 4096)
	require.NoError(t, err)
	defer store.Close()

	b := newMutableBucket(store)
	for id := uint64(1); id <= 200; id++ {
		require.NoError(t, b.Add(id))
	}
	// 200 > MutableFlushThreshold: ids 1..128 were paged out and 129..200
	// are still in the tail, so 150 is removed from the tail.
	ok, err := b.Remove(150)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 199, b.Len())

	for i := 0; i < 200; i++ {
		require.NoError(t, b.Add(uint64(1000+i))) // forces at least one flush
	}
	ok, err = b.Remove(uint64(1050))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Remove(999999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMutableSet_AddRemoveRoundTrip(t *testing.T) {
	store, err := NewScratch(t.TempDir(), 4096)
	require.NoError(t, err)
	defer store.Close()

	set := NewMutableSet(store)
	var sig [3][40]int32
	for c := 0; c < 3; c++ {
		for k := 0; k < 40; k++ {
			sig[c][k] = int32((c*40 + k + 1))
		}
	}
	require.NoError(t, set.Add(sig, 7, false))

	for c := 0; c < 3; c++ {
		for k := 0; k < 40; k++ {
			b := set.Bucket(FromSigned(c, sig[c][k]))
			require.NotNil(t, b)
			assert.Equal(t, 1, b.Len())
		}
	}

	require.NoError(t, set.Remove(sig, 7, false))
	for c := 0; c < 3; c++ {
		for k := 0; k < 40; k++ {
			b := set.Bucket(FromSigned(c, sig[c][k]))
			assert.Equal(t, 0, b.Len())
		}
	}
}

func TestMutableSet_GrayscaleOnlyTouchesChannelZero(t *testing.T) {
	store, err := NewScratch(t.TempDir(), 4096)
	require.NoError(t, err)
	defer store.Close()

	set := NewMutableSet(store)
	var sig [3][40]int32
	for c := 0; c < 3; c++ {
		for k := 0; k < 40; k++ {
			sig[c][k] = int32(c*40 + k + 1)
		}
	}
	require.NoError(t, set.Add(sig, 1, true))

	assert.Equal(t, 1, set.Bucket(FromSigned(0, sig[0][0])).Len())
	assert.Nil(t, set.Bucket(FromSigned(1, sig[1][0])))
	assert.Nil(t, set.Bucket(FromSigned(2, sig[2][0])))
}

func TestReadOnlyBucket_FreezeAndEach(t *testing.T) {
	var b ReadOnlyBucket
	for _, v := range []uint32{1, 2, 300, 301, 100000} {
		b.Add(v)
	}
	b.Freeze()

	var got []uint32
	b.Each(func(v uint32) { got = append(got, v) })
	assert.Equal(t, []uint32{1, 2, 300, 301, 100000}, got)
}

func TestReadOnlyBucket_AddAfterFreezePreservesPriorContents(t *testing.T) {
	var b ReadOnlyBucket
	b.Add(1)
	b.Add(2)
	b.Freeze()

	b.Add(3)
	var got []uint32
	b.Each(func(v uint32) { got = append(got, v) })
	assert.Equal(t, []uint32{1, 2, 3}, got)
}

func TestReadOnlySet_AddFreezeSizes(t *testing.T) {
	set := NewReadOnlySet()
	var sig [3][40]int32
	for c := 0; c < 3; c++ {
		for k := 0; k < 40; k++ {
			sig[c][k] = int32(c*40 + k + 1)
		}
	}
	set.Add(sig, 0, false)
	set.Add(sig, 1, false)
	set.FreezeAll()

	sizes := set.Sizes()
	assert.Equal(t, uint32(2), sizes[FromSigned(0, sig[0][0]).Index()])
}
