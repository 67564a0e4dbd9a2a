package iqdb_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/r888888888/iqdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gridBytes = 128 * 128 * 3

func randomRGB(seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	buf := make([]byte, gridBytes)
	rng.Read(buf)
	return buf
}

func newImage(rgb []byte) iqdb.Image {
	return iqdb.Image{RGB: rgb, Width: 128, Height: 128}
}

func TestNormal_SelfQueryReturnsItselfFirst(t *testing.T) {
	db := iqdb.NewNormal()
	defer db.Close()

	rgb := randomRGB(1)
	require.NoError(t, db.Add(1, newImage(rgb)))
	require.NoError(t, db.Add(2, newImage(randomRGB(2))))
	require.NoError(t, db.Add(3, newImage(randomRGB(3))))

	sigData, err := iqdb.BuildSignature(0, newImage(rgb))
	require.NoError(t, err)

	results, err := db.Query(sigData, 3, iqdb.Flags{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(1), results[0].ID)
}

func TestNormal_QueryByID_MatchesItself(t *testing.T) {
	db := iqdb.NewNormal()
	defer db.Close()

	require.NoError(t, db.Add(1, newImage(randomRGB(10))))
	require.NoError(t, db.Add(2, newImage(randomRGB(20))))

	results, err := db.QueryByID(1, 2, iqdb.Flags{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(1), results[0].ID)
}

func TestNormal_RemoveThenQuery_NoLongerFound(t *testing.T) {
	db := iqdb.NewNormal()
	defer db.Close()

	rgb := randomRGB(5)
	require.NoError(t, db.Add(1, newImage(rgb)))
	require.NoError(t, db.Remove(1))
	assert.False(t, db.Has(1))
	assert.Equal(t, 0, db.Count())

	sigData, err := iqdb.BuildSignature(0, newImage(rgb))
	require.NoError(t, err)
	results, err := db.Query(sigData, 1, iqdb.Flags{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNormal_AddDuplicateID_Errors(t *testing.T) {
	db := iqdb.NewNormal()
	defer db.Close()

	require.NoError(t, db.Add(1, newImage(randomRGB(1))))
	err := db.Add(1, newImage(randomRGB(2)))
	require.Error(t, err)
	var ierr *iqdb.Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, iqdb.KindRecoverableParam, ierr.Kind)
}

func TestSaveLoad_NormalRoundTrip_PreservesQueryBehavior(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.iqdb")

	db := iqdb.NewNormal()
	rgb := randomRGB(42)
	require.NoError(t, db.Add(1, newImage(rgb)))
	require.NoError(t, db.Add(2, newImage(randomRGB(43))))
	require.NoError(t, db.Save(path))
	require.NoError(t, db.Close())

	reopened, err := iqdb.OpenNormal(path, iqdb.WithScratchDir(dir))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 2, reopened.Count())
	sigData, err := iqdb.BuildSignature(0, newImage(rgb))
	require.NoError(t, err)
	results, err := reopened.Query(sigData, 2, iqdb.Flags{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(1), results[0].ID)
}

func TestSaveLoad_SimpleModeIsReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.iqdb")

	db := iqdb.NewNormal()
	rgb := randomRGB(7)
	require.NoError(t, db.Add(1, newImage(rgb)))
	require.NoError(t, db.Save(path))
	require.NoError(t, db.Close())

	simple, err := iqdb.OpenSimple(path)
	require.NoError(t, err)
	defer simple.Close()

	assert.Equal(t, 1, simple.Count())

	err = simple.Save(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, iqdb.ErrModeUnsupported)

	err = simple.Rehash()
	require.Error(t, err)
	var ierr *iqdb.Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, iqdb.KindRecoverableUsage, ierr.Kind)

	// Remove only tombstones; the entry is hidden but keeps its catalog index.
	require.NoError(t, simple.Remove(1))
	assert.False(t, simple.Has(1))
	assert.Equal(t, 0, simple.Count())
}

func TestAlter_QueryIsRefused(t *testing.T) {
	db := iqdb.NewAlter()
	defer db.Close()

	require.NoError(t, db.Add(1, newImage(randomRGB(1))))
	_, err := db.QueryByID(1, 1, iqdb.Flags{})
	require.Error(t, err)
	assert.ErrorIs(t, err, iqdb.ErrModeUnsupported)
}

func TestAlter_AddRemoveSaveReopenAdd_CompactsCorrectly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.iqdb")

	db := iqdb.NewAlter(iqdb.WithScratchDir(dir))
	for i := uint64(1); i <= 50; i++ {
		require.NoError(t, db.Add(i, newImage(randomRGB(int64(i)))))
	}
	for i := uint64(1); i <= 4; i++ {
		require.NoError(t, db.Remove(i))
	}
	require.NoError(t, db.Save(path))
	require.NoError(t, db.Close())

	reopened, err := iqdb.OpenAlter(path, iqdb.WithScratchDir(dir))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 46, reopened.Count())
	for i := uint64(51); i <= 100; i++ {
		require.NoError(t, reopened.Add(i, newImage(randomRGB(int64(i)))))
	}
	assert.Equal(t, 96, reopened.Count())
}

func TestDiscoverDuplicates_FindsNearDuplicateGroup(t *testing.T) {
	db := iqdb.NewNormal()
	defer db.Close()

	dup := randomRGB(999)
	var ids []uint64
	for i := uint64(1); i <= 10; i++ {
		require.NoError(t, db.Add(i, newImage(dup)))
		ids = append(ids, i)
	}
	for i := uint64(11); i <= 15; i++ {
		require.NoError(t, db.Add(i, newImage(randomRGB(int64(i)*7+3))))
		ids = append(ids, i)
	}

	clusters, err := iqdb.DiscoverDuplicates(db, ids, 9, 5.0)
	require.NoError(t, err)
	require.NotEmpty(t, clusters)

	var dupCluster *iqdb.Cluster
	for i := range clusters {
		if len(clusters[i].Members) == 10 {
			dupCluster = &clusters[i]
			break
		}
	}
	require.NotNil(t, dupCluster, "expected a 10-member cluster among %v", clusters)

	seen := make(map[uint64]bool)
	for _, m := range dupCluster.Members {
		seen[m] = true
	}
	for i := uint64(1); i <= 10; i++ {
		assert.True(t, seen[i], "id %d should be in the duplicate cluster", i)
	}
}
