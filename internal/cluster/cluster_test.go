package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinSimThreshold_FlatScoresNeverCrossFloor(t *testing.T) {
	scores := []float64{5.05, 5.02, 5.0, 4.98, 4.95}
	_, ok := MinSimThreshold(scores, 5.0)
	assert.False(t, ok)
}

func TestMinSimThreshold_JumpProducesThresholdAboveNoise(t *testing.T) {
	// Descending: nine near-duplicates far above a tight band of noise.
	scores := []float64{95, 95, 95, 95, 95, 95, 95, 95, 95, 10.0, 9.5, 9.0, 8.5, 8.0, 7.5}
	threshold, ok := MinSimThreshold(scores, 5.0)
	require.True(t, ok)
	assert.Greater(t, threshold, 10.0)
	assert.Less(t, threshold, 95.0)
}

// buildGroupFixture constructs 30 ids where the first 10 form a tight
// near-duplicate group (mutual similarity 95) and the remaining 20 are
// mutually dissimilar noise whose neighbor scores never develop enough
// spread to cross the stddev floor.
func buildGroupFixture() (ids []uint64, neighbors NeighborFn, pairSim PairSimFn) {
	ids = make([]uint64, 30)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}
	group := make(map[uint64]bool, 10)
	for i := 0; i < 10; i++ {
		group[ids[i]] = true
	}

	neighbors = func(id uint64) ([]Neighbor, error) {
		var res []Neighbor
		if group[id] {
			for _, other := range ids[:10] {
				if other != id {
					res = append(res, Neighbor{ID: other, Score: 95})
				}
			}
			noise := []float64{10.0, 9.5, 9.0, 8.5, 8.0, 7.5}
			for i, s := range noise {
				res = append(res, Neighbor{ID: ids[10+i], Score: s})
			}
			return res, nil
		}
		// Noise ids: tightly clustered scores against other noise ids, never
		// exceeding the stddev floor.
		for i := 10; i < 25 && len(res) < 15; i++ {
			other := ids[i]
			if other == id {
				continue
			}
			res = append(res, Neighbor{ID: other, Score: 5.0 + 0.01*float64(len(res))})
		}
		return res, nil
	}

	pairSim = func(a, b uint64) (float64, error) {
		return 95, nil
	}
	return ids, neighbors, pairSim
}

func TestDiscover_FindsOneDuplicateCluster(t *testing.T) {
	ids, neighbors, pairSim := buildGroupFixture()

	clusters, err := Discover(ids, 15, 5.0, neighbors, pairSim)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Members, 10)
	assert.Equal(t, uint64(1), clusters[0].Representative)

	seen := make(map[uint64]bool)
	for _, m := range clusters[0].Members {
		seen[m] = true
	}
	for i := 1; i <= 10; i++ {
		assert.True(t, seen[uint64(i)], "id %d should be in the cluster", i)
	}
}

func TestDiscover_NoNeighborsMeansNoClusters(t *testing.T) {
	ids := []uint64{1, 2, 3}
	neighbors := func(id uint64) ([]Neighbor, error) { return nil, nil }
	pairSim := func(a, b uint64) (float64, error) { return 0, nil }

	clusters, err := Discover(ids, 5, 5.0, neighbors, pairSim)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}
