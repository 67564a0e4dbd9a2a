package iqdb

import "github.com/r888888888/iqdb/internal/cluster"

// Cluster is one discovered group of near-duplicate images.
type Cluster = cluster.Cluster

// DiscoverDuplicates runs spec.md §4.6's duplicate-cluster discovery over
// ids using db's own Query/QueryByID as the similarity source, so
// clustering always agrees with whatever a direct query would return. k
// bounds how many neighbors are considered per image; minStddevFloor is
// the adaptive-threshold floor below which an image's neighbor scores are
// treated as too uniform to link (spec.md §4.6 step 2).
func DiscoverDuplicates(db Database, ids []uint64, k int, minStddevFloor float64) ([]Cluster, error) {
	neighbors := func(id uint64) ([]cluster.Neighbor, error) {
		results, err := db.QueryByID(id, k+1, Flags{})
		if err != nil {
			return nil, err
		}
		out := make([]cluster.Neighbor, 0, len(results))
		for _, r := range results {
			if r.ID == id {
				continue
			}
			out = append(out, cluster.Neighbor{ID: r.ID, Score: r.Score})
		}
		return out, nil
	}

	pairSim := func(a, b uint64) (float64, error) {
		results, err := db.QueryByID(a, len(ids), Flags{})
		if err != nil {
			return 0, err
		}
		for _, r := range results {
			if r.ID == b {
				return r.Score, nil
			}
		}
		return 0, nil
	}

	return cluster.Discover(ids, k, minStddevFloor, neighbors, pairSim)
}
