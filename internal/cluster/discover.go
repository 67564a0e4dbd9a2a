package cluster

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Neighbor is one similarity result used to feed the linking pass.
type Neighbor struct {
	ID    uint64
	Score float64 // similarity, 0..100, descending order expected within a call
}

// NeighborFn returns the k nearest neighbors of id, sorted by descending
// similarity — the shape spec.md's query engine already produces.
type NeighborFn func(id uint64) ([]Neighbor, error)

// PairSimFn returns the similarity between two specific images, used to
// pick a cluster representative once membership is known.
type PairSimFn func(a, b uint64) (float64, error)

// Cluster is one non-trivial (>1 member) equivalence class, ordered by
// similarity to its representative.
type Cluster struct {
	Representative uint64
	Members        []uint64 // representative first, then descending similarity to it
	SortKey        float64  // representative-to-next similarity, used to order clusters
}

// Discover runs spec.md §4.6 end to end: for every id, query its k nearest
// neighbors, derive an adaptive threshold, and union id with every neighbor
// scoring at or above that threshold. Non-trivial equivalence classes are
// resolved into Clusters via pairSim, sorted by descending SortKey.
func Discover(ids []uint64, k int, minStddevFloor float64, neighbors NeighborFn, pairSim PairSimFn) ([]Cluster, error) {
	idIndex := make(map[uint64]int, len(ids))
	for i, id := range ids {
		idIndex[id] = i
	}

	uf := newUnionFind(len(ids))

	for i, id := range ids {
		res, err := neighbors(id)
		if err != nil {
			return nil, err
		}
		if len(res) > k {
			res = res[:k]
		}

		scores := make([]float64, len(res))
		for j, r := range res {
			scores[j] = r.Score
		}
		threshold, ok := MinSimThreshold(scores, minStddevFloor)
		if !ok {
			continue
		}

		for _, r := range res {
			if r.Score < threshold {
				continue
			}
			if j, found := idIndex[r.ID]; found && j != i {
				uf.union(i, j)
			}
		}
	}

	groups := make(map[int]*roaring.Bitmap)
	for i := range ids {
		root := uf.find(i)
		bm, ok := groups[root]
		if !ok {
			bm = roaring.New()
			groups[root] = bm
		}
		bm.Add(uint32(i))
	}

	var clusters []Cluster
	for _, bm := range groups {
		if bm.GetCardinality() < 2 {
			continue
		}
		members := bm.ToArray()
		memberIDs := make([]uint64, len(members))
		for i, m := range members {
			memberIDs[i] = ids[m]
		}

		c, err := buildCluster(memberIDs, pairSim)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, c)
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].SortKey > clusters[j].SortKey
	})

	return clusters, nil
}

// buildCluster picks the representative with the highest total
// intra-cluster similarity, then orders the rest by descending similarity
// to it, per spec.md §4.6 step "For each non-trivial cluster...".
func buildCluster(memberIDs []uint64, pairSim PairSimFn) (Cluster, error) {
	n := len(memberIDs)
	sims := make([][]float64, n)
	for i := range sims {
		sims[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s, err := pairSim(memberIDs[i], memberIDs[j])
			if err != nil {
				return Cluster{}, err
			}
			sims[i][j] = s
			sims[j][i] = s
		}
	}

	repIdx := 0
	bestTotal := -1.0
	for i := 0; i < n; i++ {
		var total float64
		for j := 0; j < n; j++ {
			total += sims[i][j]
		}
		if total > bestTotal {
			bestTotal = total
			repIdx = i
		}
	}

	type ranked struct {
		id  uint64
		sim float64
	}
	others := make([]ranked, 0, n-1)
	for i := 0; i < n; i++ {
		if i == repIdx {
			continue
		}
		others = append(others, ranked{id: memberIDs[i], sim: sims[repIdx][i]})
	}
	sort.Slice(others, func(i, j int) bool { return others[i].sim > others[j].sim })

	members := make([]uint64, 0, n)
	members = append(members, memberIDs[repIdx])
	var sortKey float64
	for i, r := range others {
		members = append(members, r.id)
		if i == 0 {
			sortKey = r.sim
		}
	}

	return Cluster{Representative: memberIDs[repIdx], Members: members, SortKey: sortKey}, nil
}
