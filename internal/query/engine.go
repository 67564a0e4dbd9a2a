package query

import (
	"github.com/r888888888/iqdb/internal/bucket"
	"github.com/r888888888/iqdb/internal/queue"
	"github.com/r888888888/iqdb/internal/sig"
	"github.com/r888888888/iqdb/internal/weights"
)

// activeChannels returns the number of leading channels to score: 1 for a
// grayscale image, 3 otherwise (spec.md §4.1, §4.3).
func activeChannels(grayscale bool) int {
	if grayscale {
		return 1
	}
	return 3
}

// Run executes the scored scan described in spec.md §4.3 against src and
// returns up to req.N results sorted by descending similarity.
func Run(src Source, req Request) []Result {
	n := src.NextIndex()
	if n == 0 || req.N <= 0 {
		return nil
	}

	score := make([]float64, n)
	touched := make([]bool, n) // entries the DC pass initialized; skips holes lazily

	queryGrayscale := req.Sig.Grayscale()
	channels := activeChannels(queryGrayscale)

	sketchIdx := 0
	if req.Flags.Sketch {
		sketchIdx = 1
	}

	// Step 1-2: DC term, scanned over every live catalog entry.
	qAvgl := [3]int32{
		sig.QuantizeAvg(req.Sig.AvgLF[0]),
		sig.QuantizeAvg(req.Sig.AvgLF[1]),
		sig.QuantizeAvg(req.Sig.AvgLF[2]),
	}
	for idx := 0; idx < n; idx++ {
		info, ok := src.At(idx)
		if !ok || info.Deleted() {
			continue
		}
		var s float64
		for c := 0; c < channels; c++ {
			w := weights.Table[sketchIdx][0][c]
			diff := float64(info.Avgl[c] - qAvgl[c])
			if diff < 0 {
				diff = -diff
			}
			s += w * diff
		}
		score[idx] = s
		touched[idx] = true
	}

	// Step 3: coefficient terms.
	scale := 0.0
	limitK := 40
	if req.Flags.Fast {
		limitK = 1
	}

	total := n
	if total == 0 {
		total = 1
	}

	for c := 0; c < channels; c++ {
		for k := 0; k < limitK; k++ {
			coord := bucket.FromSigned(c, req.Sig.Sig[c][k])
			if req.Flags.NoCommon {
				if float64(src.BucketLen(coord))/float64(total) > 0.10 {
					continue
				}
			}
			w := weights.Weight(req.Flags.Sketch, c, coord.Magnitude)
			scale -= w

			src.EachInBucket(coord, func(idx int) {
				if idx < 0 || idx >= n {
					return
				}
				if !touched[idx] {
					return
				}
				score[idx] -= w
			})
		}
	}

	// Step 4-5: filter, uniqueset, and keep the N best (lowest-score) entries
	// via a bounded max-heap where the worst survivor sits on top.
	heapQ := queue.NewMax(req.N)
	setCount := make(map[uint16]int)

	for idx := 0; idx < n; idx++ {
		if !touched[idx] {
			continue
		}
		info, _ := src.At(idx)
		if info.Deleted() {
			continue
		}
		if req.Flags.Mask && (info.Mask&req.MaskAnd) != req.MaskXor {
			continue
		}

		if req.Flags.Uniqueset && setCount[info.Set] >= 1 {
			// At most one survivor per Set: replace the existing member of
			// this set only if the candidate is strictly better.
			if !replaceWorseInSet(heapQ, src, info.Set, score[idx]) {
				continue
			}
			setCount[info.Set]--
		}

		if heapQ.Len() < req.N {
			heapQ.PushItem(queue.Item{Index: idx, Score: score[idx]})
			setCount[info.Set]++
			continue
		}

		top, _ := heapQ.Top()
		if score[idx] < top.Score {
			evicted, _ := heapQ.PopItem()
			if evInfo, ok := src.At(evicted.Index); ok {
				setCount[evInfo.Set]--
			}
			heapQ.PushItem(queue.Item{Index: idx, Score: score[idx]})
			setCount[info.Set]++
		}
	}

	// Step 6: normalize and sort descending by similarity.
	items := heapQ.Items()
	results := make([]Result, 0, len(items))
	for _, it := range items {
		info, ok := src.At(it.Index)
		if !ok {
			continue
		}
		sim := it.Score
		if scale != 0 {
			sim = it.Score * 100 / scale
		}
		results = append(results, Result{
			ID:     info.ID,
			Score:  sim,
			Width:  info.Width,
			Height: info.Height,
		})
	}

	sortDescending(results)
	return results
}

// replaceWorseInSet implements the uniqueset eviction: if the existing
// heap member sharing this Set tag scores worse than the candidate, remove
// it and report true so the caller pushes the candidate; otherwise false.
func replaceWorseInSet(pq *queue.PriorityQueue, src Source, set uint16, candidateScore float64) bool {
	items := pq.Items()
	for i, it := range items {
		info, ok := src.At(it.Index)
		if !ok || info.Set != set {
			continue
		}
		if candidateScore < it.Score {
			removeAt(pq, i)
			return true
		}
		return false
	}
	return true
}

// removeAt deletes the item at heap-slice position i, restoring the heap
// invariant. PriorityQueue does not expose container/heap.Fix, so this
// rebuilds via pop/push of the remainder — acceptable given N is bounded by
// the query's requested result count.
func removeAt(pq *queue.PriorityQueue, i int) {
	items := pq.Items()
	kept := make([]queue.Item, 0, len(items)-1)
	for j, it := range items {
		if j != i {
			kept = append(kept, it)
		}
	}
	for pq.Len() > 0 {
		pq.PopItem()
	}
	for _, it := range kept {
		pq.PushItem(it)
	}
}

func sortDescending(results []Result) {
	// Simple insertion sort: N is the requested result count, always small.
	for i := 1; i < len(results); i++ {
		v := results[i]
		j := i - 1
		for j >= 0 && results[j].Score < v.Score {
			results[j+1] = results[j]
			j--
		}
		results[j+1] = v
	}
}
