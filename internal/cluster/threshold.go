package cluster

import "math"

// MinSimThreshold implements spec.md §4.6 step 1-2: walk sim scores from
// least to most similar, tracking a running mean/stddev of the positive
// scores seen, and return the first threshold whose sample stddev exceeds
// floor. Scores must already be sorted descending by similarity (the order
// spec.md's query engine returns); the walk itself proceeds in reverse.
func MinSimThreshold(scoresDesc []float64, floor float64) (threshold float64, ok bool) {
	var count int
	var sum, sumSq float64

	for i := len(scoresDesc) - 1; i >= 0; i-- {
		s := scoresDesc[i]
		if s <= 0 {
			continue
		}
		count++
		sum += s
		sumSq += s * s

		if count < 2 {
			continue
		}
		mean := sum / float64(count)
		variance := sumSq/float64(count) - mean*mean
		if variance < 0 {
			variance = 0
		}
		stddev := math.Sqrt(variance)
		if stddev > floor {
			return mean + 0.5*stddev, true
		}
	}
	return 0, false
}
