package query

import (
	"math"
	"sort"

	"github.com/r888888888/iqdb/internal/sig"
	"github.com/r888888888/iqdb/internal/weights"
)

// Diff computes a symmetric distance between two signatures directly,
// without consulting a bucket index — used by the diff(id1, id2) operation
// of spec.md §6. It follows imgdb.cpp's calcSim/calcDiff: a doubled
// DC-luminance term plus a coefficient term whose score and normalizing
// scale are both accumulated over a merge-walk of the union of both
// signatures' sorted positions per channel, always weighted from the
// natural-image table regardless of sketch mode (the original does the
// same — calcSim hardcodes weights[0]). Diff(a, a, false) == 0 and larger
// means less similar; the DC term on the quantized averages is unbounded, so
// pairs whose averages differ can score above 100.
func Diff(a, b sig.ImgData, ignoreColor bool) float64 {
	grayscale := ignoreColor || a.Grayscale() || b.Grayscale()
	channels := activeChannels(grayscale)

	aAvgl := [3]int32{
		sig.QuantizeAvg(a.AvgLF[0]), sig.QuantizeAvg(a.AvgLF[1]), sig.QuantizeAvg(a.AvgLF[2]),
	}
	bAvgl := [3]int32{
		sig.QuantizeAvg(b.AvgLF[0]), sig.QuantizeAvg(b.AvgLF[1]), sig.QuantizeAvg(b.AvgLF[2]),
	}

	var score, scale float64
	for c := 0; c < channels; c++ {
		w := weights.Table[0][0][c]
		diff := float64(aAvgl[c] - bAvgl[c])
		if diff < 0 {
			diff = -diff
		}
		score += 2 * w * diff
	}

	for c := 0; c < channels; c++ {
		pos1 := sortedPositions(a.Sig[c])
		pos2 := sortedPositions(b.Sig[c])

		i1, i2 := 0, 0
		for i1 < sig.NumCoeffs || i2 < sig.NumCoeffs {
			ind1 := int32(math.MaxInt32)
			if i1 < sig.NumCoeffs {
				ind1 = pos1[i1]
			}
			ind2 := int32(math.MaxInt32)
			if i2 < sig.NumCoeffs {
				ind2 = pos2[i2]
			}

			least := ind1
			if ind2 < least {
				least = ind2
			}
			if least < 0 {
				least = -least
			}
			weight := weights.Table[0][weights.Band(int(least))][c]
			scale -= weight

			if ind1 == ind2 {
				score -= weight
			}
			if ind1 <= ind2 {
				i1++
			}
			if ind2 <= ind1 {
				i2++
			}
		}
	}

	if scale == 0 {
		return 0
	}
	sim := score * 100 / scale
	return 100 - sim
}

func sortedPositions(coeffs [sig.NumCoeffs]int32) [sig.NumCoeffs]int32 {
	sorted := coeffs
	slice := sorted[:]
	sort.Slice(slice, func(i, j int) bool { return slice[i] < slice[j] })
	return sorted
}
