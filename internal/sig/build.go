package sig

import "sort"

// Build computes the full signature for a 128x128 8-bit RGB image.
//
// rgb must be exactly GridSize*GridSize*3 bytes, row-major, 3 bytes/pixel.
// width and height are the original (pre-resize) resolution, supplied by
// the caller's external decoder (spec.md §6).
func Build(id uint64, rgb []byte, width, height int) (ImgData, error) {
	planes, err := planesFromRGB(rgb)
	if err != nil {
		return ImgData{}, err
	}

	var d ImgData
	d.ID = id
	d.Width = uint32(width)
	d.Height = uint32(height)

	for c := 0; c < 3; c++ {
		haar2D(planes[c])
		d.AvgLF[c] = planes[c][0]
		d.Sig[c] = selectTopCoeffs(planes[c])
	}

	return d, nil
}

// selectTopCoeffs picks the NumCoeffs non-DC positions with the largest
// |coefficient|, tie-broken by lower linear index, and encodes each as a
// signed position (spec.md §4.1 step 4).
func selectTopCoeffs(plane []float64) [NumCoeffs]int32 {
	type cand struct {
		pos int
		val float64
	}

	cands := make([]cand, 0, len(plane)-1)
	for pos := 1; pos < len(plane); pos++ { // skip position 0 (DC)
		cands = append(cands, cand{pos: pos, val: plane[pos]})
	}

	// Stable sort by descending |val|: for equal magnitudes, elements keep
	// their original (ascending position) relative order, which is exactly
	// "lower linear index wins" on ties.
	sort.SliceStable(cands, func(i, j int) bool {
		return abs(cands[i].val) > abs(cands[j].val)
	})

	var out [NumCoeffs]int32
	for k := 0; k < NumCoeffs && k < len(cands); k++ {
		pos := int32(cands[k].pos)
		if cands[k].val < 0 {
			pos = -pos
		}
		out[k] = pos
	}
	return out
}
