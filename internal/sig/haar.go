package sig

// haar2D applies an in-place pyramidal two-dimensional Haar wavelet
// decomposition to a GridSize x GridSize plane stored row-major. Each level
// halves the working (top-left) region, replacing it with row-then-column
// average/difference pairs; because every step is an unnormalized average,
// the final top-left element equals the plane's global mean, matching
// spec.md §4.1 step 2-3.
func haar2D(plane []float64) {
	n := GridSize
	tmp := make([]float64, GridSize)

	for n > 1 {
		half := n / 2

		// Row pass: transform each of the first n rows in place.
		for row := 0; row < n; row++ {
			base := row * GridSize
			for j := 0; j < half; j++ {
				a := plane[base+2*j]
				b := plane[base+2*j+1]
				tmp[j] = (a + b) / 2
				tmp[half+j] = (a - b) / 2
			}
			copy(plane[base:base+n], tmp[:n])
		}

		// Column pass: transform each of the first n columns in place.
		for col := 0; col < n; col++ {
			for i := 0; i < half; i++ {
				a := plane[(2*i)*GridSize+col]
				b := plane[(2*i+1)*GridSize+col]
				tmp[i] = (a + b) / 2
				tmp[half+i] = (a - b) / 2
			}
			for i := 0; i < n; i++ {
				plane[i*GridSize+col] = tmp[i]
			}
		}

		n = half
	}
}
