package sig

// rgbToYIQ converts an 8-bit RGB triple to the YIQ color space using the
// fixed linear transform for standard analog television encoding
// (spec.md §4.1, step 1). R, G, B are expected in [0,255].
func rgbToYIQ(r, g, b byte) (y, i, q float64) {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	y = 0.299000*rf + 0.587000*gf + 0.114000*bf
	i = 0.595716*rf - 0.274453*gf - 0.321263*bf
	q = 0.211456*rf - 0.522591*gf + 0.311135*bf
	return
}

// planesFromRGB splits a 128x128 8-bit RGB buffer (row-major, 3 bytes per
// pixel) into three GridSize*GridSize float64 planes: Y, I, Q.
func planesFromRGB(rgb []byte) (planes [3][]float64, err error) {
	want := GridSize * GridSize * 3
	if len(rgb) != want {
		return planes, &ErrInvalidPlane{Want: want, Got: len(rgb)}
	}

	for c := range planes {
		planes[c] = make([]float64, GridSize*GridSize)
	}

	for p := 0; p < GridSize*GridSize; p++ {
		r, g, b := rgb[p*3], rgb[p*3+1], rgb[p*3+2]
		y, i, q := rgbToYIQ(r, g, b)
		planes[0][p] = y
		planes[1][p] = i
		planes[2][p] = q
	}
	return planes, nil
}

// ErrInvalidPlane is returned when the input buffer is not exactly
// GridSize*GridSize*3 bytes.
type ErrInvalidPlane struct {
	Want, Got int
}

func (e *ErrInvalidPlane) Error() string {
	return "sig: invalid RGB plane size"
}
