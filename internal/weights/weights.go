package weights

// GridSize is the working resolution of the Haar transform grid.
const GridSize = 128

// NumBands is the number of weight classes a wavelet position can fall into.
const NumBands = 6

// Table holds per-(sketch, band, channel) weights. Index order:
// Table[sketch][band][channel].
var Table = [2][NumBands][3]float64{
	// Natural (photographic) images.
	{
		{5.00, 19.21, 34.37},
		{0.83, 1.26, 0.36},
		{1.01, 0.44, 0.45},
		{0.52, 0.53, 0.14},
		{0.47, 0.28, 0.18},
		{0.30, 0.14, 0.27},
	},
	// Hand-drawn (sketch) queries.
	{
		{4.04, 15.14, 22.62},
		{0.78, 0.92, 0.40},
		{0.46, 0.53, 0.63},
		{0.42, 0.26, 0.25},
		{0.41, 0.14, 0.15},
		{0.32, 0.07, 0.38},
	},
}

// Band classifies a wavelet position (0..GridSize*GridSize-1, never the DC
// position) into one of NumBands weight classes. Positions in the 5x5
// top-left block of the grid get bands 0..4 keyed by max(row,col); every
// other position is band 5.
func Band(position int) int {
	row := position / GridSize
	col := position % GridSize
	if row < 5 && col < 5 {
		if row > col {
			return row
		}
		return col
	}
	return 5
}

// Weight returns the weight for the given sketch mode, channel, and wavelet
// position.
func Weight(sketch bool, channel int, position int) float64 {
	s := 0
	if sketch {
		s = 1
	}
	return Table[s][Band(position)][channel]
}
