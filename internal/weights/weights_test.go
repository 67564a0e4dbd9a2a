package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBand_TopLeftBlockUsesMaxRowCol(t *testing.T) {
	assert.Equal(t, 0, Band(0*GridSize+0))
	assert.Equal(t, 3, Band(3*GridSize+1))
	assert.Equal(t, 3, Band(1*GridSize+3))
	assert.Equal(t, 4, Band(4*GridSize+4))
}

func TestBand_OutsideBlockIsBandFive(t *testing.T) {
	assert.Equal(t, 5, Band(5*GridSize+0))
	assert.Equal(t, 5, Band(0*GridSize+5))
	assert.Equal(t, 5, Band(127*GridSize+127))
}

func TestWeight_SelectsSketchOrNaturalTable(t *testing.T) {
	natural := Weight(false, 2, 0)
	sketch := Weight(true, 2, 0)
	assert.Equal(t, Table[0][0][2], natural)
	assert.Equal(t, Table[1][0][2], sketch)
	assert.NotEqual(t, natural, sketch)
}

func TestWeight_DecreasesWithHigherBand(t *testing.T) {
	near := Weight(false, 0, 0)
	far := Weight(false, 0, 5*GridSize+5)
	assert.Greater(t, near, far)
}
