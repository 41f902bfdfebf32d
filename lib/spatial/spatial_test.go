package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanl/vizaly-density/lib/errs"
)

// Invariant 3: for every local particle p, deduceDensityIndex(p) is in
// [0, R_local).
func TestCellIndexInRange(t *testing.T) {
	flat, err := CellIndex([3]float32{0.5, 0.5, 0.5}, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, flat, 0)
	assert.Less(t, flat, 8) // C^3 = 2^3
}

func TestCellIndexFlatFormula(t *testing.T) {
	// cell (1, 1, 1) out of 2^3 grid -> flat = 1 + 1*2 + 1*4 = 7, the last cell.
	flat, err := CellIndex([3]float32{0.9, 0.9, 0.9}, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, 7, flat)

	// cell (0, 0, 0) -> flat = 0.
	flat, err = CellIndex([3]float32{0.1, 0.1, 0.1}, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, flat)
}

func TestCellIndexOutOfDomain(t *testing.T) {
	_, err := CellIndex([3]float32{2.0, 0.5, 0.5}, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.OutOfDomain))

	_, err = CellIndex([3]float32{-0.1, 0.5, 0.5}, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.OutOfDomain))
}

func TestCellIndexDegenerateSpan(t *testing.T) {
	_, err := CellIndex([3]float32{0.5, 0.5, 0.5}, [3]float64{1, 1, 1}, [3]float64{1, 1, 1}, 2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Internal))
}

// Per-axis extents must not collapse to a single shared scalar: a particle
// legally positioned on a narrower y-axis domain must not be rejected (or
// silently misindexed) using the x-axis span.
func TestCellIndexPerAxisExtents(t *testing.T) {
	flat, err := CellIndex([3]float32{5, 1.5, 0.5},
		[3]float64{0, 0, 0}, [3]float64{10, 2, 1}, 2)
	require.NoError(t, err)
	// x=5 of [0,10) -> cell 1; y=1.5 of [0,2) -> cell 1; z=0.5 of [0,1) -> cell 1.
	// flat = 1 + 1*2 + 1*4 = 7.
	assert.Equal(t, 7, flat)
}
