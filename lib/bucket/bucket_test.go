package bucket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanl/vizaly-density/lib/binning"
)

type fakeReducer struct{}

func (fakeReducer) ReduceSumInt64Slice(v []int64, root int) ([]int64, error) {
	out := make([]int64, len(v))
	copy(out, v)
	return out, nil
}

// Invariant 1: sum(len(buckets[b])) == P_local, and buckets are disjoint.
func TestAssignCoversEveryParticle(t *testing.T) {
	b := &binning.Binning{NbBins: 4, RhoMin: 0, RhoMax: 7, Width: 1.75}
	rho := []float32{0, 1, 2, 3, 4, 5, 6, 7}
	positions := make([][3]float32, 8)
	for i := range positions {
		// place particle i at cell i, for a 2x2x2 grid (cellsPerAxis=2).
		x := float32(i % 2)
		y := float32((i / 2) % 2)
		z := float32((i / 4) % 2)
		positions[i] = [3]float32{x*0.9 + 0.05, y*0.9 + 0.05, z*0.9 + 0.05}
	}

	buckets, err := Assign(b, rho, positions, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 2)
	require.NoError(t, err)

	seen := make(map[int]bool)
	total := 0
	for _, bucket := range buckets {
		for _, p := range bucket {
			assert.False(t, seen[p], "particle %d assigned twice", p)
			seen[p] = true
			total++
		}
	}
	assert.Equal(t, 8, total)
}

// E1 — single rank, uniform bins: a particle at cell flat=3 (rho=3.0)
// lands in bucket floor(3/1.75)=1.
func TestE1BucketAssignment(t *testing.T) {
	b := &binning.Binning{NbBins: 4, RhoMin: 0, RhoMax: 7, Width: 1.75}
	rho := []float32{0, 1, 2, 3, 4, 5, 6, 7}
	// place the one particle at cell 3 of a 2x2x2 grid: (1,1,0).
	positions := [][3]float32{{0.9, 0.9, 0.1}}

	buckets, err := Assign(b, rho, positions, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 2)
	require.NoError(t, err)
	assert.Contains(t, buckets[1], 0)
}

// A rank's sub-domain need not be cubic in physical extent even though the
// density grid is always C x C x C in cell count: a particle legally
// positioned on a taller z-axis domain must bucket correctly using that
// axis's own extent, not x's.
func TestAssignPerAxisExtents(t *testing.T) {
	b := &binning.Binning{NbBins: 2, RhoMin: 0, RhoMax: 2, Width: 1}
	rho := make([]float32, 8) // 2x2x2 grid
	rho[4] = 1.5              // cell (0, 0, 1) -> flat = 0 + 0*2 + 1*4 = 4
	// place the particle in cell (0, 0, 1) of a 2x2x2 grid using a
	// non-cubic physical domain: x in [0,1), y in [0,1), z in [0,4).
	positions := [][3]float32{{0.1, 0.1, 3.5}}

	buckets, err := Assign(b, rho, positions, [3]float64{0, 0, 0}, [3]float64{1, 1, 4}, 2)
	require.NoError(t, err)
	assert.Contains(t, buckets[1], 0)
}

func TestGlobalCounts(t *testing.T) {
	buckets := [][]int{{0, 1}, {2}, {}, {3, 4, 5}}
	counts, err := GlobalCounts(fakeReducer{}, buckets, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 0, 3}, counts)
}
