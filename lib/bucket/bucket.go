/*
Package bucket implements the bucketer (C7): partitioning local particles
into nb_bins buckets by the density of the cell each falls into, then
emitting a per-bin global count table via reduce-to-root.

Grounded on density.cpp's bucketParticles/deduceBucketIndex.
*/
package bucket

import (
	"github.com/lanl/vizaly-density/lib/binning"
	"github.com/lanl/vizaly-density/lib/errs"
	"github.com/lanl/vizaly-density/lib/spatial"
)

// Reducer is the subset of mpi.Comm the bucketer needs for its
// reduce-to-root global bucket-count table.
type Reducer interface {
	ReduceSumInt64Slice(v []int64, root int) ([]int64, error)
}

// Assign computes, for each local particle, its density-grid cell index
// (via spatial.CellIndex) and the bin that cell's density falls into (via
// the binning definition), and appends the particle to that bin's bucket.
//
// positions[p] is particle p's (x, y, z); coordMin/coordMax are this
// rank's per-axis sub-domain extents (the partition's phys_origin and
// phys_origin+phys_scale), which spec.md section 3 models as independent
// per-axis values.
func Assign(b *binning.Binning, rho []float32, positions [][3]float32, coordMin, coordMax [3]float64, cellsPerAxis int) ([][]int, error) {
	buckets := make([][]int, b.NbBins)

	for p, pos := range positions {
		flat, err := spatial.CellIndex(pos, coordMin, coordMax, cellsPerAxis)
		if err != nil {
			return nil, err
		}
		if flat >= len(rho) {
			return nil, errs.New(errs.Internal,
				map[string]interface{}{"flat": flat, "r_local": len(rho)},
				"bucket: cell index %d exceeds local density length %d", flat, len(rho))
		}

		density := float64(rho[flat])

		var bin int
		if b.Adaptive {
			bin = binning.AdaptiveBucket(b.Ranges, density)
		} else {
			bin = binning.UniformBucket(density, b.RhoMin, b.Width, b.NbBins)
		}

		if bin < 0 || bin >= b.NbBins {
			return nil, errs.New(errs.Internal,
				map[string]interface{}{"bin": bin, "nb_bins": b.NbBins},
				"bucket: computed bin index %d outside [0, %d)", bin, b.NbBins)
		}

		buckets[bin] = append(buckets[bin], p)
	}

	return buckets, nil
}

// GlobalCounts reduces each bin's local particle count to root, producing
// the per-bin global count table spec.md section 4.4 requires. Only
// meaningful on the root rank.
func GlobalCounts(comm Reducer, buckets [][]int, root int) ([]int64, error) {
	local := make([]int64, len(buckets))
	for b, particles := range buckets {
		local[b] = int64(len(particles))
	}
	return comm.ReduceSumInt64Slice(local, root)
}
