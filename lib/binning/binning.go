/*
Package binning implements the density-binning engine (C4): choosing
either uniform-width or equiprobable (quantile) bins over a rank's local
density values, with global extents agreed via all-reduce.

Grounded on density.cpp's computeFrequencies (the MPI_Allreduce min/max
dance) and computeDensityBins (the Prins-Bolch nb_bins override and the
sorted-quantile bin_ranges construction for adaptive mode).
*/
package binning

import (
	"math"
	"sort"

	"github.com/lanl/vizaly-density/lib/errs"
)

// Reducer is the subset of mpi.Comm the binning engine needs. Spelling it
// out as its own interface (rather than depending on mpi.Comm directly)
// lets binning_test.go exercise Compute's branch logic with a fake
// single-rank reducer instead of a live MPI runtime - mpi.Comm's method
// set already satisfies this interface with no adapter required.
type Reducer interface {
	AllReduceMinFloat64(float64) (float64, error)
	AllReduceMaxFloat64(float64) (float64, error)
	AllReduceSumInt64Slice([]int64) ([]int64, error)
}

// Binning is the output of the binning engine: either a uniform-width
// definition (Width, Min) or an adaptive definition (Ranges), plus the
// (possibly overridden) bin count and the agreed-upon global extents.
type Binning struct {
	Adaptive bool
	NbBins   int

	RhoMin, RhoMax float64

	// Uniform mode.
	Width float64

	// Adaptive mode: bin_ranges[b] is the lower bound of bin b, derived
	// from local quantiles (see spec.md section 4.1).
	Ranges []float64

	// Histogram is the bin-count table, all-reduced to a true global
	// histogram in uniform mode; in adaptive mode it is [bin_capacity] *
	// nb_bins for every rank, an acknowledged approximation of the true
	// global equiprobable histogram (see DESIGN.md Open Question 1 - the
	// source sums local equiprobable counts rather than re-deriving a
	// global quantile partition).
	Histogram []int64
}

// Compute runs the binning engine over one rank's local density values.
// comm is used for the ρ_min/ρ_max all-reduce (uniform and adaptive modes
// alike) and, in uniform mode, for all-reducing the histogram.
func Compute(comm Reducer, rho []float32, nbBinsConfig int, adaptive bool) (*Binning, error) {
	localMin, localMax := localExtents(rho)

	rhoMin, err := comm.AllReduceMinFloat64(localMin)
	if err != nil {
		return nil, err
	}
	rhoMax, err := comm.AllReduceMaxFloat64(localMax)
	if err != nil {
		return nil, err
	}

	if !(rhoMax > rhoMin) || math.IsNaN(rhoMin) || math.IsNaN(rhoMax) ||
		math.IsInf(rhoMin, 0) || math.IsInf(rhoMax, 0) {
		return nil, errs.New(errs.InvalidRange,
			map[string]interface{}{"rho_min": rhoMin, "rho_max": rhoMax},
			"global density extents are degenerate: rho_min=%v, rho_max=%v", rhoMin, rhoMax)
	}

	if adaptive {
		return computeAdaptive(rho, rhoMin, rhoMax)
	}
	return computeUniform(comm, rho, nbBinsConfig, rhoMin, rhoMax)
}

func localExtents(rho []float32) (min, max float64) {
	if len(rho) == 0 {
		return math.Inf(1), math.Inf(-1)
	}
	min, max = float64(rho[0]), float64(rho[0])
	for _, v := range rho[1:] {
		fv := float64(v)
		if fv < min {
			min = fv
		}
		if fv > max {
			max = fv
		}
	}
	return min, max
}

func computeUniform(comm Reducer, rho []float32, nbBins int, rhoMin, rhoMax float64) (*Binning, error) {
	width := (rhoMax - rhoMin) / float64(nbBins)

	localHist := make([]int64, nbBins)
	for _, v := range rho {
		b := UniformBucket(float64(v), rhoMin, width, nbBins)
		localHist[b]++
	}

	globalHist, err := comm.AllReduceSumInt64Slice(localHist)
	if err != nil {
		return nil, err
	}

	return &Binning{
		Adaptive:  false,
		NbBins:    nbBins,
		RhoMin:    rhoMin,
		RhoMax:    rhoMax,
		Width:     width,
		Histogram: globalHist,
	}, nil
}

// UniformBucket computes the uniform-mode bucket index for value v, per
// spec.md section 4.1: floor((v - rho_min)/width), clamped to [0, nbBins-1].
func UniformBucket(v, rhoMin, width float64, nbBins int) int {
	b := int(math.Floor((v - rhoMin) / width))
	if b < 0 {
		b = 0
	}
	if b > nbBins-1 {
		b = nbBins - 1
	}
	return b
}

func computeAdaptive(rho []float32, rhoMin, rhoMax float64) (*Binning, error) {
	n := len(rho)
	if n == 0 {
		return nil, errs.New(errs.InvalidRange, nil,
			"binning: adaptive mode requires a non-empty local density array")
	}
	nbBins := AdaptiveNbBins(n)

	sorted := make([]float64, n)
	for i, v := range rho {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)

	binCapacity := n / nbBins
	ranges := make([]float64, nbBins)
	for b := 0; b < nbBins; b++ {
		idx := b * binCapacity
		if idx >= n {
			idx = n - 1
		}
		ranges[b] = sorted[idx]
	}

	localHist := make([]int64, nbBins)
	for b := range localHist {
		localHist[b] = int64(binCapacity)
	}

	return &Binning{
		Adaptive:  true,
		NbBins:    nbBins,
		RhoMin:    rhoMin,
		RhoMax:    rhoMax,
		Ranges:    ranges,
		Histogram: localHist,
	}, nil
}

// AdaptiveNbBins implements the Prins-Bolch equiprobable rule:
// nb_bins = ceil(2 * n^(2/5)).
func AdaptiveNbBins(nLocal int) int {
	return int(math.Ceil(2 * math.Pow(float64(nLocal), 2.0/5.0)))
}

// AdaptiveBucket mirrors deduceBucketIndex's two-part test: a strict
// lower-bound guard (v < bin_ranges[0] -> 0), then the first i in
// [1, nbBins) with bin_ranges[i] >= v, clamped to the last bin if v
// exceeds every range. Per DESIGN.md's resolution of the open question on
// deduceBucketIndex's upper-bound/assert bug, the upper clamp here is
// unconditional rather than an assert; the lower-bound guard's strictness
// is kept as in the source, so v == bin_ranges[0] falls through to the
// loop and lands in bin 1, not bin 0.
func AdaptiveBucket(ranges []float64, v float64) int {
	if len(ranges) == 0 {
		return 0
	}
	if v < ranges[0] {
		return 0
	}
	if len(ranges) == 1 {
		return 0
	}
	i := sort.Search(len(ranges)-1, func(i int) bool { return ranges[i+1] >= v })
	i++
	if i >= len(ranges) {
		i = len(ranges) - 1
	}
	return i
}
