/*
Package report emits the text report files C9 is responsible for:
frequency histogram, bucket-count distribution, and bits-per-bin table,
plus the supplemented compression_ratio.csv (SPEC_FULL.md section 4).
Rank 0 only, always after the collective reduction that produced the data
being written (spec.md section 5's "collectives interleaved with prints"
ordering guarantee).

Grounded on density.cpp's dumpHistogram/dumpBucketDistrib/dumpBitsDistrib,
keeping their tab-separated "# comment" header format.
*/
package report

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/lanl/vizaly-density/lib/binning"
	"github.com/lanl/vizaly-density/lib/orchestrate"
)

// binLowerBounds returns each bin's lower density bound: rho_min + k*width
// in uniform mode, rho_min + bin_ranges[k] in adaptive mode - the same
// formula dumpHistogram/dumpBitsDistrib both use.
//
// In adaptive mode the histogram written beside these bounds is rank 0's
// own [bin_capacity] * nb_bins table, not all-reduced and not a true
// global quantile histogram; this is an acknowledged approximation
// (DESIGN.md Open Question 1) rather than a silent "fix".
func binLowerBounds(b *binning.Binning) []float64 {
	bounds := make([]float64, b.NbBins)
	if !b.Adaptive {
		for k := range bounds {
			bounds[k] = b.RhoMin + float64(k)*b.Width
		}
		return bounds
	}
	for k := range bounds {
		bounds[k] = b.RhoMin + b.Ranges[k]
	}
	return bounds
}

// WriteHistogram writes <pathPrefix>.dat: bin lower-bound, global particle
// count, plus a supplemented mean-density column computed with
// gonum.org/v1/gonum/stat.Mean over the per-bin density samples (see
// SPEC_FULL.md section 3's domain-stack wiring for gonum).
func WriteHistogram(pathPrefix string, b *binning.Binning, perBinDensity [][]float64) error {
	f, err := os.Create(pathPrefix + ".dat")
	if err != nil {
		return err
	}
	defer f.Close()

	bounds := binLowerBounds(b)

	fmt.Fprintf(f, "# bins: %d\n", b.NbBins)
	fmt.Fprintln(f, "# col 1: density range")
	fmt.Fprintln(f, "# col 2: particle count")
	fmt.Fprintln(f, "# col 3: mean density in bin")
	for k := 0; k < b.NbBins; k++ {
		mean := 0.0
		if k < len(perBinDensity) && len(perBinDensity[k]) > 0 {
			mean = stat.Mean(perBinDensity[k], nil)
		}
		fmt.Fprintf(f, "%v\t%d\t%v\n", bounds[k], b.Histogram[k], mean)
	}
	return nil
}

// WriteBucketDistrib writes <pathPrefix>.dat: bin index, global particle
// count (the reduce-to-root table C7 produces).
func WriteBucketDistrib(pathPrefix string, counts []int64) error {
	f, err := os.Create(pathPrefix + ".dat")
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "# bins: %d\n", len(counts))
	fmt.Fprintln(f, "# col 1: bin")
	fmt.Fprintln(f, "# col 2: particle count")
	for i, c := range counts {
		fmt.Fprintf(f, "%d\t%d\n", i, c)
	}
	return nil
}

// WriteBitsDistrib writes bits_distrib.dat: bin lower-bound, bit budget.
func WriteBitsDistrib(b *binning.Binning, bits []int) error {
	f, err := os.Create("bits_distrib.dat")
	if err != nil {
		return err
	}
	defer f.Close()

	bounds := binLowerBounds(b)

	fmt.Fprintf(f, "# bins: %d\n", b.NbBins)
	fmt.Fprintln(f, "# col 1: density")
	fmt.Fprintln(f, "# col 2: bits")
	for k := 0; k < b.NbBins; k++ {
		fmt.Fprintf(f, "%v\t%d\n", bounds[k], bits[k])
	}
	return nil
}

// WriteCompressionRatio writes compression_ratio.csv: one row per
// physical component with its compression ratio, a supplemented
// byproduct of C8's own byte-count bookkeeping (see SPEC_FULL.md section
// 4 - grounded on run.cpp's output_csv ratio column, but not a
// reimplementation of the sibling harness).
func WriteCompressionRatio(path string, perComponent map[string]orchestrate.Stats, order []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(f, "component,uncompressed_bytes,compressed_bytes,ratio")
	for _, name := range order {
		s, ok := perComponent[name]
		if !ok {
			continue
		}
		compressed := s.LossyBytes
		if s.LosslessBytes > 0 {
			compressed = s.LosslessBytes
		}
		fmt.Fprintf(f, "%s,%d,%d,%v\n", name, s.Uncompressed, compressed, s.Ratio())
	}
	return nil
}
