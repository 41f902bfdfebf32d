/*
Package orchestrate implements the codec orchestrator's per-component
compress/decompress loop (C8), the core's central algorithm: for each
physical component and each non-empty bucket, gather values, run
lossy-then-optional-lossless compression, decompress, and reassemble a
deflated copy in bucket order.

Grounded on density.cpp's Density::process: the per-bucket
gather/compress/decompress/append loop and its byte-count bookkeeping.
*/
package orchestrate

import (
	"strconv"

	"github.com/lanl/vizaly-density/lib/codec"
	"github.com/lanl/vizaly-density/lib/errs"
)

// Stats carries the byte-count bookkeeping spec.md section 4.5 requires:
// local totals, reduced to root for the ratio report, plus the
// uncompressed reference (total_particles * sizeof(float)).
type Stats struct {
	LossyBytes    int64
	LosslessBytes int64
	Uncompressed  int64
}

// Ratio returns uncompressed / compressed, using the lossless total when
// a lossless stage ran, otherwise the lossy total.
func (s Stats) Ratio() float64 {
	compressed := s.LossyBytes
	if s.LosslessBytes > 0 {
		compressed = s.LosslessBytes
	}
	if compressed == 0 {
		return 0
	}
	return float64(s.Uncompressed) / float64(compressed)
}

// Run executes the per-bucket compress/decompress loop for one physical
// component. buckets[b] holds the local particle indices assigned to bin
// b; bits[b] is that bin's precision budget. lossyName/losslessName name
// codecs in registry; losslessName may be empty to skip the lossless
// stage, per spec.md section 4.5's "(optional)" lossless step.
//
// The reconstructed array is built in bucket-concatenated order (bucket
// order, then within-bucket source order) - not the original particle
// order - matching the permutation lib/particle.OrderFromBuckets produces
// from the same bucket table.
func Run(
	component string, values []float32, buckets [][]int, bits []int,
	registry *codec.Registry, lossyName, losslessName string,
) ([]float32, Stats, error) {

	if len(buckets) != len(bits) {
		return nil, Stats{}, errs.New(errs.Internal,
			map[string]interface{}{"nb_buckets": len(buckets), "nb_bits": len(bits)},
			"orchestrate: bucket count %d does not match bit-budget length %d", len(buckets), len(bits))
	}

	total := 0
	for _, b := range buckets {
		total += len(b)
	}

	reconstructed := make([]float32, 0, total)
	stats := Stats{Uncompressed: int64(total) * 4}

	for b, particles := range buckets {
		if len(particles) == 0 {
			continue // empty buckets are a valid no-op (spec.md section 4.5)
		}

		v := make([]float32, len(particles))
		for i, p := range particles {
			v[i] = values[p]
		}

		lossy, err := registry.Lossy(lossyName)
		if err != nil {
			return nil, Stats{}, err
		}

		params := map[string]string{"bits": strconv.Itoa(bits[b])}
		lossyOut, err := lossy.Compress(v, params)
		if err != nil {
			return nil, Stats{}, codecFailed(b, component, err)
		}
		if len(lossyOut) == 0 {
			return nil, Stats{}, errs.New(errs.CodecFailed,
				map[string]interface{}{"bin": b, "component": component},
				"orchestrate: lossy codec returned zero bytes")
		}
		stats.LossyBytes += int64(len(lossyOut))

		if losslessName != "" {
			lossless, err := registry.Lossless(losslessName)
			if err != nil {
				return nil, Stats{}, err
			}
			// The lossless stage's input is treated as a byte stream of
			// lossy_bytes/sizeof(float) logical elements - a deliberate
			// fiction (spec.md section 4.5) that only affects reported
			// compressed size, not the reconstructed floats.
			losslessOut, err := lossless.Compress(lossyOut)
			if err != nil {
				return nil, Stats{}, codecFailed(b, component, err)
			}
			if len(losslessOut) == 0 {
				return nil, Stats{}, errs.New(errs.CodecFailed,
					map[string]interface{}{"bin": b, "component": component},
					"orchestrate: lossless codec returned zero bytes")
			}
			stats.LosslessBytes += int64(len(losslessOut))
		}

		lossyDec, err := lossy.Decompress(lossyOut, len(particles))
		if err != nil {
			return nil, Stats{}, codecFailed(b, component, err)
		}
		if len(lossyDec) != len(particles) {
			return nil, Stats{}, errs.New(errs.CodecFailed,
				map[string]interface{}{"bin": b, "component": component, "got": len(lossyDec), "want": len(particles)},
				"orchestrate: decompressed length %d does not match bucket size %d", len(lossyDec), len(particles))
		}

		reconstructed = append(reconstructed, lossyDec...)
	}

	return reconstructed, stats, nil
}

func codecFailed(bin int, component string, err error) *errs.Error {
	if e, ok := err.(*errs.Error); ok && e.Kind == errs.CodecFailed {
		return e
	}
	return errs.New(errs.CodecFailed,
		map[string]interface{}{"bin": bin, "component": component},
		"orchestrate: codec failure in bin %d, component %q: %v", bin, component, err)
}
