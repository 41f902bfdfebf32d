/*
Package density loads the per-rank density field (C3): one or more raw
little-endian float32 blobs, concatenated in configured file order into a
flat array logically shaped as a C x C x C sub-grid.

Grounded on the original density.cpp's cacheData, which loops over the
configured inputs, reads each blob into the next offset of a shared
buffer, and trusts the config's declared count for each file rather than
inferring it from file size.
*/
package density

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/lanl/vizaly-density/lib/config"
	"github.com/lanl/vizaly-density/lib/errs"
)

// Load reads every density.Inputs entry assigned to this rank (a
// contiguous slice of the config's Inputs, chosen by the caller according
// to the rank/file partition rule) into one flat []float32, preserving
// configured order.
func Load(inputs []config.DensityInput) ([]float32, error) {
	total := 0
	for _, in := range inputs {
		total += in.Count
	}

	rho := make([]float32, 0, total)
	for _, in := range inputs {
		vals, err := loadOne(in)
		if err != nil {
			return nil, err
		}
		rho = append(rho, vals...)
	}
	return rho, nil
}

func loadOne(in config.DensityInput) ([]float32, error) {
	f, err := os.Open(in.Data)
	if err != nil {
		return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": in.Data})
	}
	defer f.Close()

	vals := make([]float32, in.Count)
	if err := binary.Read(f, binary.LittleEndian, vals); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, errs.New(errs.IoFailed,
				map[string]interface{}{"path": in.Data, "count": in.Count},
				"density file %q is shorter than the configured count %d", in.Data, in.Count)
		}
		return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": in.Data})
	}
	return vals, nil
}

// RankInputs returns the slice of Inputs assigned to the given rank, per
// the rank-partition rule in spec.md section 6: a single input is shared
// by every rank; otherwise len(inputs) must be a multiple of nbRanks and
// each rank gets an equal contiguous share.
func RankInputs(inputs []config.DensityInput, rank, nbRanks int) []config.DensityInput {
	if len(inputs) == 1 {
		return inputs
	}
	perRank := len(inputs) / nbRanks
	start := rank * perRank
	return inputs[start : start+perRank]
}
