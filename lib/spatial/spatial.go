/*
Package spatial implements the spatial indexer (C6): mapping a particle's
(x, y, z) position to a flat cell index of the density grid.

Grounded on density.cpp's deduceDensityIndex. Per spec.md section 4.3 and
DESIGN.md's resolution of the corresponding open question, an
out-of-domain position returns errs.OutOfDomain instead of the source's
bare assert.
*/
package spatial

import (
	"math"

	"github.com/lanl/vizaly-density/lib/errs"
)

// CellIndex computes, per axis d, i_d = floor((pos[d] - coordMin[d]) * C /
// (coordMax[d] - coordMin[d])), then flat = i + j*C + k*C^2. coordMin/
// coordMax are the partition's per-axis phys_origin/phys_origin+phys_scale
// extents (spec.md section 3: phys_origin[3]/phys_scale[3] are independent
// per-axis values, not a shared scalar bound). It reports errs.OutOfDomain
// if any axis's cell falls outside [0, C), and errs.Internal for a
// non-positive span on any axis.
func CellIndex(pos [3]float32, coordMin, coordMax [3]float64, cellsPerAxis int) (int, error) {
	c := float64(cellsPerAxis)

	var idx [3]int
	for d := 0; d < 3; d++ {
		span := coordMax[d] - coordMin[d]
		if span <= 0 {
			return 0, errs.New(errs.Internal,
				map[string]interface{}{"dim": d, "coord_min": coordMin[d], "coord_max": coordMax[d]},
				"spatial: degenerate coordinate span on axis %d: [%v, %v]", d, coordMin[d], coordMax[d])
		}

		p := float64(pos[d])
		cell := int(math.Floor((p - coordMin[d]) * c / span))
		if cell < 0 || cell >= cellsPerAxis {
			return 0, errs.New(errs.OutOfDomain,
				map[string]interface{}{
					"dim": d, "pos": p, "coord_min": coordMin[d], "coord_max": coordMax[d],
				},
				"particle position %v on axis %d is outside the declared extents [%v, %v]",
				p, d, coordMin[d], coordMax[d])
		}
		idx[d] = cell
	}

	flat := idx[0] + idx[1]*cellsPerAxis + idx[2]*cellsPerAxis*cellsPerAxis
	rLocal := cellsPerAxis * cellsPerAxis * cellsPerAxis
	if flat < 0 || flat >= rLocal {
		return 0, errs.New(errs.Internal,
			map[string]interface{}{"flat": flat, "r_local": rLocal},
			"spatial: computed cell index %d outside [0, %d)", flat, rLocal)
	}
	return flat, nil
}
