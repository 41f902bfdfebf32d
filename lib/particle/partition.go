/*
Package particle models the per-rank particle partition: a fixed set of
seven columnar arrays plus the scalar metadata the writer needs to
reproduce a valid file header. It follows guppy's "columnar-array-of-
structs with parallel permutation" design (lib/particles/particles.go's
Field/Transfer split), collapsed into one concrete struct since the
partition's schema is fixed (x, y, z, vx, vy, vz, id) rather than
open-ended.
*/
package particle

import (
	"github.com/lanl/vizaly-density/lib/errs"
)

// Components names the six physical scalar fields the codec orchestrator
// compresses, in the order the pipeline processes them.
var Components = [6]string{"x", "y", "z", "vx", "vy", "vz"}

// Partition is one rank's particle data: seven aligned arrays plus the
// metadata the writer needs to rebuild a file header.
type Partition struct {
	X, Y, Z    []float32
	Vx, Vy, Vz []float32
	ID         []int64

	PhysOrigin [3]float64
	PhysScale  [3]float64
	RankGrid   [3]int
}

// Len returns P_local, the number of particles in this partition.
func (p *Partition) Len() int { return len(p.X) }

// Validate checks the data-model invariant from spec.md section 3: all
// seven arrays share the same length.
func (p *Partition) Validate() error {
	n := p.Len()
	lens := map[string]int{
		"y": len(p.Y), "z": len(p.Z),
		"vx": len(p.Vx), "vy": len(p.Vy), "vz": len(p.Vz),
		"id": len(p.ID),
	}
	for name, l := range lens {
		if l != n {
			return errs.New(errs.Internal,
				map[string]interface{}{"field": name, "len": l, "expected": n},
				"partition field %q has length %d, expected %d (len(x))", name, l, n)
		}
	}
	return nil
}

// Component returns the array backing one of the six physical scalar
// fields named in Components. It panics on an unrecognized name since
// callers only ever pass a value drawn from Components itself.
func (p *Partition) Component(name string) []float32 {
	switch name {
	case "x":
		return p.X
	case "y":
		return p.Y
	case "z":
		return p.Z
	case "vx":
		return p.Vx
	case "vy":
		return p.Vy
	case "vz":
		return p.Vz
	default:
		panic("particle: unknown component " + name)
	}
}

// SetComponent overwrites one of the six physical scalar fields in place.
func (p *Partition) SetComponent(name string, data []float32) {
	switch name {
	case "x":
		p.X = data
	case "y":
		p.Y = data
	case "z":
		p.Z = data
	case "vx":
		p.Vx = data
	case "vy":
		p.Vy = data
	case "vz":
		p.Vz = data
	default:
		panic("particle: unknown component " + name)
	}
}

// Permute reorders all seven columns according to order, so that the new
// index i holds what used to be at index order[i]. len(order) must equal
// p.Len(). This is the single shared permutation spec.md section 3 and
// section 4.6 require: "All six components and the id array are permuted
// by the same bucket order."
func (p *Partition) Permute(order []int) {
	n := p.Len()
	if len(order) != n {
		panic("particle: permutation length mismatch")
	}

	permuteFloat32(p.X, order)
	permuteFloat32(p.Y, order)
	permuteFloat32(p.Z, order)
	permuteFloat32(p.Vx, order)
	permuteFloat32(p.Vy, order)
	permuteFloat32(p.Vz, order)
	permuteInt64(p.ID, order)
}

func permuteFloat32(data []float32, order []int) {
	if len(data) == 0 {
		return
	}
	out := make([]float32, len(data))
	for i, from := range order {
		out[i] = data[from]
	}
	copy(data, out)
}

func permuteInt64(data []int64, order []int) {
	if len(data) == 0 {
		return
	}
	out := make([]int64, len(data))
	for i, from := range order {
		out[i] = data[from]
	}
	copy(data, out)
}

// PermuteID reorders just the id column. C10 uses this rather than
// Permute: the six physical scalars already come back from C8 in
// bucket-concatenated order (the orchestrator gathers each bucket's
// values directly from the buckets table), so only id - which is never
// passed through a codec - still needs an explicit reorder before
// writing (spec.md section 4.6).
func (p *Partition) PermuteID(order []int) {
	permuteInt64(p.ID, order)
}

// OrderFromBuckets flattens nb_bins bucket index lists into the single
// bucket-concatenated permutation C8/C10 need: bucket order, then
// within-bucket source order.
func OrderFromBuckets(buckets [][]int) []int {
	n := 0
	for _, b := range buckets {
		n += len(b)
	}
	order := make([]int, 0, n)
	for _, b := range buckets {
		order = append(order, b...)
	}
	return order
}
