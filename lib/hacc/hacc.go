/*
Package hacc implements the particle-store loader (C2) and partition
writer (C10): a block-structured columnar file format carrying physical
origin/scale and rank-grid metadata alongside seven fixed-name data
blocks (x, y, z, vx, vy, vz, id).

Grounded on guppy's lib/snapio/gadget2.go: a fixed-size header followed
by named blocks, each prefixed by a block-length word that Read
cross-checks against the block's expected byte size before trusting the
payload (abstractGadget2.Read's hdSize-vs-blockSize check). Collapsed
from gadget2's configurable name/type list into the fixed seven-column
schema spec.md section 3 specifies, since HACC partitions have no
variable schema to support.
*/
package hacc

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/lanl/vizaly-density/lib/errs"
	"github.com/lanl/vizaly-density/lib/particle"
)

const magic uint32 = 0x48414343 // "HACC"

// blockNames is the fixed column order a partition file stores its
// blocks in: three position components, three velocity components, then
// the 64-bit particle id.
var blockNames = [7]string{"x", "y", "z", "vx", "vy", "vz", "id"}

// Load reads one rank's partition file: the fixed header (particle
// count, physical origin/scale, rank grid) followed by the seven named
// blocks, each validated against its declared byte length before being
// trusted (same defensive check as gadget2.go's blockSize comparison).
func Load(path string) (*particle.Partition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	defer f.Close()

	var m uint32
	if err := binary.Read(f, binary.LittleEndian, &m); err != nil {
		return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	if m != magic {
		return nil, errs.New(errs.IoFailed, map[string]interface{}{"path": path, "magic": m},
			"hacc: %q does not begin with the expected magic number", path)
	}

	var n int64
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	if n < 0 {
		return nil, errs.New(errs.IoFailed, map[string]interface{}{"path": path, "n": n},
			"hacc: %q declares a negative particle count %d", path, n)
	}

	p := &particle.Partition{}
	if err := binary.Read(f, binary.LittleEndian, &p.PhysOrigin); err != nil {
		return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	if err := binary.Read(f, binary.LittleEndian, &p.PhysScale); err != nil {
		return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	var rankGrid [3]int32
	if err := binary.Read(f, binary.LittleEndian, &rankGrid); err != nil {
		return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	p.RankGrid = [3]int{int(rankGrid[0]), int(rankGrid[1]), int(rankGrid[2])}

	for _, name := range blockNames {
		data, err := readBlock(f, path, name, n)
		if err != nil {
			return nil, err
		}
		switch name {
		case "id":
			ids := make([]int64, n)
			if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &ids); err != nil {
				return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path, "block": name})
			}
			p.ID = ids
		default:
			vals := make([]float32, n)
			if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &vals); err != nil {
				return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path, "block": name})
			}
			p.SetComponent(name, vals)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// blockWordSize returns the byte width of one element of the named block:
// 8 for "id" (int64), 4 for every float32 component.
func blockWordSize(name string) int64 {
	if name == "id" {
		return 8
	}
	return 4
}

// readBlock reads one length-prefixed block, failing with IoFailed if the
// declared length doesn't match n*wordSize for this block's type — the
// same "likely wrong block order or type" diagnostic gadget2.go's Read
// gives, adapted to this format's fixed schema so there's exactly one
// correct size rather than a family of interchangeable numeric types.
func readBlock(f io.Reader, path, name string, n int64) ([]byte, error) {
	var declared uint32
	if err := binary.Read(f, binary.LittleEndian, &declared); err != nil {
		return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path, "block": name})
	}
	want := uint32(n * blockWordSize(name))
	if declared != want {
		return nil, errs.New(errs.IoFailed,
			map[string]interface{}{"path": path, "block": name, "declared": declared, "want": want},
			"hacc: block %q in %q declares %d bytes, expected %d; the file's block order or "+
				"particle count is likely wrong", name, path, declared, want)
	}

	buf := make([]byte, want)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path, "block": name})
	}
	return buf, nil
}

// Write rewrites a rank's partition in the same format Load reads,
// carrying forward the partition's own physical origin/scale and rank
// grid (spec.md section 4.6: "the writer sets per-dimension physical
// origin/scale from the loader").
func Write(path string, p *particle.Partition) error {
	if err := p.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	defer f.Close()

	n := int64(p.Len())

	if err := binary.Write(f, binary.LittleEndian, magic); err != nil {
		return errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	if err := binary.Write(f, binary.LittleEndian, n); err != nil {
		return errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	if err := binary.Write(f, binary.LittleEndian, p.PhysOrigin); err != nil {
		return errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	if err := binary.Write(f, binary.LittleEndian, p.PhysScale); err != nil {
		return errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}
	rankGrid := [3]int32{int32(p.RankGrid[0]), int32(p.RankGrid[1]), int32(p.RankGrid[2])}
	if err := binary.Write(f, binary.LittleEndian, rankGrid); err != nil {
		return errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path})
	}

	for _, name := range blockNames {
		size := uint32(n * blockWordSize(name))
		if err := binary.Write(f, binary.LittleEndian, size); err != nil {
			return errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path, "block": name})
		}
		if name == "id" {
			if err := binary.Write(f, binary.LittleEndian, p.ID); err != nil {
				return errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path, "block": name})
			}
			continue
		}
		if err := binary.Write(f, binary.LittleEndian, p.Component(name)); err != nil {
			return errs.Wrap(errs.IoFailed, err, map[string]interface{}{"path": path, "block": name})
		}
	}

	return nil
}
