package particle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Partition {
	return &Partition{
		X:  []float32{0, 1, 2, 3},
		Y:  []float32{10, 11, 12, 13},
		Z:  []float32{20, 21, 22, 23},
		Vx: []float32{30, 31, 32, 33},
		Vy: []float32{40, 41, 42, 43},
		Vz: []float32{50, 51, 52, 53},
		ID: []int64{100, 101, 102, 103},
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, sample().Validate())
}

func TestValidateMismatch(t *testing.T) {
	p := sample()
	p.Y = p.Y[:2]
	require.Error(t, p.Validate())
}

// E4 — bucket permutation consistency: buckets [[3,1],[0],[2]] yields
// id = [id3, id1, id0, id2] and the same permutation across all columns.
func TestPermuteMatchesE4(t *testing.T) {
	p := sample()
	order := OrderFromBuckets([][]int{{3, 1}, {0}, {2}})
	assert.Equal(t, []int{3, 1, 0, 2}, order)

	p.Permute(order)
	assert.Equal(t, []int64{103, 101, 100, 102}, p.ID)
	assert.Equal(t, []float32{3, 1, 0, 2}, p.X)
	assert.Equal(t, []float32{33, 31, 30, 32}, p.Vx)
}

func TestPermuteID(t *testing.T) {
	p := sample()
	order := OrderFromBuckets([][]int{{3, 1}, {0}, {2}})
	p.PermuteID(order)
	assert.Equal(t, []int64{103, 101, 100, 102}, p.ID)
	// unrelated columns are untouched
	assert.Equal(t, []float32{0, 1, 2, 3}, p.X)
}

func TestComponentAccessors(t *testing.T) {
	p := sample()
	for _, name := range Components {
		assert.Len(t, p.Component(name), p.Len())
	}
	p.SetComponent("vz", []float32{9, 9, 9, 9})
	assert.Equal(t, []float32{9, 9, 9, 9}, p.Vz)
}
