package bitbudget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// E6 — bit ladder. Uniform mode, nb_bins=2000, min_bits=18, max_bits=28,
// variant 2: bits[0]=18, bits[1]=22, bits[50]=24, bits[150]=25,
// bits[1500]=28.
func TestE6UniformLadderDefault(t *testing.T) {
	bits := Allocate(2000, 18, 28, false, LadderDefault)
	assert.Equal(t, 18, bits[0])
	assert.Equal(t, 22, bits[1])
	assert.Equal(t, 24, bits[50])
	assert.Equal(t, 25, bits[150])
	assert.Equal(t, 28, bits[1500])
}

// Invariant 2: for every bin b, min_bits <= bits[b] <= max_bits.
func TestUniformLadderBitsWithinRange(t *testing.T) {
	for _, nbBins := range []int{1, 4, 50, 2000} {
		bits := Allocate(nbBins, 18, 28, false, LadderDefault)
		for b, v := range bits {
			assert.GreaterOrEqual(t, v, 18, "bin %d", b)
			assert.LessOrEqual(t, v, 28, "bin %d", b)
		}
	}
}

func TestConservativeLadderDiffersOnlyInLowBins(t *testing.T) {
	def := Allocate(2000, 18, 28, false, LadderDefault)
	cons := Allocate(2000, 18, 28, false, LadderConservative)

	assert.Equal(t, def[0], cons[0])
	assert.NotEqual(t, def[1], cons[1])
	assert.Equal(t, def[1500], cons[1500])
}

func TestAdaptiveStaircase(t *testing.T) {
	// V = 28-18+1 = 11, N = 100/11 = 9.
	bits := Allocate(100, 18, 28, true, LadderDefault)
	assert.Len(t, bits, 100)

	for j := 0; j < 9; j++ {
		assert.Equal(t, 18, bits[0*9+j])
		assert.Equal(t, 19, bits[1*9+j])
		assert.Equal(t, 28, bits[2*9+j])
	}

	for b, v := range bits {
		assert.GreaterOrEqual(t, v, 18, "bin %d", b)
		assert.LessOrEqual(t, v, 28, "bin %d", b)
	}
}

func TestDeterministic(t *testing.T) {
	a := Allocate(500, 18, 28, true, LadderDefault)
	b := Allocate(500, 18, 28, true, LadderDefault)
	assert.Equal(t, a, b)
}
