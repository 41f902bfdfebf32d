package density

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanl/vizaly-density/lib/config"
	"github.com/lanl/vizaly-density/lib/errs"
)

func writeBlob(t *testing.T, dir, name string, vals []float32) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, binary.Write(f, binary.LittleEndian, vals))
	return path
}

func TestLoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeBlob(t, dir, "rho0.bin", []float32{0, 1, 2, 3, 4, 5, 6, 7})

	rho, err := Load([]config.DensityInput{{Data: path, Count: 8}})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5, 6, 7}, rho)
}

func TestLoadPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	p0 := writeBlob(t, dir, "a.bin", []float32{1, 2})
	p1 := writeBlob(t, dir, "b.bin", []float32{3, 4})

	rho, err := Load([]config.DensityInput{
		{Data: p1, Count: 2},
		{Data: p0, Count: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4, 1, 2}, rho)
}

func TestLoadShortFile(t *testing.T) {
	dir := t.TempDir()
	path := writeBlob(t, dir, "short.bin", []float32{1, 2})

	_, err := Load([]config.DensityInput{{Data: path, Count: 8}})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.IoFailed))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load([]config.DensityInput{{Data: "/no/such/file", Count: 1}})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.IoFailed))
}

// E5 — inputs.length=8, nb_ranks=4 => each rank gets 2 density files.
func TestRankInputsSplitsEvenly(t *testing.T) {
	inputs := make([]config.DensityInput, 8)
	for i := range inputs {
		inputs[i] = config.DensityInput{Data: string(rune('a' + i)), Count: 1}
	}

	for rank := 0; rank < 4; rank++ {
		got := RankInputs(inputs, rank, 4)
		assert.Len(t, got, 2)
	}
	assert.Equal(t, inputs[0:2], RankInputs(inputs, 0, 4))
	assert.Equal(t, inputs[6:8], RankInputs(inputs, 3, 4))
}

func TestRankInputsSingleSharedFile(t *testing.T) {
	inputs := []config.DensityInput{{Data: "shared.bin", Count: 100}}
	assert.Equal(t, inputs, RankInputs(inputs, 0, 4))
	assert.Equal(t, inputs, RankInputs(inputs, 3, 4))
}
