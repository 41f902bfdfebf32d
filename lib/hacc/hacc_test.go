package hacc

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanl/vizaly-density/lib/errs"
	"github.com/lanl/vizaly-density/lib/particle"
)

func samplePartition() *particle.Partition {
	return &particle.Partition{
		X: []float32{1, 2, 3}, Y: []float32{4, 5, 6}, Z: []float32{7, 8, 9},
		Vx: []float32{0.1, 0.2, 0.3}, Vy: []float32{0.4, 0.5, 0.6}, Vz: []float32{0.7, 0.8, 0.9},
		ID:         []int64{100, 101, 102},
		PhysOrigin: [3]float64{0, 0, 0},
		PhysScale:  [3]float64{64, 64, 64},
		RankGrid:   [3]int{2, 2, 2},
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := t.TempDir() + "/partition.hacc"
	p := samplePartition()

	require.NoError(t, Write(path, p))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, p.X, got.X)
	assert.Equal(t, p.Vz, got.Vz)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.PhysOrigin, got.PhysOrigin)
	assert.Equal(t, p.PhysScale, got.PhysScale)
	assert.Equal(t, p.RankGrid, got.RankGrid)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := t.TempDir() + "/bad.hacc"
	require.NoError(t, Write(path, samplePartition()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = Load(path)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.IoFailed))
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/no/such/file.hacc")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.IoFailed))
}

func TestLoadRejectsTruncatedBlock(t *testing.T) {
	path := t.TempDir() + "/truncated.hacc"
	require.NoError(t, Write(path, samplePartition()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0644))

	_, err = Load(path)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.IoFailed))
}

func TestWriteRejectsMismatchedLengths(t *testing.T) {
	p := samplePartition()
	p.Y = p.Y[:1]

	err := Write(t.TempDir()+"/invalid.hacc", p)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Internal))
}
