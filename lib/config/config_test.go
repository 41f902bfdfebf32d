package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanl/vizaly-density/lib/errs"
)

func writeConfig(t *testing.T, cfg map[string]interface{}) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func baseConfig() map[string]interface{} {
	return map[string]interface{}{
		"hacc": map[string]interface{}{"input": "in.hacc", "output": "out.hacc"},
		"density": map[string]interface{}{
			"inputs":  []interface{}{map[string]interface{}{"data": "d0.bin", "count": 100}},
			"extents": map[string]interface{}{"min": 0, "max": 1},
		},
		"bins": map[string]interface{}{
			"count": 4, "adaptive": false, "min_bits": 18, "max_bits": 28,
		},
		"plots": map[string]interface{}{"density": "density", "buckets": "buckets"},
	}
}

// E5 — rank partition rule: inputs.length=7, nb_ranks=2 => ConfigInvalid.
func TestValidateRankPartitionRule(t *testing.T) {
	cfg := baseConfig()
	inputs := make([]interface{}, 7)
	for i := range inputs {
		inputs[i] = map[string]interface{}{"data": "d.bin", "count": 10}
	}
	cfg["density"].(map[string]interface{})["inputs"] = inputs
	path := writeConfig(t, cfg)

	_, err := Load(path, 2)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ConfigInvalid))
}

func TestValidateRankPartitionRuleAccepted(t *testing.T) {
	cfg := baseConfig()
	inputs := make([]interface{}, 8)
	for i := range inputs {
		inputs[i] = map[string]interface{}{"data": "d.bin", "count": 10}
	}
	cfg["density"].(map[string]interface{})["inputs"] = inputs
	path := writeConfig(t, cfg)

	c, err := Load(path, 4)
	require.NoError(t, err)
	assert.Len(t, c.Density.Inputs, 8)
}

func TestValidateSingleRankAlwaysOK(t *testing.T) {
	path := writeConfig(t, baseConfig())
	c, err := Load(path, 4)
	require.NoError(t, err)
	assert.Len(t, c.Density.Inputs, 1)
}

func TestValidateExtents(t *testing.T) {
	cfg := baseConfig()
	cfg["density"].(map[string]interface{})["extents"] = map[string]interface{}{"min": 3, "max": 3}
	path := writeConfig(t, cfg)

	_, err := Load(path, 1)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ConfigInvalid))
}

func TestValidateBitOrdering(t *testing.T) {
	cfg := baseConfig()
	cfg["bins"].(map[string]interface{})["min_bits"] = 0
	path := writeConfig(t, cfg)
	_, err := Load(path, 1)
	require.Error(t, err)

	cfg2 := baseConfig()
	cfg2["bins"].(map[string]interface{})["max_bits"] = 10
	cfg2["bins"].(map[string]interface{})["min_bits"] = 18
	path2 := writeConfig(t, cfg2)
	_, err2 := Load(path2, 1)
	require.Error(t, err2)
}

func TestCellsPerAxis(t *testing.T) {
	d := Density{Extents: DensityExtents{Min: 0, Max: 1}}
	assert.Equal(t, 2, d.CellsPerAxis())
}

func TestKernelParamsOverride(t *testing.T) {
	k := Kernel{
		Params: map[string]interface{}{"bits": "18"},
		Overrid: []KernelParamOverride{
			{Scalar: "vx", Params: map[string]interface{}{"bits": "24"}},
		},
	}
	assert.Equal(t, "18", k.KernelParams("x")["bits"])
	assert.Equal(t, "24", k.KernelParams("vx")["bits"])
}
