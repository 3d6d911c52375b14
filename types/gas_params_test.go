package types

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNativeGasParametersOverridesDefaults(t *testing.T) {
	params, err := ParseNativeGasParameters(`
[table]
module = "tbl"

[table.add_box]
base = 1
per_byte = 2
`)
	require.NoError(t, err)

	defaults := DefaultNativeGasParameters()
	assert.Equal(t, "tbl", params.Table.Module)
	assert.Equal(t, GasCost{Base: 1, PerByte: 2}, params.Table.AddBox)
	assert.Equal(t, defaults.Table.BorrowBox, params.Table.BorrowBox)
	assert.Equal(t, defaults.Hash, params.Hash)
}

func TestParseNativeGasParametersRejectsUnknownKeys(t *testing.T) {
	_, err := ParseNativeGasParameters(`
[table]
modul = "typo"
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table.modul")
}

func TestGasParametersRoundTripThroughFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeNativeGasParameters(&buf, DefaultNativeGasParameters()))

	path := filepath.Join(t.TempDir(), "gas.toml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	params, err := LoadNativeGasParameters(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultNativeGasParameters(), params)

	_, err = LoadNativeGasParameters(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestGasCostTotal(t *testing.T) {
	c := GasCost{Base: 100, PerByte: 3}
	assert.Equal(t, Gas(100), c.TotalCost(0))
	assert.Equal(t, Gas(130), c.TotalCost(10))
}

func TestGasCostTotalSaturates(t *testing.T) {
	huge := GasCost{Base: 1, PerByte: math.MaxUint64 / 2}
	assert.Equal(t, Gas(math.MaxUint64), huge.TotalCost(3))

	base := GasCost{Base: math.MaxUint64 - 5, PerByte: 1}
	assert.Equal(t, Gas(math.MaxUint64-1), base.TotalCost(4))
	assert.Equal(t, Gas(math.MaxUint64), base.TotalCost(10))

	params, err := ParseNativeGasParameters(`
[hash.sha3_256]
base = 0
per_byte = 9223372036854775807
`)
	require.NoError(t, err)
	assert.Equal(t, Gas(math.MaxUint64), params.Hash.Sha3_256.TotalCost(4))
}
