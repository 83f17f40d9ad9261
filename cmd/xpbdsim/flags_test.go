package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverride(t *testing.T) {
	key, v, err := parseOverride("rope.compliance=0.001")
	require.NoError(t, err)
	assert.Equal(t, "rope.compliance", key)
	assert.Equal(t, 0.001, v)

	for _, bad := range []string{"dt", "=1", "dt=fast"} {
		_, _, err := parseOverride(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseRange(t *testing.T) {
	key, values, err := parseRange("simulation.substeps=5:20:4")
	require.NoError(t, err)
	assert.Equal(t, "simulation.substeps", key)
	assert.Equal(t, []float64{5, 10, 15, 20}, values)

	_, values, err = parseRange("simulation.damping=0.9, 1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 1}, values)

	for _, bad := range []string{"dt", "dt=1:2:0", "dt=a:b:c", "dt=1,x"} {
		_, _, err := parseRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseAxis(t *testing.T) {
	for in, want := range map[string]int{"x": 0, "Y": 1, "z": 2, "2": 2} {
		got, err := parseAxis(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := parseAxis("w")
	assert.Error(t, err)
}
