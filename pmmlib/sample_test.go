package pmmlib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

func TestSampleShapes(t *testing.T) {

	m, err := New(3, 2, 40, []float64{1, 2, 3}, 2, 1)
	require.NoError(t, err)

	tr := m.Sample(rand.NewSource(1))

	require.Len(t, tr.Pi, 3)
	require.Len(t, tr.Lambda, 6)
	require.Len(t, tr.X, 80)
	require.Len(t, tr.Z, 40)

	assert.InDelta(t, 1, floats.Sum(tr.Pi), 1e-12)
	assert.Greater(t, floats.Min(tr.Lambda), 0.0)

	for _, z := range tr.Z {
		assert.GreaterOrEqual(t, z, 0)
		assert.Less(t, z, 3)
	}

	// Counts are non-negative integers.
	for _, v := range tr.X {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Equal(t, math.Floor(v), v)
	}
}

func TestSampleDeterministic(t *testing.T) {

	m, err := New(2, 2, 25, []float64{1, 1}, 2, 1)
	require.NoError(t, err)

	tr1 := m.Sample(rand.NewSource(17))
	tr2 := m.Sample(rand.NewSource(17))

	assert.Equal(t, tr1, tr2)
}

func TestSampleAt(t *testing.T) {

	m, err := New(2, 2, 30, []float64{1, 1}, 2, 1)
	require.NoError(t, err)

	pi := []float64{0.5, 0.5}
	lambda := []float64{2, 9, 9, 2}

	tr := m.SampleAt(pi, lambda, rand.NewSource(2))

	// The generating parameters are copied, not aliased.
	pi[0] = 99
	lambda[0] = 99
	assert.Equal(t, 0.5, tr.Pi[0])
	assert.Equal(t, 2.0, tr.Lambda[0])

	for i := 0; i < 30; i++ {
		x, z := tr.Observation(i)
		require.Len(t, x, 2)
		assert.Equal(t, tr.Z[i], z)
	}

	assert.Panics(t, func() {
		m.SampleAt([]float64{1}, lambda, rand.NewSource(2))
	})
	assert.Panics(t, func() {
		m.SampleAt(tr.Pi, []float64{1, 2}, rand.NewSource(2))
	})
}

func TestAddSamples(t *testing.T) {

	m, err := New(2, 2, 15, []float64{1, 1}, 2, 1)
	require.NoError(t, err)

	st := NewSampleStore(m)
	src := rand.NewSource(9)

	require.NoError(t, m.AddSamples(st, 2, src))
	require.NoError(t, m.AddSamples(st, 3, src))

	require.Equal(t, 5, st.NumTrials())
	for i := 0; i < 5; i++ {
		tr, err := st.PickTrial(i)
		require.NoError(t, err)
		assert.Equal(t, i, tr.Index)
	}

	// A store belonging to a different model is rejected.
	m2, err := New(3, 2, 15, []float64{1, 1, 1}, 2, 1)
	require.NoError(t, err)
	assert.Error(t, m2.AddSamples(st, 1, src))
}
