package pmmlib

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mathext"
)

// logFactorial computes log(n!) by direct summation.
func logFactorial(n int) float64 {

	var v float64
	for i := 2; i <= n; i++ {
		v += math.Log(float64(i))
	}

	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// A variational posterior equal to the priors, with no observations,
// diverges from the true posterior by exactly zero.
func TestDivergenceAtPriorIsZero(t *testing.T) {

	m, err := New(2, 3, 10, []float64{1.5, 2.5}, 2, 1)
	require.NoError(t, err)

	traj := &Trajectory{
		N:     0,
		K:     m.K,
		D:     m.D,
		Snaps: []Snapshot{*m.PriorStart(0)},
	}

	assert.InDelta(t, 0, m.Divergence(traj, nil, 0), 1e-12)
}

// For a single observation and a single component every quantity has a
// closed form that can be checked directly.
func TestDivergenceSingleObservation(t *testing.T) {

	m, err := New(1, 1, 1, []float64{2}, 3, 2)
	require.NoError(t, err)

	x := []float64{4}
	init := m.PriorStart(1)

	traj, err := m.Fit(x, 1, init, 1)
	require.NoError(t, err)

	// With one component the responsibility is always 1, so the
	// posterior hyperparameters follow immediately from the update
	// rule.
	snap := traj.Snaps[1]
	require.InDelta(t, 1, snap.Pi[0], 1e-12)
	require.InDelta(t, 7, snap.S[0], 1e-12)
	require.InDelta(t, 3, snap.R[0], 1e-12)
	require.InDelta(t, 3, snap.Alpha[0], 1e-12)

	// At the starting point the Gamma and Dirichlet terms vanish and
	// only the likelihood deficit remains.
	kl0 := 4*(math.Log(2)-mathext.Digamma(3)) + lgamma(5) + 3.0/2
	assert.InDelta(t, kl0, m.Divergence(traj, x, 0), 1e-10)

	kl1 := 4*(math.Log(3)-mathext.Digamma(7)) + lgamma(5) + 7.0/3
	kl3 := 3*(math.Log(3)-math.Log(2)) + (7-3)*mathext.Digamma(7) +
		(2.0/3-1)*7 + lgamma(3) - lgamma(7)
	assert.InDelta(t, kl1+kl3, m.Divergence(traj, x, 1), 1e-10)
}

func TestDivergenceLargeCountsStable(t *testing.T) {

	require.InDelta(t, logFactorial(5000), lgamma(5001), 1e-6)

	m, err := New(1, 1, 1, []float64{1}, 2, 1)
	require.NoError(t, err)

	x := []float64{5000}
	traj, err := m.Fit(x, 1, m.PriorStart(1), 3)
	require.NoError(t, err)

	for _, v := range m.DivergenceProfile(traj, x) {
		assert.True(t, finite(v), "divergence is not finite: %v", v)
	}
}

func TestDivergenceProfile(t *testing.T) {

	m, x, _, _, traj := fitSmall(t, 6)

	prof := m.DivergenceProfile(traj, x)
	require.Len(t, prof, 7)

	for i, v := range prof {
		assert.True(t, finite(v))
		assert.Equal(t, m.Divergence(traj, x, i), v)
	}
}

func TestDivergenceTable(t *testing.T) {

	m, err := New(2, 2, 20, []float64{1, 1}, 2, 1)
	require.NoError(t, err)

	st := NewSampleStore(m)
	require.NoError(t, m.AddSamples(st, 3, rand.NewSource(5)))

	init := m.RandomStart(20, rand.NewSource(7))

	tab, err := m.DivergenceTable(st, init, 5)
	require.NoError(t, err)

	assert.Equal(t, 6, tab.Iters)
	assert.Equal(t, 3, tab.Trials)
	require.Len(t, tab.Vals, 18)

	for _, v := range tab.Vals {
		assert.True(t, finite(v))
	}

	// Each column must agree exactly with a serial fit of its trial.
	for trial := 0; trial < 3; trial++ {
		tr, err := st.PickTrial(trial)
		require.NoError(t, err)

		traj, err := m.Fit(tr.X, st.N, init, 5)
		require.NoError(t, err)

		for i, v := range m.DivergenceProfile(traj, tr.X) {
			assert.Equal(t, v, tab.At(i, trial))
		}
	}

	// Rerunning the table reproduces it exactly, regardless of how the
	// trials were scheduled.
	tab2, err := m.DivergenceTable(st, init, 5)
	require.NoError(t, err)
	assert.Equal(t, tab.Vals, tab2.Vals)
}

func TestKLTableWriteCSV(t *testing.T) {

	tab := &KLTable{
		Iters:  2,
		Trials: 2,
		Vals:   []float64{1.5, -2.25, 0.5, 3},
	}

	var buf bytes.Buffer
	require.NoError(t, tab.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "iter,0,1", lines[0])
	assert.Equal(t, "0,1.500000,-2.250000", lines[1])
	assert.Equal(t, "1,0.500000,3.000000", lines[2])
}
