package pmmlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels(t *testing.T) {

	traj := &Trajectory{
		N: 3,
		K: 2,
		D: 2,
		Snaps: []Snapshot{{
			Pi: []float64{
				0.9, 0.1,
				0.2, 0.8,
				0.6, 0.4,
			},
		}},
	}

	assert.Equal(t, []int{0, 1, 0}, traj.Labels())
}

func TestAlignAccuracyRelabeled(t *testing.T) {

	truth := []int{0, 1, 2, 0, 1, 2, 2, 0}

	// Relabel the truth through a fixed permutation; the best
	// relabeling must recover perfect agreement.
	relabel := []int{2, 0, 1}
	pred := make([]int, len(truth))
	for i, z := range truth {
		pred[i] = relabel[z]
	}

	acc, perm := AlignAccuracy(pred, truth, 3)
	assert.Equal(t, 1.0, acc)

	require.Len(t, perm, 3)
	for i, z := range truth {
		assert.Equal(t, z, perm[pred[i]])
	}
}

func TestAlignAccuracyPartial(t *testing.T) {

	truth := []int{0, 0, 0, 0}
	pred := []int{0, 0, 1, 1}

	acc, _ := AlignAccuracy(pred, truth, 2)
	assert.Equal(t, 0.5, acc)
}

func TestAlignAccuracyLengthMismatch(t *testing.T) {

	assert.Panics(t, func() {
		AlignAccuracy([]int{0, 1}, []int{0}, 2)
	})
}
