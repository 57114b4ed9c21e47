package pmmlib

import "gonum.org/v1/gonum/stat/combin"

// Labels returns the most probable component for each observation under
// the responsibilities of the final snapshot.
func (t *Trajectory) Labels() []int {

	last := &t.Snaps[len(t.Snaps)-1]

	z := make([]int, t.N)
	for i := 0; i < t.N; i++ {
		z[i] = argmax(last.Pi[i*t.K : (i+1)*t.K])
	}

	return z
}

// AlignAccuracy returns the fraction of positions where pred and truth
// agree, maximized over all relabelings of the k components, along with
// the relabeling that achieves it.  Component labels are arbitrary, so
// the sequences are compared up to a permutation.  Panics if the
// lengths of pred and truth differ.
func AlignAccuracy(pred, truth []int, k int) (float64, []int) {

	if len(pred) != len(truth) {
		panic("pmmlib: lengths are not equal")
	}

	if len(pred) == 0 {
		return 0, nil
	}

	var best float64
	var bestperm []int
	for _, perm := range combin.Permutations(k, k) {
		var agree int
		for i := range pred {
			if perm[pred[i]] == truth[i] {
				agree++
			}
		}
		acc := float64(agree) / float64(len(pred))
		if bestperm == nil || acc > best {
			best = acc
			bestperm = perm
		}
	}

	return best, bestperm
}
