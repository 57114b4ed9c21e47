package pmmlib

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
)

// Divergence returns the Kullback-Leibler divergence from the
// variational posterior at the given iteration of a trajectory to the
// true posterior of the observations in x, up to the additive model
// evidence term, which does not depend on the variational parameters.
// The value is not a distance and can be negative.  Panics if x does
// not match the trajectory.
func (m *PMM) Divergence(traj *Trajectory, x []float64, iter int) float64 {

	if len(x) != traj.N*m.D {
		panic("pmmlib: observations do not match the trajectory")
	}

	return m.divergence(&traj.Snaps[iter], x, traj.N)
}

// DivergenceProfile returns the divergence of every snapshot of a
// trajectory from the true posterior of x.
func (m *PMM) DivergenceProfile(traj *Trajectory, x []float64) []float64 {

	kl := make([]float64, len(traj.Snaps))
	for i := range traj.Snaps {
		kl[i] = m.Divergence(traj, x, i)
	}

	return kl
}

func (m *PMM) divergence(snap *Snapshot, x []float64, n int) float64 {

	K, D := m.K, m.D
	pi, s, r, alpha := snap.Pi, snap.S, snap.R, snap.Alpha

	psiS := make([]float64, K*D)
	for j := range s {
		psiS[j] = mathext.Digamma(s[j])
	}

	psiAlpha := make([]float64, K)
	for k := range alpha {
		psiAlpha[k] = mathext.Digamma(alpha[k])
	}
	alphaSum := floats.Sum(alpha)
	psiAlphaSum := mathext.Digamma(alphaSum)

	logr := make([]float64, K)
	for k := range r {
		logr[k] = math.Log(r[k])
	}

	occ := make([]float64, K)
	for i := 0; i < n; i++ {
		for k := 0; k < K; k++ {
			occ[k] += pi[i*K+k]
		}
	}

	// Responsibility-weighted deficit of the expected log-likelihood.
	// lnGamma(x+1) replaces log(x!) so that large counts do not
	// overflow.
	var kl1 float64
	for i := 0; i < n; i++ {
		for k := 0; k < K; k++ {
			var u float64
			for d := 0; d < D; d++ {
				xv := x[i*D+d]
				u += xv*(logr[k]-psiS[k*D+d]) + lgamma(xv+1)
			}
			kl1 += pi[i*K+k] * u
		}
	}
	for k := 0; k < K; k++ {
		var srow float64
		for d := 0; d < D; d++ {
			srow += s[k*D+d]
		}
		kl1 += occ[k] * srow / r[k]
	}

	// Entropy of the responsibilities against the expected log mixing
	// weights.  0*log(0) is treated as 0.
	var kl2 float64
	for i := 0; i < n; i++ {
		for k := 0; k < K; k++ {
			w := pi[i*K+k]
			if w > 0 {
				kl2 += w * math.Log(w)
			}
			kl2 -= w * (psiAlpha[k] - psiAlphaSum)
		}
	}

	// Divergence of the posterior Gamma distributions from their
	// priors.
	lgS := lgamma(m.S)
	logR := math.Log(m.R)
	var kl3 float64
	for k := 0; k < K; k++ {
		kl3 += float64(D) * m.S * (logr[k] - logR)
		var srow float64
		for d := 0; d < D; d++ {
			sv := s[k*D+d]
			kl3 += (sv-m.S)*psiS[k*D+d] + lgS - lgamma(sv)
			srow += sv
		}
		kl3 += (m.R/r[k] - 1) * srow
	}

	// Divergence of the posterior Dirichlet distribution from its
	// prior.
	kl4 := lgamma(alphaSum) - lgamma(floats.Sum(m.Alpha))
	for k := 0; k < K; k++ {
		kl4 += lgamma(m.Alpha[k]) - lgamma(alpha[k])
		kl4 += (alpha[k] - m.Alpha[k]) * (psiAlpha[k] - psiAlphaSum)
	}

	return kl1 + kl2 + kl3 + kl4
}

// KLTable holds the divergence of every fit iteration for every trial
// of a study, with iterations as rows and trials as columns.
type KLTable struct {

	// Number of rows, including the starting point
	Iters int

	// Number of columns
	Trials int

	// The divergences, stored by row
	Vals []float64
}

// At returns the divergence after iter iterations on the given trial.
func (t *KLTable) At(iter, trial int) float64 {
	return t.Vals[iter*t.Trials+trial]
}

// WriteCSV writes the table in CSV format with one column per trial.
func (t *KLTable) WriteCSV(w io.Writer) error {

	bw := bufio.NewWriter(w)

	_, _ = io.WriteString(bw, "iter")
	for j := 0; j < t.Trials; j++ {
		fmt.Fprintf(bw, ",%d", j)
	}
	_, _ = io.WriteString(bw, "\n")

	for i := 0; i < t.Iters; i++ {
		fmt.Fprintf(bw, "%d", i)
		for j := 0; j < t.Trials; j++ {
			fmt.Fprintf(bw, ",%f", t.Vals[i*t.Trials+j])
		}
		_, _ = io.WriteString(bw, "\n")
	}

	return bw.Flush()
}

// DivergenceTable fits every trial in the store from the same starting
// point and evaluates the divergence of every snapshot along the way.
// The table has niter+1 rows, the first of which is the divergence of
// the starting point itself.  The trials are fit concurrently; each one
// writes into its own column, so the result does not depend on
// scheduling.
func (m *PMM) DivergenceTable(st *SampleStore, init *Snapshot, niter int) (*KLTable, error) {

	ntrial := st.NumTrials()
	tab := &KLTable{
		Iters:  niter + 1,
		Trials: ntrial,
		Vals:   make([]float64, (niter+1)*ntrial),
	}

	bar := progressbar.New(ntrial)

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for trial := 0; trial < ntrial; trial++ {
		trial := trial
		g.Go(func() error {

			tr, err := st.PickTrial(trial)
			if err != nil {
				return err
			}

			traj, err := m.Fit(tr.X, st.N, init, niter)
			if err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}

			for it := range traj.Snaps {
				tab.Vals[it*ntrial+trial] = m.Divergence(traj, tr.X, it)
			}

			_ = bar.Add(1)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return tab, nil
}

func lgamma(v float64) float64 {
	lg, _ := math.Lgamma(v)
	return lg
}
