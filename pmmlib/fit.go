package pmmlib

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
)

// Snapshot holds the variational parameters at one point of a fit: the
// responsibilities of each observation and the posterior Gamma and
// Dirichlet hyperparameters.
type Snapshot struct {

	// The N x K responsibilities, stored by row
	Pi []float64

	// The K x D posterior Gamma shapes, stored by row
	S []float64

	// The K posterior Gamma rates
	R []float64

	// The K posterior Dirichlet concentrations
	Alpha []float64
}

// Trajectory is the sequence of snapshots visited by a fit, beginning
// with the starting point.
type Trajectory struct {

	// Number of observations that were fit
	N int

	// Model dimensions
	K, D int

	// Snaps[i] holds the parameters after i coordinate ascent iterations
	Snaps []Snapshot
}

func (s *Snapshot) clone() Snapshot {

	c := Snapshot{
		Pi:    make([]float64, len(s.Pi)),
		S:     make([]float64, len(s.S)),
		R:     make([]float64, len(s.R)),
		Alpha: make([]float64, len(s.Alpha)),
	}
	copy(c.Pi, s.Pi)
	copy(c.S, s.S)
	copy(c.R, s.R)
	copy(c.Alpha, s.Alpha)

	return c
}

// PriorStart returns a starting point for fitting n observations, with
// uniform responsibilities and the posterior hyperparameters set to the
// priors.
func (m *PMM) PriorStart(n int) *Snapshot {

	pi := make([]float64, n*m.K)
	for j := range pi {
		pi[j] = 1 / float64(m.K)
	}

	s := make([]float64, m.K*m.D)
	for j := range s {
		s[j] = m.S
	}

	r := make([]float64, m.K)
	alpha := make([]float64, m.K)
	for k := 0; k < m.K; k++ {
		r[k] = m.R
		alpha[k] = m.Alpha[k]
	}

	return &Snapshot{Pi: pi, S: s, R: r, Alpha: alpha}
}

// RandomStart returns a starting point for fitting n observations, with
// randomized responsibilities and randomly perturbed posterior Gamma
// shapes.  The coordinate ascent updates recompute the responsibilities
// from the hyperparameters before using them, so it is the shape
// perturbation that distinguishes the components at the start.
func (m *PMM) RandomStart(n int, src rand.Source) *Snapshot {

	rnd := rand.New(src)
	snap := m.PriorStart(n)

	for i := 0; i < n; i++ {
		row := snap.Pi[i*m.K : (i+1)*m.K]
		for k := range row {
			row[k] = rnd.Float64()
		}
		normalizeSum(row, 1/float64(m.K))
	}

	for j := range snap.S {
		snap.S[j] = m.S * (0.8 + 0.4*rnd.Float64())
	}

	return snap
}

// Fit runs niter coordinate ascent iterations of the variational
// posterior for the n observations in x, starting from init.  Each row
// of x is a count vector of length D.  The returned trajectory contains
// niter+1 snapshots, the first of which is a copy of init.  Neither x
// nor init is modified.
func (m *PMM) Fit(x []float64, n int, init *Snapshot, niter int) (*Trajectory, error) {

	if err := m.checkFitInputs(x, n, init, niter); err != nil {
		return nil, err
	}

	traj := &Trajectory{
		N:     n,
		K:     m.K,
		D:     m.D,
		Snaps: make([]Snapshot, 0, niter+1),
	}
	traj.Snaps = append(traj.Snaps, init.clone())

	var ndegen int
	for it := 0; it < niter; it++ {
		prev := &traj.Snaps[len(traj.Snaps)-1]
		snap, nd := m.step(x, n, prev, init)
		ndegen += nd
		traj.Snaps = append(traj.Snaps, snap)
	}

	if ndegen > 0 {
		m.msglogger.Printf("Numeric degeneracy in %d responsibility rows, reset to uniform", ndegen)
	}

	return traj, nil
}

func (m *PMM) checkFitInputs(x []float64, n int, init *Snapshot, niter int) error {

	if n < 1 {
		return fmt.Errorf("pmmlib: need at least one observation, got %d", n)
	}

	if niter < 0 {
		return fmt.Errorf("pmmlib: negative iteration count %d", niter)
	}

	if len(x) != n*m.D {
		return &ShapeMismatchError{Name: "x", Got: len(x), Want: n * m.D}
	}

	if init == nil {
		return fmt.Errorf("pmmlib: no starting point")
	}

	if len(init.Pi) != n*m.K {
		return &ShapeMismatchError{Name: "pi", Got: len(init.Pi), Want: n * m.K}
	}

	if len(init.S) != m.K*m.D {
		return &ShapeMismatchError{Name: "s", Got: len(init.S), Want: m.K * m.D}
	}

	if len(init.R) != m.K {
		return &ShapeMismatchError{Name: "r", Got: len(init.R), Want: m.K}
	}

	if len(init.Alpha) != m.K {
		return &ShapeMismatchError{Name: "alpha", Got: len(init.Alpha), Want: m.K}
	}

	if err := checkPositive("s", init.S); err != nil {
		return err
	}

	if err := checkPositive("r", init.R); err != nil {
		return err
	}

	return checkPositive("alpha", init.Alpha)
}

// step performs one coordinate ascent iteration.  The responsibilities
// are recomputed from the hyperparameters of prev, then the posterior
// hyperparameters are rebuilt from the new responsibilities.  The
// hyperparameters of init are re-added on every iteration rather than
// accumulated across iterations.  Returns the new snapshot and the
// number of responsibility rows that were reset to uniform.
func (m *PMM) step(x []float64, n int, prev, init *Snapshot) (Snapshot, int) {

	K, D := m.K, m.D

	// Expected log rate for each component and dimension, and the part
	// of each log responsibility that does not depend on the
	// observation.
	psiAlphaSum := mathext.Digamma(floats.Sum(prev.Alpha))
	elr := make([]float64, K*D)
	base := make([]float64, K)
	for k := 0; k < K; k++ {
		lr := math.Log(prev.R[k])
		var sr float64
		for d := 0; d < D; d++ {
			elr[k*D+d] = mathext.Digamma(prev.S[k*D+d]) - lr
			sr += prev.S[k*D+d] / prev.R[k]
		}
		base[k] = mathext.Digamma(prev.Alpha[k]) - psiAlphaSum - sr
	}

	pi := make([]float64, n*K)
	wk := make([]float64, K)
	var ndegen int
	for i := 0; i < n; i++ {
		xrow := x[i*D : (i+1)*D]
		for k := 0; k < K; k++ {
			var u float64
			for d := 0; d < D; d++ {
				u += xrow[d] * elr[k*D+d]
			}
			wk[k] = u + base[k]
		}

		lse := floats.LogSumExp(wk)
		prow := pi[i*K : (i+1)*K]
		if math.IsNaN(lse) || math.IsInf(lse, 0) {
			for k := range prow {
				prow[k] = 1 / float64(K)
			}
			ndegen++
			continue
		}
		for k := 0; k < K; k++ {
			prow[k] = math.Exp(wk[k] - lse)
		}
	}

	s := make([]float64, K*D)
	copy(s, init.S)
	occ := make([]float64, K)
	for i := 0; i < n; i++ {
		for k := 0; k < K; k++ {
			w := pi[i*K+k]
			occ[k] += w
			for d := 0; d < D; d++ {
				s[k*D+d] += w * x[i*D+d]
			}
		}
	}

	r := make([]float64, K)
	alpha := make([]float64, K)
	for k := 0; k < K; k++ {
		r[k] = occ[k] + init.R[k]
		alpha[k] = occ[k] + init.Alpha[k]
	}

	return Snapshot{Pi: pi, S: s, R: r, Alpha: alpha}, ndegen
}
