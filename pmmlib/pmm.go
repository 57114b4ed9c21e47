// Package pmmlib implements a Bayesian mixture of independent Poisson
// distributions for vectors of counts.  The mixing weights follow a
// Dirichlet prior and the component rates follow Gamma priors.  The
// package can simulate draws from the model, fit the variational
// posterior by coordinate ascent, and evaluate the Kullback-Leibler
// divergence between the variational posterior and the true posterior.
package pmmlib

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"gonum.org/v1/gonum/floats"
)

// PMM represents a mixture of independent Poisson distributions,
// together with its prior hyperparameters.
type PMM struct {

	// Number of mixture components
	K int

	// Dimension of each count vector
	D int

	// Number of observations per generated trial
	N int

	// Concentrations of the Dirichlet prior on the mixing weights
	Alpha []float64

	// Shape of the Gamma prior on the component rates
	S float64

	// Rate of the Gamma prior on the component rates
	R float64

	// Write log messages here
	msglogger *log.Logger
	parlogger *log.Logger
}

// New returns a PMM with the given dimensions and prior
// hyperparameters.  The slice alpha must have one concentration per
// component, and all hyperparameters must be strictly positive.
func New(k, d, n int, alpha []float64, s, r float64) (*PMM, error) {

	if k < 1 || d < 1 || n < 1 {
		return nil, fmt.Errorf("pmmlib: dimensions must be positive, got K=%d, D=%d, N=%d", k, d, n)
	}

	if len(alpha) != k {
		return nil, &ShapeMismatchError{Name: "alpha", Got: len(alpha), Want: k}
	}

	if err := checkPositive("alpha", alpha); err != nil {
		return nil, err
	}

	if err := checkPositiveScalar("s", s); err != nil {
		return nil, err
	}

	if err := checkPositiveScalar("r", r); err != nil {
		return nil, err
	}

	m := &PMM{
		K:     k,
		D:     d,
		N:     n,
		Alpha: make([]float64, k),
		S:     s,
		R:     r,
	}
	copy(m.Alpha, alpha)

	m.msglogger = log.New(os.Stderr, "", log.Ltime)
	m.parlogger = log.New(io.Discard, "", 0)

	return m, nil
}

// SetLogger creates the message and parameter log files under the given
// name prefix.
func (m *PMM) SetLogger(logname string) *log.Logger {

	fid, err := os.Create(logname + "_msg.log")
	if err != nil {
		panic(err)
	}
	m.msglogger = log.New(fid, "", log.Ltime)

	fid, err = os.Create(logname + "_par.log")
	if err != nil {
		panic(err)
	}
	m.parlogger = log.New(fid, "", 0)

	// The calling program can also use this logger
	return m.msglogger
}

// DescribeTrial writes a summary of one stored trial to the parameter
// log: the number of observations drawn from each component, and the
// mixing weights and rates that generated the trial.
func (m *PMM) DescribeTrial(st *SampleStore, trial int) error {

	tr, err := st.PickTrial(trial)
	if err != nil {
		return err
	}

	occ := make([]float64, m.K)
	for _, z := range tr.Z {
		occ[z]++
	}

	m.parlogger.Printf("Summary of trial %d:\n", trial)
	m.parlogger.Printf("%d components, dimension %d, %d observations\n", m.K, m.D, m.N)

	m.parlogger.Printf("\nObservations per component:\n")
	m.writeMatrix(occ, 1, m.K)

	m.parlogger.Printf("\nGenerating mixing weights:\n")
	m.writeMatrix(tr.Pi, 1, m.K)

	m.parlogger.Printf("\nGenerating rates:\n")
	m.writeMatrix(tr.Lambda, m.K, m.D)
	m.parlogger.Printf("\n")

	return nil
}

// WriteSummary writes the posterior parameters of the final snapshot of
// a trajectory to the parameter log.
func (m *PMM) WriteSummary(traj *Trajectory, title string) {

	snap := &traj.Snaps[len(traj.Snaps)-1]

	m.parlogger.Printf("%s\n", title)

	m.parlogger.Printf("\nPosterior Dirichlet concentrations:\n")
	m.writeMatrix(snap.Alpha, 1, m.K)

	m.parlogger.Printf("\nPosterior Gamma shapes:\n")
	m.writeMatrix(snap.S, m.K, m.D)

	m.parlogger.Printf("\nPosterior Gamma rates:\n")
	m.writeMatrix(snap.R, 1, m.K)
	m.parlogger.Printf("\n")
}

// writeMatrix writes a matrix in text format to the parameter log.
func (m *PMM) writeMatrix(x []float64, nrow, ncol int) {

	var buf bytes.Buffer

	for i := 0; i < nrow; i++ {

		buf.Reset()

		for j := 0; j < ncol; j++ {
			_, _ = io.WriteString(&buf, fmt.Sprintf("%12.4f ", x[i*ncol+j]))
		}

		m.parlogger.Printf("%s", buf.String())
	}
}

// normalize the values in x to have a sum of 1.  If the sum underflows,
// every value is set to z instead.
func normalizeSum(x []float64, z float64) {
	scale := floats.Sum(x)
	if scale < 1e-10 {
		for j := range x {
			x[j] = z
		}
		return
	}
	floats.Scale(1/scale, x)
}

func argmax(x []float64) int {
	j := 0
	v := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > v {
			v = x[i]
			j = i
		}
	}

	return j
}
