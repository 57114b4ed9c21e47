package pmmlib

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Trial holds one generated batch of observations along with the
// parameter values that produced it.
type Trial struct {

	// Position of the trial within its store
	Index int

	// The mixing weights drawn for this trial
	Pi []float64

	// The K x D rate matrix drawn for this trial, stored by row
	Lambda []float64

	// The N x D observed counts, stored by row
	X []float64

	// The component that generated each observation
	Z []int
}

// Observation returns the i'th count vector of the trial and the
// component that generated it.
func (t *Trial) Observation(i int) ([]float64, int) {

	d := len(t.X) / len(t.Z)
	return t.X[i*d : (i+1)*d], t.Z[i]
}

// Sample draws mixing weights and a rate matrix from the priors, then
// generates one trial of N observations from them.
func (m *PMM) Sample(src rand.Source) Trial {

	pi := distmv.NewDirichlet(m.Alpha, src).Rand(nil)

	g := distuv.Gamma{Alpha: m.S, Beta: m.R, Src: src}
	lambda := make([]float64, m.K*m.D)
	for j := range lambda {
		lambda[j] = g.Rand()
	}

	return m.SampleAt(pi, lambda, src)
}

// SampleAt generates one trial of N observations using the given mixing
// weights and K x D rate matrix.  The parameters are copied into the
// returned trial.  Panics if the parameter shapes do not match the
// model.
func (m *PMM) SampleAt(pi, lambda []float64, src rand.Source) Trial {

	if len(pi) != m.K || len(lambda) != m.K*m.D {
		panic("pmmlib: parameter shapes do not match the model")
	}

	cat := distuv.NewCategorical(pi, src)

	x := make([]float64, m.N*m.D)
	z := make([]int, m.N)
	for i := 0; i < m.N; i++ {
		k := int(cat.Rand())
		z[i] = k
		for d := 0; d < m.D; d++ {
			pd := distuv.Poisson{Lambda: lambda[k*m.D+d], Src: src}
			x[i*m.D+d] = pd.Rand()
		}
	}

	tr := Trial{
		Pi:     make([]float64, m.K),
		Lambda: make([]float64, m.K*m.D),
		X:      x,
		Z:      z,
	}
	copy(tr.Pi, pi)
	copy(tr.Lambda, lambda)

	return tr
}

// AddSamples draws ntrial new trials from the model and appends them to
// the store.
func (m *PMM) AddSamples(st *SampleStore, ntrial int, src rand.Source) error {

	if st.K != m.K || st.D != m.D || st.N != m.N {
		return fmt.Errorf("pmmlib: store dimensions (K=%d, D=%d, N=%d) do not match the model (K=%d, D=%d, N=%d)",
			st.K, st.D, st.N, m.K, m.D, m.N)
	}

	for i := 0; i < ntrial; i++ {
		st.Add(m.Sample(src))
	}

	return nil
}
