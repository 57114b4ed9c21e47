package main

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/rand"

	"github.com/ShingoMizuta/blog/pmmlib"
)

func main() {

	var k, d, n, ntrial int
	flag.IntVar(&k, "k", 2, "Number of mixture components")
	flag.IntVar(&d, "d", 2, "Dimension of each count vector")
	flag.IntVar(&n, "n", 100, "Number of observations per trial")
	flag.IntVar(&ntrial, "ntrial", 1, "Number of trials to generate")

	var alphastr string
	flag.StringVar(&alphastr, "alpha", "", "Dirichlet concentrations, comma separated (default all ones)")

	var s, r float64
	flag.Float64Var(&s, "s", 2, "Shape of the Gamma prior on the rates")
	flag.Float64Var(&r, "r", 1, "Rate of the Gamma prior on the rates")

	var seed uint64
	flag.Uint64Var(&seed, "seed", 0, "Random seed (0 seeds from the clock)")

	var outname string
	flag.StringVar(&outname, "outname", "", "Output file name")
	flag.Parse()

	if outname == "" {
		panic("'outname' is required")
	}

	alpha := make([]float64, k)
	if alphastr == "" {
		for i := range alpha {
			alpha[i] = 1
		}
	} else {
		fields := strings.Split(alphastr, ",")
		if len(fields) != k {
			panic("'alpha' must have one value per component")
		}
		for i, f := range fields {
			var err error
			alpha[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				panic(err)
			}
		}
	}

	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	src := rand.NewSource(seed)

	m, err := pmmlib.New(k, d, n, alpha, s, r)
	if err != nil {
		panic(err)
	}

	st := pmmlib.NewSampleStore(m)
	if err := m.AddSamples(st, ntrial, src); err != nil {
		panic(err)
	}

	if err := st.Save(outname); err != nil {
		panic(err)
	}
}
