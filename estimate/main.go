package main

import (
	"flag"
	"io"
	"log"
	"math"
	"os"

	"golang.org/x/exp/rand"

	"github.com/ShingoMizuta/blog/pmmlib"
)

var (
	logger *log.Logger
)

func main() {

	gobname := flag.String("gobfile", "", "The data file")
	trial := flag.Int("trial", 0, "Trial to fit")
	niter := flag.Int("niter", 20, "Number of coordinate ascent iterations")
	restarts := flag.Int("restarts", 3, "Number of random restarts")
	seed := flag.Uint64("seed", 1, "Random seed")
	logname := flag.String("logname", "pmm", "Prefix of log file")
	klout := flag.String("klout", "kl.csv", "Divergence table output file")
	flag.Parse()

	if *gobname == "" {
		_, _ = io.WriteString(os.Stderr, "'gobfile' is a required argument")
		os.Exit(1)
	}

	st, err := pmmlib.LoadStore(*gobname)
	if err != nil {
		panic(err)
	}

	m, err := st.Model()
	if err != nil {
		panic(err)
	}
	logger = m.SetLogger(*logname)

	if err := m.DescribeTrial(st, *trial); err != nil {
		panic(err)
	}

	tr, err := st.PickTrial(*trial)
	if err != nil {
		panic(err)
	}

	src := rand.NewSource(*seed)

	// Fit from several random starting points and keep the run with
	// the smallest final divergence.
	var best *pmmlib.Trajectory
	var bestinit *pmmlib.Snapshot
	bestkl := math.Inf(1)
	for j := 0; j < *restarts; j++ {

		init := m.RandomStart(st.N, src)
		traj, err := m.Fit(tr.X, st.N, init, *niter)
		if err != nil {
			panic(err)
		}

		kl := m.Divergence(traj, tr.X, *niter)
		logger.Printf("Restart %d: final divergence %f", j, kl)

		if kl < bestkl {
			bestkl = kl
			best = traj
			bestinit = init
		}
	}

	if best == nil {
		panic("no usable restart")
	}

	m.WriteSummary(best, "Estimated posterior parameters:")
	logger.Printf("final divergence: %f", bestkl)

	// Compare the reconstructed labels to the truth, up to relabeling
	// of the components.
	labels := best.Labels()
	acc, perm := pmmlib.AlignAccuracy(labels, tr.Z, st.K)
	logger.Printf("Best relabeling: %v", perm)
	logger.Printf("accuracy: %f", acc)

	// Evaluate the divergence of every stored trial from the best
	// starting point.
	tab, err := m.DivergenceTable(st, bestinit, *niter)
	if err != nil {
		panic(err)
	}

	fid, err := os.Create(*klout)
	if err != nil {
		panic(err)
	}
	defer fid.Close()

	if err := tab.WriteCSV(fid); err != nil {
		panic(err)
	}
}
