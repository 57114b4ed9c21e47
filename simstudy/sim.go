package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/exec"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	logger *log.Logger

	out io.WriteCloser
)

// study describes one simulation scenario: the generating model, the
// number of replications, and the iteration counts to sweep.
type study struct {
	K        int       `toml:"k"`
	D        int       `toml:"d"`
	N        int       `toml:"n"`
	Alpha    []float64 `toml:"alpha"`
	S        float64   `toml:"s"`
	R        float64   `toml:"r"`
	NTrial   int       `toml:"ntrial"`
	Reps     int       `toml:"reps"`
	Niter    []int     `toml:"niter"`
	Restarts int       `toml:"restarts"`
	Gobfile  string    `toml:"gobfile"`
}

var basestudy = study{
	K:        2,
	D:        2,
	N:        100,
	Alpha:    []float64{1, 1},
	S:        2,
	R:        1,
	NTrial:   5,
	Reps:     10,
	Niter:    []int{1, 2, 5, 10, 20, 40},
	Restarts: 3,
	Gobfile:  "tmp.gob.gz",
}

func alphaArg(alpha []float64) string {

	fields := make([]string, len(alpha))
	for i, a := range alpha {
		fields[i] = fmt.Sprintf("%g", a)
	}

	return strings.Join(fields, ",")
}

func generate(g *study, rep int) {

	c := []string{"run", "../generate/main.go",
		fmt.Sprintf("-k=%d", g.K),
		fmt.Sprintf("-d=%d", g.D),
		fmt.Sprintf("-n=%d", g.N),
		fmt.Sprintf("-ntrial=%d", g.NTrial),
		fmt.Sprintf("-alpha=%s", alphaArg(g.Alpha)),
		fmt.Sprintf("-s=%f", g.S),
		fmt.Sprintf("-r=%f", g.R),
		fmt.Sprintf("-seed=%d", rep+1),
		fmt.Sprintf("-outname=%s", g.Gobfile),
	}

	logger.Printf("go %s\n", strings.Join(c, " "))

	cmd := exec.Command("go", c...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(err)
	}
}

func fit(g *study, rep, niter int) string {

	logname := path.Join("logs", fmt.Sprintf("pmm_%d_%d", rep, niter))

	c := []string{"run", "../estimate/main.go",
		fmt.Sprintf("-gobfile=%s", g.Gobfile),
		fmt.Sprintf("-trial=%d", 0),
		fmt.Sprintf("-niter=%d", niter),
		fmt.Sprintf("-restarts=%d", g.Restarts),
		fmt.Sprintf("-seed=%d", 1000*(rep+1)+niter),
		fmt.Sprintf("-logname=%s", logname),
		fmt.Sprintf("-klout=%s", path.Join("logs", fmt.Sprintf("kl_%d_%d.csv", rep, niter))),
	}

	logger.Printf("go %s\n", strings.Join(c, " "))

	cmd := exec.Command("go", c...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(err)
	}

	return logname
}

// collect scrapes the accuracy and final divergence of one estimation
// run out of its message log.
func collect(logname string) (float64, float64) {

	fid, err := os.Open(logname + "_msg.log")
	if err != nil {
		panic(err)
	}
	defer fid.Close()

	accre := regexp.MustCompile(`accuracy: ([0-9.eE+-]+)`)
	klre := regexp.MustCompile(`final divergence: ([0-9.eE+-]+)`)

	acc := math.NaN()
	kl := math.NaN()

	scanner := bufio.NewScanner(fid)
	for scanner.Scan() {

		line := scanner.Text()

		if ma := accre.FindStringSubmatch(line); ma != nil {
			acc, err = strconv.ParseFloat(ma[1], 64)
			if err != nil {
				panic(err)
			}
		}

		if ma := klre.FindStringSubmatch(line); ma != nil {
			kl, err = strconv.ParseFloat(ma[1], 64)
			if err != nil {
				panic(err)
			}
		}
	}

	return acc, kl
}

func run(g *study) {

	for rep := 0; rep < g.Reps; rep++ {

		generate(g, rep)

		for _, niter := range g.Niter {
			logname := fit(g, rep, niter)
			acc, kl := collect(logname)
			_, _ = io.WriteString(out, fmt.Sprintf("%d,%d,%d,%d,%d,%.4f,%.4f\n",
				g.K, g.D, g.N, niter, rep, acc, kl))
		}
	}
}

func main() {

	config := flag.String("config", "", "TOML file overriding the base study")
	flag.Parse()

	g := basestudy
	if *config != "" {
		if _, err := toml.DecodeFile(*config, &g); err != nil {
			panic(err)
		}
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		panic(err)
	}

	var err error
	out, err = os.Create("result.csv")
	if err != nil {
		panic(err)
	}
	defer out.Close()

	head := "K,D,N,Niter,Rep,Accuracy,Divergence\n"
	_, _ = io.WriteString(out, head)

	lfid, err := os.Create("sim.log")
	if err != nil {
		panic(err)
	}
	defer lfid.Close()
	logger = log.New(lfid, "", log.Ltime)

	run(&g)
}
