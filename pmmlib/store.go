package pmmlib

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/klauspost/compress/gzip"
)

// SampleStore accumulates generated trials together with the dimensions
// and prior hyperparameters of the model that produced them.  Trials
// are append-only and are identified by their position.
type SampleStore struct {

	// Dimensions of the generating model
	K, D, N int

	// Prior hyperparameters of the generating model
	Alpha []float64
	S, R  float64

	// The stored trials
	Trials []Trial
}

// NewSampleStore returns an empty store for trials generated by m.
func NewSampleStore(m *PMM) *SampleStore {

	st := &SampleStore{
		K:     m.K,
		D:     m.D,
		N:     m.N,
		Alpha: make([]float64, m.K),
		S:     m.S,
		R:     m.R,
	}
	copy(st.Alpha, m.Alpha)

	return st
}

// Add appends a trial to the store and returns its index.
func (st *SampleStore) Add(t Trial) int {

	t.Index = len(st.Trials)
	st.Trials = append(st.Trials, t)

	return t.Index
}

// NumTrials returns the number of stored trials.
func (st *SampleStore) NumTrials() int {
	return len(st.Trials)
}

// PickTrial returns the stored trial with the given index.
func (st *SampleStore) PickTrial(trial int) (*Trial, error) {

	if trial < 0 || trial >= len(st.Trials) {
		return nil, fmt.Errorf("pmmlib: no trial %d in a store of %d trials", trial, len(st.Trials))
	}

	return &st.Trials[trial], nil
}

// Model reconstructs the generating model from the stored
// hyperparameters.
func (st *SampleStore) Model() (*PMM, error) {
	return New(st.K, st.D, st.N, st.Alpha, st.S, st.R)
}

// Save writes the store to a gzip-compressed gob file.
func (st *SampleStore) Save(fname string) error {

	fid, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer fid.Close()

	gid := gzip.NewWriter(fid)

	enc := gob.NewEncoder(gid)
	if err := enc.Encode(st); err != nil {
		return err
	}

	return gid.Close()
}

// LoadStore reads a store written by Save.
func LoadStore(fname string) (*SampleStore, error) {

	fid, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fid.Close()

	gid, err := gzip.NewReader(fid)
	if err != nil {
		return nil, err
	}
	defer gid.Close()

	dec := gob.NewDecoder(gid)

	var st SampleStore
	if err := dec.Decode(&st); err != nil {
		return nil, err
	}

	return &st, nil
}
