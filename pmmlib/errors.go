package pmmlib

import "fmt"

// ShapeMismatchError indicates an input whose dimensions do not agree
// with the model's K and D.
type ShapeMismatchError struct {
	Name string
	Got  int
	Want int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("pmmlib: %s has %d elements, want %d", e.Name, e.Got, e.Want)
}

// InvalidHyperparameterError indicates a hyperparameter that is not
// strictly positive.  Index is -1 for scalar hyperparameters.
type InvalidHyperparameterError struct {
	Name  string
	Index int
	Value float64
}

func (e *InvalidHyperparameterError) Error() string {

	if e.Index < 0 {
		return fmt.Sprintf("pmmlib: %s = %v is not positive", e.Name, e.Value)
	}

	return fmt.Sprintf("pmmlib: %s[%d] = %v is not positive", e.Name, e.Index, e.Value)
}

// checkPositive returns an error if any element of x is not strictly
// positive.  NaN values are rejected as well.
func checkPositive(name string, x []float64) error {

	for i, v := range x {
		if !(v > 0) {
			return &InvalidHyperparameterError{Name: name, Index: i, Value: v}
		}
	}

	return nil
}

func checkPositiveScalar(name string, v float64) error {

	if !(v > 0) {
		return &InvalidHyperparameterError{Name: name, Index: -1, Value: v}
	}

	return nil
}
