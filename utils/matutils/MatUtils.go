// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/utils/floatutils"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// VecOnes returns a vector of 1.0's
func VecOnes(length int) *mat.VecDense {
	return mat.NewVecDense(length, floatutils.Ones(length))
}

// AllFinite returns whether all elements of v are finite
func AllFinite(v mat.Vector) bool {
	for i := 0; i < v.Len(); i++ {
		if !floatutils.IsFinite(v.AtVec(i)) {
			return false
		}
	}
	return true
}
