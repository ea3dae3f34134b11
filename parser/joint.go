package parser

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Allocate estimates the six sex × age-band shares of a category total from
// its two marginals, assuming sex and age band are independent.
//
// The weights are the outer product of the sex vector and the age-band
// vector, normalised to sum to one, and each cell is its weight times
// total. When every marginal is zero the total is split evenly over the six
// cells. Negative, NaN or infinite marginals count as zero. A total that is
// not positive yields an all-zero table.
func Allocate(total float64, sex [2]float64, age [3]float64) Joint {
	var j Joint
	if !(total > 0) || math.IsInf(total, 1) {
		return j
	}

	sv := mat.NewVecDense(2, []float64{clamp(sex[Male]), clamp(sex[Female])})
	av := mat.NewVecDense(3, []float64{clamp(age[Band15To17]), clamp(age[Band18To24]), clamp(age[Band25To29])})

	var outer mat.Dense
	outer.Outer(1, sv, av)

	sum := floats.Sum(outer.RawMatrix().Data)
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			if sum > 0 {
				j[r][c] = outer.At(r, c) / sum * total
			} else {
				j[r][c] = total / 6
			}
		}
	}
	return j
}

// Sum returns the total of the six cells.
func (j Joint) Sum() float64 {
	return floats.Sum([]float64{j[0][0], j[0][1], j[0][2], j[1][0], j[1][1], j[1][2]})
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
