package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// kaimingNormal fills a rows x cols matrix with a fan-in-scaled normal
// distribution (std = sqrt(2/fanIn)), suited to layers followed by a
// rectified-linear activation.
func kaimingNormal(rows, cols, fanIn int, rng *rand.Rand) *mat.Dense {
	scale := math.Sqrt(2.0 / float64(fanIn))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return mat.NewDense(rows, cols, data)
}

// xavierNormal fills a rows x cols matrix with Glorot-scaled normal
// values (std = sqrt(2/(rows+cols))).
func xavierNormal(rows, cols int, rng *rand.Rand) *mat.Dense {
	scale := math.Sqrt(2.0 / float64(rows+cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return mat.NewDense(rows, cols, data)
}

// orthogonal returns an n x n orthogonal matrix drawn via QR
// factorization of a random normal matrix. Column signs are corrected
// against the diagonal of R so the result is uniformly distributed.
func orthogonal(n int, rng *rand.Rand) *mat.Dense {
	data := make([]float64, n*n)
	for i := range data {
		data[i] = rng.NormFloat64()
	}

	var qr mat.QR
	qr.Factorize(mat.NewDense(n, n, data))

	q := mat.NewDense(n, n, nil)
	qr.QTo(q)

	var r mat.Dense
	qr.RTo(&r)
	for j := 0; j < n; j++ {
		if r.At(j, j) < 0 {
			for i := 0; i < n; i++ {
				q.Set(i, j, -q.At(i, j))
			}
		}
	}

	return q
}
