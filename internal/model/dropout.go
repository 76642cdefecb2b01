package model

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// dropout randomly zeroes elements of a batch with probability p and
// scales survivors by 1/(1-p), so expected activations match inference.
// In inference mode it is the identity. The returned mask is needed for
// the backward pass.
type dropout struct {
	p   float64
	rng *rand.Rand
}

func newDropout(p float64, rng *rand.Rand) *dropout {
	return &dropout{p: p, rng: rng}
}

func (d *dropout) forward(x *mat.Dense, training bool) (out, mask *mat.Dense) {
	rows, cols := x.Dims()
	if !training || d.p == 0 {
		out = mat.NewDense(rows, cols, nil)
		out.Copy(x)
		return out, nil
	}

	keep := 1 - d.p
	mask = mat.NewDense(rows, cols, nil)
	out = mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if d.rng.Float64() < keep {
				mask.Set(i, j, 1/keep)
				out.Set(i, j, x.At(i, j)/keep)
			}
		}
	}
	return out, mask
}

func (d *dropout) backward(dy, mask *mat.Dense) *mat.Dense {
	if mask == nil {
		return dy
	}
	rows, cols := dy.Dims()
	dx := mat.NewDense(rows, cols, nil)
	dx.MulElem(dy, mask)
	return dx
}
