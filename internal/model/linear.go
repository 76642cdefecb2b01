package model

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Linear is a fully connected layer mapping [batch, in] to [batch, out].
type Linear struct {
	in, out int
	weight  *Parameter // [in, out]
	bias    *Parameter // [1, out]
}

func newLinear(name string, in, out int, rng *rand.Rand) *Linear {
	return &Linear{
		in:     in,
		out:    out,
		weight: newParameter(name+".weight", xavierNormal(in, out, rng)),
		bias:   newParameter(name+".bias", mat.NewDense(1, out, nil)),
	}
}

func (l *Linear) parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// forward computes x*W + b for a batch x of shape [batch, in].
func (l *Linear) forward(x *mat.Dense) *mat.Dense {
	rows, _ := x.Dims()
	y := mat.NewDense(rows, l.out, nil)
	y.Mul(x, l.weight.Value)
	addRowVector(y, l.bias.Value)
	return y
}

// backward accumulates parameter gradients for the batch that produced
// dy and returns the gradient with respect to the layer input. x must be
// the same batch passed to forward.
func (l *Linear) backward(x, dy *mat.Dense) *mat.Dense {
	var dw mat.Dense
	dw.Mul(x.T(), dy)
	l.weight.Grad.Add(l.weight.Grad, &dw)
	l.bias.Grad.Add(l.bias.Grad, colSums(dy))

	rows, _ := x.Dims()
	dx := mat.NewDense(rows, l.in, nil)
	dx.Mul(dy, l.weight.Value.T())
	return dx
}
