package model

import (
	"gonum.org/v1/gonum/mat"
)

// Parameter is one learnable weight matrix together with its gradient
// accumulator. Values are mutated only by the optimizer; gradients are
// accumulated during the backward pass and cleared with ZeroGrad.
type Parameter struct {
	Name  string
	Value *mat.Dense
	Grad  *mat.Dense
}

func newParameter(name string, value *mat.Dense) *Parameter {
	rows, cols := value.Dims()
	return &Parameter{
		Name:  name,
		Value: value,
		Grad:  mat.NewDense(rows, cols, nil),
	}
}

// ZeroGrad clears the accumulated gradient.
func (p *Parameter) ZeroGrad() {
	p.Grad.Zero()
}

// colSums returns the per-column sums of m as a 1 x cols matrix.
func colSums(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(1, cols, nil)
	for j := 0; j < cols; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += m.At(i, j)
		}
		out.Set(0, j, sum)
	}
	return out
}

// addRowVector adds the 1 x cols matrix row to every row of dst.
func addRowVector(dst *mat.Dense, row *mat.Dense) {
	rows, cols := dst.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst.Set(i, j, dst.At(i, j)+row.At(0, j))
		}
	}
}
