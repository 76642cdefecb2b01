package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// lstmLayer is a single recurrent layer with input, forget, cell and
// output gates. Gate weights are stacked row-wise in i, f, g, o order:
// weightInput is [4H, in], weightHidden is [4H, H], biases are [1, 4H].
type lstmLayer struct {
	inputSize  int
	hiddenSize int

	weightInput  *Parameter
	weightHidden *Parameter
	biasInput    *Parameter
	biasHidden   *Parameter
}

// lstmStepCache holds the per-step activations required by the backward
// pass.
type lstmStepCache struct {
	input      *mat.Dense // [B, in]
	hiddenPrev *mat.Dense // [B, H]
	cellPrev   *mat.Dense // [B, H]
	gateI      *mat.Dense
	gateF      *mat.Dense
	gateG      *mat.Dense
	gateO      *mat.Dense
	cell       *mat.Dense
	cellTanh   *mat.Dense
}

// lstmLayerCache is the full unrolled forward trace of one layer.
type lstmLayerCache struct {
	steps   []lstmStepCache
	outputs []*mat.Dense // hidden state per step, [B, H]
}

func newLSTMLayer(name string, inputSize, hiddenSize int, rng *rand.Rand) *lstmLayer {
	// Recurrent biases start at zero; input-to-hidden weights use
	// fan-in-aware normal init, hidden-to-hidden weights are orthogonal
	// per gate block to preserve gradient norm across steps.
	wih := kaimingNormal(4*hiddenSize, inputSize, inputSize, rng)

	whh := mat.NewDense(4*hiddenSize, hiddenSize, nil)
	for gate := 0; gate < 4; gate++ {
		block := orthogonal(hiddenSize, rng)
		for i := 0; i < hiddenSize; i++ {
			for j := 0; j < hiddenSize; j++ {
				whh.Set(gate*hiddenSize+i, j, block.At(i, j))
			}
		}
	}

	return &lstmLayer{
		inputSize:    inputSize,
		hiddenSize:   hiddenSize,
		weightInput:  newParameter(name+".weight_ih", wih),
		weightHidden: newParameter(name+".weight_hh", whh),
		biasInput:    newParameter(name+".bias_ih", mat.NewDense(1, 4*hiddenSize, nil)),
		biasHidden:   newParameter(name+".bias_hh", mat.NewDense(1, 4*hiddenSize, nil)),
	}
}

func (l *lstmLayer) parameters() []*Parameter {
	return []*Parameter{l.weightInput, l.weightHidden, l.biasInput, l.biasHidden}
}

// forward unrolls the layer over the input sequence. States start at
// zero for every batch. Returns the hidden state of every step and the
// cache for backpropagation.
func (l *lstmLayer) forward(inputs []*mat.Dense) *lstmLayerCache {
	batch, _ := inputs[0].Dims()
	h := mat.NewDense(batch, l.hiddenSize, nil)
	c := mat.NewDense(batch, l.hiddenSize, nil)

	cache := &lstmLayerCache{
		steps:   make([]lstmStepCache, len(inputs)),
		outputs: make([]*mat.Dense, len(inputs)),
	}

	for t, x := range inputs {
		// Gate pre-activations: x*Wih^T + h*Whh^T + bih + bhh.
		pre := mat.NewDense(batch, 4*l.hiddenSize, nil)
		pre.Mul(x, l.weightInput.Value.T())

		var rec mat.Dense
		rec.Mul(h, l.weightHidden.Value.T())
		pre.Add(pre, &rec)
		addRowVector(pre, l.biasInput.Value)
		addRowVector(pre, l.biasHidden.Value)

		H := l.hiddenSize
		gi := applyColumns(pre, 0*H, H, sigmoid)
		gf := applyColumns(pre, 1*H, H, sigmoid)
		gg := applyColumns(pre, 2*H, H, math.Tanh)
		gout := applyColumns(pre, 3*H, H, sigmoid)

		cNext := mat.NewDense(batch, H, nil)
		cNext.MulElem(gf, c)
		var ig mat.Dense
		ig.MulElem(gi, gg)
		cNext.Add(cNext, &ig)

		cTanh := mat.NewDense(batch, H, nil)
		cTanh.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, cNext)

		hNext := mat.NewDense(batch, H, nil)
		hNext.MulElem(gout, cTanh)

		cache.steps[t] = lstmStepCache{
			input:      x,
			hiddenPrev: h,
			cellPrev:   c,
			gateI:      gi,
			gateF:      gf,
			gateG:      gg,
			gateO:      gout,
			cell:       cNext,
			cellTanh:   cTanh,
		}
		cache.outputs[t] = hNext

		h = hNext
		c = cNext
	}

	return cache
}

// backward runs truncation-free backpropagation through time. dOutputs
// holds the gradient flowing into the hidden state of each step (from
// the layer above and, at the final step, from the model head); entries
// may be nil when no gradient arrives at that step. Parameter gradients
// are accumulated in place; the gradient with respect to each step's
// input is returned for the layer below.
func (l *lstmLayer) backward(cache *lstmLayerCache, dOutputs []*mat.Dense) []*mat.Dense {
	steps := len(cache.steps)
	batch, _ := cache.steps[0].input.Dims()
	H := l.hiddenSize

	dInputs := make([]*mat.Dense, steps)
	dhNext := mat.NewDense(batch, H, nil)
	dcNext := mat.NewDense(batch, H, nil)

	for t := steps - 1; t >= 0; t-- {
		st := cache.steps[t]

		dh := mat.NewDense(batch, H, nil)
		dh.Copy(dhNext)
		if dOutputs[t] != nil {
			dh.Add(dh, dOutputs[t])
		}

		// dC = dCnext + dh * o * (1 - tanh(c)^2)
		dc := mat.NewDense(batch, H, nil)
		for i := 0; i < batch; i++ {
			for j := 0; j < H; j++ {
				ct := st.cellTanh.At(i, j)
				dc.Set(i, j, dcNext.At(i, j)+dh.At(i, j)*st.gateO.At(i, j)*(1-ct*ct))
			}
		}

		// Gate pre-activation gradients, stacked [dI | dF | dG | dO].
		dPre := mat.NewDense(batch, 4*H, nil)
		for i := 0; i < batch; i++ {
			for j := 0; j < H; j++ {
				gi := st.gateI.At(i, j)
				gf := st.gateF.At(i, j)
				gg := st.gateG.At(i, j)
				gout := st.gateO.At(i, j)

				dPre.Set(i, 0*H+j, dc.At(i, j)*gg*gi*(1-gi))
				dPre.Set(i, 1*H+j, dc.At(i, j)*st.cellPrev.At(i, j)*gf*(1-gf))
				dPre.Set(i, 2*H+j, dc.At(i, j)*gi*(1-gg*gg))
				dPre.Set(i, 3*H+j, dh.At(i, j)*st.cellTanh.At(i, j)*gout*(1-gout))
			}
		}

		var dwInput mat.Dense
		dwInput.Mul(dPre.T(), st.input)
		l.weightInput.Grad.Add(l.weightInput.Grad, &dwInput)

		var dwHidden mat.Dense
		dwHidden.Mul(dPre.T(), st.hiddenPrev)
		l.weightHidden.Grad.Add(l.weightHidden.Grad, &dwHidden)

		biasGrad := colSums(dPre)
		l.biasInput.Grad.Add(l.biasInput.Grad, biasGrad)
		l.biasHidden.Grad.Add(l.biasHidden.Grad, biasGrad)

		dx := mat.NewDense(batch, l.inputSize, nil)
		dx.Mul(dPre, l.weightInput.Value)
		dInputs[t] = dx

		dhNext = mat.NewDense(batch, H, nil)
		dhNext.Mul(dPre, l.weightHidden.Value)

		dcNext = mat.NewDense(batch, H, nil)
		dcNext.MulElem(dc, st.gateF)
	}

	return dInputs
}

// stackedLSTM chains recurrent layers; layer i consumes the per-step
// hidden states of layer i-1.
type stackedLSTM struct {
	layers []*lstmLayer
}

type stackedCache struct {
	layerCaches []*lstmLayerCache
}

func newStackedLSTM(inputSize, hiddenSize, numLayers int, rng *rand.Rand) *stackedLSTM {
	layers := make([]*lstmLayer, numLayers)
	for i := 0; i < numLayers; i++ {
		in := inputSize
		if i > 0 {
			in = hiddenSize
		}
		layers[i] = newLSTMLayer(fmt.Sprintf("lstm.l%d", i), in, hiddenSize, rng)
	}
	return &stackedLSTM{layers: layers}
}

func (s *stackedLSTM) parameters() []*Parameter {
	params := make([]*Parameter, 0, len(s.layers)*4)
	for _, l := range s.layers {
		params = append(params, l.parameters()...)
	}
	return params
}

// forward returns the final hidden state of every layer plus the full
// cache. finalHidden[i] has shape [B, H].
func (s *stackedLSTM) forward(inputs []*mat.Dense) (finalHidden []*mat.Dense, cache *stackedCache) {
	cache = &stackedCache{layerCaches: make([]*lstmLayerCache, len(s.layers))}
	finalHidden = make([]*mat.Dense, len(s.layers))

	current := inputs
	for i, layer := range s.layers {
		lc := layer.forward(current)
		cache.layerCaches[i] = lc
		finalHidden[i] = lc.outputs[len(lc.outputs)-1]
		current = lc.outputs
	}
	return finalHidden, cache
}

// backward takes the gradient of the loss with respect to each layer's
// final hidden state and returns the gradient with respect to the
// embedded input sequence.
func (s *stackedLSTM) backward(cache *stackedCache, dFinalHidden []*mat.Dense) []*mat.Dense {
	steps := len(cache.layerCaches[0].steps)

	// Per-step gradients arriving at the top layer: only the final step
	// feeds the model head.
	dOut := make([]*mat.Dense, steps)
	dOut[steps-1] = dFinalHidden[len(s.layers)-1]

	var dInputs []*mat.Dense
	for i := len(s.layers) - 1; i >= 0; i-- {
		dInputs = s.layers[i].backward(cache.layerCaches[i], dOut)
		if i > 0 {
			// Gradients for the layer below: its step outputs feed this
			// layer's inputs; its final state also feeds the head.
			dOut = dInputs
			dOut[steps-1].Add(dOut[steps-1], dFinalHidden[i-1])
		}
	}
	return dInputs
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// applyColumns applies f to a column block [start, start+width) of m.
func applyColumns(m *mat.Dense, start, width int, f func(float64) float64) *mat.Dense {
	rows, _ := m.Dims()
	out := mat.NewDense(rows, width, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < width; j++ {
			out.Set(i, j, f(m.At(i, start+j)))
		}
	}
	return out
}
