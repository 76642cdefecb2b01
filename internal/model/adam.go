package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// AdamOptimizer implements adaptive moment estimation over a fixed set
// of model parameters.
type AdamOptimizer struct {
	params       []*Parameter
	learningRate float64
	beta1        float64
	beta2        float64
	epsilon      float64
	t            int // time step

	m []*mat.Dense // first moment estimate
	v []*mat.Dense // second moment estimate
}

// NewAdamOptimizer creates an Adam optimizer bound to params.
func NewAdamOptimizer(params []*Parameter, learningRate, beta1, beta2, epsilon float64) *AdamOptimizer {
	m := make([]*mat.Dense, len(params))
	v := make([]*mat.Dense, len(params))
	for i, p := range params {
		rows, cols := p.Value.Dims()
		m[i] = mat.NewDense(rows, cols, nil)
		v[i] = mat.NewDense(rows, cols, nil)
	}

	return &AdamOptimizer{
		params:       params,
		learningRate: learningRate,
		beta1:        beta1,
		beta2:        beta2,
		epsilon:      epsilon,
		m:            m,
		v:            v,
	}
}

// Step applies one update using the gradients currently accumulated on
// the bound parameters.
func (opt *AdamOptimizer) Step() {
	opt.t++
	beta1Correction := 1 - math.Pow(opt.beta1, float64(opt.t))
	beta2Correction := 1 - math.Pow(opt.beta2, float64(opt.t))

	for i, p := range opt.params {
		rows, cols := p.Value.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				g := p.Grad.At(r, c)

				m := opt.beta1*opt.m[i].At(r, c) + (1-opt.beta1)*g
				opt.m[i].Set(r, c, m)

				v := opt.beta2*opt.v[i].At(r, c) + (1-opt.beta2)*g*g
				opt.v[i].Set(r, c, v)

				mHat := m / beta1Correction
				vHat := v / beta2Correction

				update := opt.learningRate * mHat / (math.Sqrt(vHat) + opt.epsilon)
				p.Value.Set(r, c, p.Value.At(r, c)-update)
			}
		}
	}
}

// LearningRate returns the current learning rate.
func (opt *AdamOptimizer) LearningRate() float64 {
	return opt.learningRate
}

// SetLearningRate replaces the learning rate for subsequent steps.
func (opt *AdamOptimizer) SetLearningRate(lr float64) {
	opt.learningRate = lr
}

// StepLR decays the optimizer learning rate by a fixed factor every
// stepSize epochs. Step is called once per epoch regardless of how many
// batches the epoch contained.
type StepLR struct {
	opt      *AdamOptimizer
	stepSize int
	gamma    float64
	epoch    int
}

// NewStepLR creates a step-decay schedule over opt.
func NewStepLR(opt *AdamOptimizer, stepSize int, gamma float64) *StepLR {
	return &StepLR{opt: opt, stepSize: stepSize, gamma: gamma}
}

// Step advances the schedule by one epoch.
func (s *StepLR) Step() {
	s.epoch++
	if s.stepSize > 0 && s.epoch%s.stepSize == 0 {
		s.opt.SetLearningRate(s.opt.LearningRate() * s.gamma)
	}
}

// LearningRate returns the schedule's current learning rate.
func (s *StepLR) LearningRate() float64 {
	return s.opt.LearningRate()
}
