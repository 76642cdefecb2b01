package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testConfig() Config {
	return Config{
		InputSize:  1,
		HiddenSize: 8,
		NumLayers:  2,
		Dropout:    0.2,
		Seed:       7,
	}
}

func TestNewValidatesDimensions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"multi-feature input", func(c *Config) { c.InputSize = 3 }},
		{"zero hidden size", func(c *Config) { c.HiddenSize = 0 }},
		{"zero layers", func(c *Config) { c.NumLayers = 0 }},
		{"negative dropout", func(c *Config) { c.Dropout = -0.1 }},
		{"dropout of one", func(c *Config) { c.Dropout = 1.0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
		})
	}
}

func TestForwardDeterministicWithoutDropout(t *testing.T) {
	m, err := New(testConfig())
	require.NoError(t, err)

	window := mat.NewDense(1, 5, []float64{0.1, -0.2, 0.3, 0.0, 0.5})

	first := m.Forward(window, false)
	second := m.Forward(window, false)

	assert.Equal(t, first.AtVec(0), second.AtVec(0))
}

func TestForwardBatchShape(t *testing.T) {
	m, err := New(testConfig())
	require.NoError(t, err)

	batch := mat.NewDense(3, 6, nil)
	out := m.Forward(batch, false)
	assert.Equal(t, 3, out.Len())
}

func TestDropoutPerturbsTrainingForward(t *testing.T) {
	cfg := testConfig()
	cfg.Dropout = 0.5
	m, err := New(cfg)
	require.NoError(t, err)

	window := mat.NewDense(1, 5, []float64{1, 2, 3, 4, 5})
	reference := m.Forward(window, false).AtVec(0)

	// With aggressive dropout some training pass differs from the
	// deterministic inference output.
	differs := false
	for i := 0; i < 20 && !differs; i++ {
		if m.Forward(window, true).AtVec(0) != reference {
			differs = true
		}
	}
	assert.True(t, differs)
}

func TestBackwardRequiresTrainingForward(t *testing.T) {
	m, err := New(testConfig())
	require.NoError(t, err)

	m.Forward(mat.NewDense(1, 4, nil), false)
	err = m.Backward(mat.NewVecDense(1, []float64{1}))
	require.Error(t, err)
}

func TestParameterCount(t *testing.T) {
	m, err := New(testConfig())
	require.NoError(t, err)

	// proj (2) + 2 layers x 4 + head (2).
	assert.Len(t, m.Parameters(), 12)
}

// TestGradientsMatchNumericalEstimate verifies the analytic
// backpropagation against central-difference gradients on a tiny model.
func TestGradientsMatchNumericalEstimate(t *testing.T) {
	cfg := Config{InputSize: 1, HiddenSize: 3, NumLayers: 2, Dropout: 0, Seed: 11}
	m, err := New(cfg)
	require.NoError(t, err)

	windows := mat.NewDense(2, 4, []float64{
		0.5, -0.3, 0.8, 0.1,
		-0.2, 0.4, -0.6, 0.9,
	})
	targets := []float64{0.7, -0.4}

	loss := func() float64 {
		pred := m.Forward(windows, false)
		var sum float64
		for i, y := range targets {
			d := pred.AtVec(i) - y
			sum += d * d
		}
		return sum
	}

	// Analytic gradients for loss = sum((pred-y)^2).
	m.ZeroGrad()
	pred := m.Forward(windows, true)
	dPred := mat.NewVecDense(2, nil)
	for i, y := range targets {
		dPred.SetVec(i, 2*(pred.AtVec(i)-y))
	}
	require.NoError(t, m.Backward(dPred))

	const eps = 1e-5
	for _, p := range m.Parameters() {
		rows, cols := p.Value.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				orig := p.Value.At(r, c)

				p.Value.Set(r, c, orig+eps)
				plus := loss()
				p.Value.Set(r, c, orig-eps)
				minus := loss()
				p.Value.Set(r, c, orig)

				numerical := (plus - minus) / (2 * eps)
				analytic := p.Grad.At(r, c)
				assert.InDelta(t, numerical, analytic, 1e-4,
					"%s[%d,%d]: numerical=%g analytic=%g", p.Name, r, c, numerical, analytic)
			}
		}
	}
}

func TestPredictOneMatchesBatchForward(t *testing.T) {
	m, err := New(testConfig())
	require.NoError(t, err)

	window := []float64{0.2, 0.4, -0.1, 0.6, 0.3}
	x := mat.NewDense(1, 5, nil)
	x.SetRow(0, window)

	assert.Equal(t, m.Forward(x, false).AtVec(0), m.PredictOne(window))
}
