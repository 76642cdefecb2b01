package model

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/inferloop/pricecast/pkg/errors"
)

// Config describes the SequenceModel architecture.
type Config struct {
	InputSize  int     `json:"input_size" mapstructure:"input_size"`
	HiddenSize int     `json:"hidden_size" mapstructure:"hidden_size"`
	NumLayers  int     `json:"num_layers" mapstructure:"num_layers"`
	Dropout    float64 `json:"dropout" mapstructure:"dropout"`
	Seed       int64   `json:"seed" mapstructure:"seed"`
}

// SequenceModel maps a window of scalar observations to one predicted
// scalar. Architecture: per-step linear projection into hidden space
// with a rectified-linear activation, a stacked LSTM encoder, the final
// hidden states of all layers concatenated, dropout over that vector
// during training, and a linear regression head.
//
// Training/inference behavior is selected by an explicit flag on Forward
// rather than mutable model-wide mode state, so a forward pass with
// dropout disabled is deterministic for fixed weights.
type SequenceModel struct {
	cfg  Config
	proj *Linear
	lstm *stackedLSTM
	drop *dropout
	head *Linear
	rng  *rand.Rand

	cache *forwardCache
}

// forwardCache holds everything Backward needs from the preceding
// Forward call.
type forwardCache struct {
	inputs      *mat.Dense   // [B, W] raw windows
	stepInputs  []*mat.Dense // per-step [B, 1] projection inputs
	embedded    []*mat.Dense // per-step [B, H] post-ReLU embeddings
	lstmCache   *stackedCache
	finalHidden []*mat.Dense
	concat      *mat.Dense
	dropped     *mat.Dense
	dropMask    *mat.Dense
}

// New constructs a SequenceModel with freshly initialized weights.
func New(cfg Config) (*SequenceModel, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	return &SequenceModel{
		cfg:  cfg,
		proj: newLinear("proj", cfg.InputSize, cfg.HiddenSize, rng),
		lstm: newStackedLSTM(cfg.HiddenSize, cfg.HiddenSize, cfg.NumLayers, rng),
		drop: newDropout(cfg.Dropout, rng),
		head: newLinear("head", cfg.NumLayers*cfg.HiddenSize, 1, rng),
		rng:  rng,
	}, nil
}

func validate(cfg Config) error {
	if cfg.InputSize != 1 {
		return errors.NewModelError(errors.CodeDimensionMismatch,
			fmt.Sprintf("model consumes one feature per step, got input size %d", cfg.InputSize))
	}
	if cfg.HiddenSize <= 0 {
		return errors.NewModelError(errors.CodeDimensionMismatch,
			fmt.Sprintf("hidden size must be positive, got %d", cfg.HiddenSize))
	}
	if cfg.NumLayers <= 0 {
		return errors.NewModelError(errors.CodeDimensionMismatch,
			fmt.Sprintf("layer count must be positive, got %d", cfg.NumLayers))
	}
	if cfg.Dropout < 0 || cfg.Dropout >= 1 {
		return errors.NewModelError(errors.CodeDimensionMismatch,
			fmt.Sprintf("dropout must be in [0, 1), got %g", cfg.Dropout))
	}
	return nil
}

// Parameters returns every learnable parameter, in a stable order.
func (m *SequenceModel) Parameters() []*Parameter {
	params := make([]*Parameter, 0, 4+4*m.cfg.NumLayers)
	params = append(params, m.proj.parameters()...)
	params = append(params, m.lstm.parameters()...)
	params = append(params, m.head.parameters()...)
	return params
}

// ZeroGrad clears all accumulated gradients.
func (m *SequenceModel) ZeroGrad() {
	for _, p := range m.Parameters() {
		p.ZeroGrad()
	}
}

// Forward runs a batch of windows (one window per row, one step per
// column) through the model and returns one prediction per row. With
// training set, dropout is active and the activations are cached for a
// following Backward call.
func (m *SequenceModel) Forward(windows *mat.Dense, training bool) *mat.VecDense {
	batch, steps := windows.Dims()

	cache := &forwardCache{
		inputs:     windows,
		stepInputs: make([]*mat.Dense, steps),
		embedded:   make([]*mat.Dense, steps),
	}

	// Per-step scalar -> hidden embedding with ReLU.
	for t := 0; t < steps; t++ {
		x := mat.NewDense(batch, 1, nil)
		for i := 0; i < batch; i++ {
			x.Set(i, 0, windows.At(i, t))
		}
		cache.stepInputs[t] = x

		e := m.proj.forward(x)
		e.Apply(func(_, _ int, v float64) float64 {
			if v < 0 {
				return 0
			}
			return v
		}, e)
		cache.embedded[t] = e
	}

	finalHidden, lstmCache := m.lstm.forward(cache.embedded)
	cache.finalHidden = finalHidden
	cache.lstmCache = lstmCache

	// Concatenate the final hidden state of every layer.
	H := m.cfg.HiddenSize
	concat := mat.NewDense(batch, m.cfg.NumLayers*H, nil)
	for l, h := range finalHidden {
		for i := 0; i < batch; i++ {
			for j := 0; j < H; j++ {
				concat.Set(i, l*H+j, h.At(i, j))
			}
		}
	}
	cache.concat = concat

	cache.dropped, cache.dropMask = m.drop.forward(concat, training)

	out := m.head.forward(cache.dropped)

	predictions := mat.NewVecDense(batch, nil)
	for i := 0; i < batch; i++ {
		predictions.SetVec(i, out.At(i, 0))
	}

	if training {
		m.cache = cache
	} else {
		m.cache = nil
	}
	return predictions
}

// Backward accumulates parameter gradients for the loss gradient dPred
// (one entry per prediction of the preceding training-mode Forward).
func (m *SequenceModel) Backward(dPred *mat.VecDense) error {
	if m.cache == nil {
		return errors.NewModelError(errors.CodeDimensionMismatch,
			"backward requires a preceding training-mode forward pass")
	}
	cache := m.cache
	batch, steps := cache.inputs.Dims()

	dOut := mat.NewDense(batch, 1, nil)
	for i := 0; i < batch; i++ {
		dOut.Set(i, 0, dPred.AtVec(i))
	}

	dDropped := m.head.backward(cache.dropped, dOut)
	dConcat := m.drop.backward(dDropped, cache.dropMask)

	// Split the concatenated gradient back into per-layer final states.
	H := m.cfg.HiddenSize
	dFinal := make([]*mat.Dense, m.cfg.NumLayers)
	for l := 0; l < m.cfg.NumLayers; l++ {
		d := mat.NewDense(batch, H, nil)
		for i := 0; i < batch; i++ {
			for j := 0; j < H; j++ {
				d.Set(i, j, dConcat.At(i, l*H+j))
			}
		}
		dFinal[l] = d
	}

	dEmbedded := m.lstm.backward(cache.lstmCache, dFinal)

	for t := 0; t < steps; t++ {
		dE := dEmbedded[t]
		// ReLU gate: gradient passes only where the embedding survived.
		dPre := mat.NewDense(batch, H, nil)
		for i := 0; i < batch; i++ {
			for j := 0; j < H; j++ {
				if cache.embedded[t].At(i, j) > 0 {
					dPre.Set(i, j, dE.At(i, j))
				}
			}
		}
		m.proj.backward(cache.stepInputs[t], dPre)
	}

	m.cache = nil
	return nil
}

// PredictOne runs a single window through the model in inference mode.
func (m *SequenceModel) PredictOne(window []float64) float64 {
	x := mat.NewDense(1, len(window), nil)
	x.SetRow(0, window)
	return m.Forward(x, false).AtVec(0)
}
