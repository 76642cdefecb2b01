package training

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/inferloop/pricecast/internal/dataset"
	"github.com/inferloop/pricecast/internal/model"
	"github.com/inferloop/pricecast/pkg/errors"
)

// Config contains the optimization settings for a training run.
type Config struct {
	Epochs            int     `json:"epochs" mapstructure:"epochs"`
	BatchSize         int     `json:"batch_size" mapstructure:"batch_size"`
	LearningRate      float64 `json:"learning_rate" mapstructure:"learning_rate"`
	SchedulerStepSize int     `json:"scheduler_step_size" mapstructure:"scheduler_step_size"`
	SchedulerGamma    float64 `json:"scheduler_gamma" mapstructure:"scheduler_gamma"`
	AdamBeta1         float64 `json:"adam_beta1" mapstructure:"adam_beta1"`
	AdamBeta2         float64 `json:"adam_beta2" mapstructure:"adam_beta2"`
	AdamEpsilon       float64 `json:"adam_epsilon" mapstructure:"adam_epsilon"`

	// Device is the compute target. Only "cpu" is implemented; the
	// setting does not affect results.
	Device string `json:"device" mapstructure:"device"`
}

// EpochMetrics tracks training progress
type EpochMetrics struct {
	Epoch          int           `json:"epoch"`
	TrainingLoss   float64       `json:"training_loss"`
	ValidationLoss float64       `json:"validation_loss"`
	LearningRate   float64       `json:"learning_rate"`
	Duration       time.Duration `json:"duration"`
}

// Trainer runs fixed-epoch-count optimization of a SequenceModel. There
// is no early stopping; every configured epoch runs one shuffled
// training pass with parameter updates and one validation pass without.
type Trainer struct {
	logger *logrus.Logger
	config Config
}

// NewTrainer creates a trainer.
func NewTrainer(config Config, logger *logrus.Logger) *Trainer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Trainer{logger: logger, config: config}
}

// Run fits m on the training set, reporting per-epoch train/validation
// loss. A non-finite loss aborts the run immediately rather than
// training on through divergence. ctx is checked between epochs only.
func (t *Trainer) Run(ctx context.Context, m *model.SequenceModel, train, val *dataset.Dataset) ([]EpochMetrics, error) {
	optimizer := model.NewAdamOptimizer(m.Parameters(),
		t.config.LearningRate, t.config.AdamBeta1, t.config.AdamBeta2, t.config.AdamEpsilon)
	scheduler := model.NewStepLR(optimizer, t.config.SchedulerStepSize, t.config.SchedulerGamma)

	t.logger.WithFields(logrus.Fields{
		"epochs":        t.config.Epochs,
		"batch_size":    t.config.BatchSize,
		"learning_rate": t.config.LearningRate,
		"train_samples": train.Len(),
		"val_samples":   val.Len(),
		"device":        t.config.Device,
	}).Info("Training sequence model")

	metrics := make([]EpochMetrics, 0, t.config.Epochs)

	for epoch := 0; epoch < t.config.Epochs; epoch++ {
		start := time.Now()

		trainLoss := t.trainEpoch(m, optimizer, train)
		valLoss := t.validateEpoch(m, val)

		if !isFinite(trainLoss) || !isFinite(valLoss) {
			return metrics, errors.WrapError(errors.ErrTrainingDiverged, errors.ErrorTypeTraining,
				errors.CodeTrainingDiverged,
				fmt.Sprintf("non-finite loss at epoch %d (train=%g val=%g)", epoch+1, trainLoss, valLoss))
		}

		metric := EpochMetrics{
			Epoch:          epoch + 1,
			TrainingLoss:   trainLoss,
			ValidationLoss: valLoss,
			LearningRate:   scheduler.LearningRate(),
			Duration:       time.Since(start),
		}
		metrics = append(metrics, metric)

		t.logger.WithFields(logrus.Fields{
			"epoch":      metric.Epoch,
			"train_loss": metric.TrainingLoss,
			"val_loss":   metric.ValidationLoss,
			"lr":         metric.LearningRate,
			"duration":   metric.Duration,
		}).Debug("Training epoch completed")

		// Decay is stepped once per epoch regardless of batch count.
		scheduler.Step()

		select {
		case <-ctx.Done():
			return metrics, ctx.Err()
		default:
		}
	}

	last := metrics[len(metrics)-1]
	t.logger.WithFields(logrus.Fields{
		"final_train_loss": last.TrainingLoss,
		"final_val_loss":   last.ValidationLoss,
		"epochs_completed": len(metrics),
	}).Info("Training completed")

	return metrics, nil
}

// trainEpoch runs one shuffled pass with parameter updates and returns
// the size-weighted mean squared error over all training samples.
func (t *Trainer) trainEpoch(m *model.SequenceModel, optimizer *model.AdamOptimizer, data *dataset.Dataset) float64 {
	var sumSquared float64
	var count int

	for _, batch := range data.Batches(t.config.BatchSize, true) {
		m.ZeroGrad()

		predictions := m.Forward(batch.Inputs, true)
		size := batch.Size()

		// MSE loss over the batch; its gradient per prediction is
		// 2*(pred - target)/batchSize.
		dPred := mat.NewVecDense(size, nil)
		for i := 0; i < size; i++ {
			diff := predictions.AtVec(i) - batch.Targets.AtVec(i)
			sumSquared += diff * diff
			dPred.SetVec(i, 2*diff/float64(size))
		}

		if err := m.Backward(dPred); err != nil {
			// Backward only fails without a prior training forward,
			// which cannot happen here.
			panic(err)
		}
		optimizer.Step()

		count += size
	}

	return sumSquared / float64(count)
}

// validateEpoch runs one pass without parameter updates. Batch order
// does not affect the result since no state accumulates across batches.
func (t *Trainer) validateEpoch(m *model.SequenceModel, data *dataset.Dataset) float64 {
	var sumSquared float64
	var count int

	for _, batch := range data.Batches(t.config.BatchSize, true) {
		predictions := m.Forward(batch.Inputs, false)
		for i := 0; i < batch.Size(); i++ {
			diff := predictions.AtVec(i) - batch.Targets.AtVec(i)
			sumSquared += diff * diff
		}
		count += batch.Size()
	}

	return sumSquared / float64(count)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
