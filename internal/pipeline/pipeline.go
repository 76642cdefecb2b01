package pipeline

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/pricecast/internal/config"
	"github.com/inferloop/pricecast/internal/dataset"
	"github.com/inferloop/pricecast/internal/model"
	"github.com/inferloop/pricecast/internal/training"
	"github.com/inferloop/pricecast/pkg/models"
)

// TomorrowLabel is the placeholder date label attached to the forecast
// point, following the trailing real dates.
const TomorrowLabel = "tomorrow"

// PriceSource is the external price-data collaborator.
type PriceSource interface {
	FetchDailySeries(ctx context.Context, symbol, market string) (*models.PriceSeries, error)
}

// ForecastResult packages everything the plotting collaborator needs:
// the trailing actual and predicted values on the original price scale,
// the single next-day forecast, and matching date labels. DateLabels has
// one more entry than RecentActual/RecentPredicted; the extra trailing
// label ("tomorrow") belongs to NextForecast.
type ForecastResult struct {
	RunID        string   `json:"run_id"`
	Symbol       string   `json:"symbol"`
	Market       string   `json:"market"`
	DisplayRange string   `json:"display_range"`
	DateLabels   []string `json:"date_labels"`

	RecentActual    []float64 `json:"recent_actual"`
	RecentPredicted []float64 `json:"recent_predicted"`
	NextForecast    float64   `json:"next_forecast"`

	// Full-history fit on the original scale, for train/validation
	// diagnostic plots. PredictedTrain[i] estimates ActualTrain[i].
	ActualTrain    []float64 `json:"actual_train"`
	PredictedTrain []float64 `json:"predicted_train"`
	ActualVal      []float64 `json:"actual_val"`
	PredictedVal   []float64 `json:"predicted_val"`

	Epochs []training.EpochMetrics `json:"epochs"`
}

// Forecaster wires the pipeline: fetch, normalize, window, split, train,
// predict, inverse-transform. Each Run is synchronous and fail-fast; a
// failure at any step aborts with no partial output.
type Forecaster struct {
	logger *logrus.Logger
	source PriceSource
	config *config.Config
}

// NewForecaster creates a forecaster over the given price source.
func NewForecaster(cfg *config.Config, source PriceSource, logger *logrus.Logger) *Forecaster {
	if logger == nil {
		logger = logrus.New()
	}
	return &Forecaster{logger: logger, source: source, config: cfg}
}

// Run executes one complete forecast-and-train cycle and returns the
// packaged result. The model is trained from scratch on every call.
func (f *Forecaster) Run(ctx context.Context) (*ForecastResult, error) {
	runID := uuid.New().String()
	cfg := f.config

	log := f.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"symbol": cfg.DataSource.Symbol,
		"market": cfg.DataSource.Market,
	})
	log.Info("Starting forecast run")

	series, err := f.source.FetchDailySeries(ctx, cfg.DataSource.Symbol, cfg.DataSource.Market)
	if err != nil {
		return nil, err
	}

	normalizer := dataset.NewNormalizer()
	normalized, err := normalizer.FitTransform(series.Closes())
	if err != nil {
		return nil, err
	}

	windows, unseen, err := dataset.MakeInputs(normalized, cfg.Data.WindowSize)
	if err != nil {
		return nil, err
	}
	targets, err := dataset.MakeTargets(normalized, cfg.Data.WindowSize)
	if err != nil {
		return nil, err
	}

	splitIdx := dataset.SplitIndex(len(targets), cfg.Data.TrainSplit)
	trainSet, err := dataset.NewDataset(windows[:splitIdx], targets[:splitIdx], cfg.Data.Seed)
	if err != nil {
		return nil, err
	}
	valSet, err := dataset.NewDataset(windows[splitIdx:], targets[splitIdx:], cfg.Data.Seed+1)
	if err != nil {
		return nil, err
	}

	seqModel, err := model.New(cfg.Model)
	if err != nil {
		return nil, err
	}

	trainer := training.NewTrainer(cfg.Training, f.logger)
	epochs, err := trainer.Run(ctx, seqModel, trainSet, valSet)
	if err != nil {
		return nil, err
	}

	// Re-run inference in stable chronological order for plotting.
	predictedTrain := f.predictAll(seqModel, trainSet)
	predictedVal := f.predictAll(seqModel, valSet)

	nextNormalized := seqModel.PredictOne(unseen)
	nextForecast, err := normalizer.InverseValue(nextNormalized)
	if err != nil {
		return nil, err
	}

	actualTrain, err := normalizer.InverseTransform(trainSet.Targets())
	if err != nil {
		return nil, err
	}
	actualVal, err := normalizer.InverseTransform(valSet.Targets())
	if err != nil {
		return nil, err
	}
	fitTrain, err := normalizer.InverseTransform(predictedTrain)
	if err != nil {
		return nil, err
	}
	fitVal, err := normalizer.InverseTransform(predictedVal)
	if err != nil {
		return nil, err
	}

	recent := cfg.Plot.Range - 1
	if recent > len(actualVal) {
		recent = len(actualVal)
	}

	labels := series.DateLabels()
	dateLabels := append(tail(labels, recent), TomorrowLabel)

	result := &ForecastResult{
		RunID:           runID,
		Symbol:          cfg.DataSource.Symbol,
		Market:          cfg.DataSource.Market,
		DisplayRange:    series.DisplayRange,
		DateLabels:      dateLabels,
		RecentActual:    tailFloats(actualVal, recent),
		RecentPredicted: tailFloats(fitVal, recent),
		NextForecast:    nextForecast,
		ActualTrain:     actualTrain,
		PredictedTrain:  fitTrain,
		ActualVal:       actualVal,
		PredictedVal:    fitVal,
		Epochs:          epochs,
	}

	finalValLoss := math.NaN()
	if len(epochs) > 0 {
		finalValLoss = epochs[len(epochs)-1].ValidationLoss
	}
	log.WithFields(logrus.Fields{
		"points":         series.Len(),
		"next_forecast":  result.NextForecast,
		"final_val_loss": finalValLoss,
	}).Info("Forecast run completed")

	return result, nil
}

// predictAll runs the model over every record in stable order and
// returns the normalized predictions.
func (f *Forecaster) predictAll(m *model.SequenceModel, data *dataset.Dataset) []float64 {
	predictions := make([]float64, 0, data.Len())
	for _, batch := range data.Batches(f.config.Training.BatchSize, false) {
		out := m.Forward(batch.Inputs, false)
		for i := 0; i < batch.Size(); i++ {
			predictions = append(predictions, out.AtVec(i))
		}
	}
	return predictions
}

func tail(s []string, n int) []string {
	out := make([]string, n)
	copy(out, s[len(s)-n:])
	return out
}

func tailFloats(s []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, s[len(s)-n:])
	return out
}
