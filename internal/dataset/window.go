package dataset

import (
	"fmt"

	"github.com/inferloop/pricecast/pkg/errors"
)

// MakeInputs slices a normalized series into all contiguous windows of
// length windowSize. Every window except the last has a known next value
// and is returned as a training input; the final window is the unseen
// window used only for the forward-looking forecast.
//
// Windows are built with explicit index arithmetic; each returned window
// is its own copy, so later mutation of the series cannot alias into it.
func MakeInputs(series []float64, windowSize int) (windows [][]float64, unseen []float64, err error) {
	if err := checkLength(series, windowSize); err != nil {
		return nil, nil, err
	}

	numWindows := len(series) - windowSize + 1
	all := make([][]float64, numWindows)
	for i := 0; i < numWindows; i++ {
		w := make([]float64, windowSize)
		copy(w, series[i:i+windowSize])
		all[i] = w
	}

	return all[:numWindows-1], all[numWindows-1], nil
}

// MakeTargets returns the next-step targets for the windows produced by
// MakeInputs: targets[i] is the value immediately following window i,
// i.e. series[i+windowSize].
func MakeTargets(series []float64, windowSize int) ([]float64, error) {
	if err := checkLength(series, windowSize); err != nil {
		return nil, err
	}

	targets := make([]float64, len(series)-windowSize)
	copy(targets, series[windowSize:])
	return targets, nil
}

// SplitIndex returns the window count that falls into the training
// prefix for the configured chronological split fraction.
func SplitIndex(numSamples int, trainSplit float64) int {
	return int(float64(numSamples) * trainSplit)
}

func checkLength(series []float64, windowSize int) error {
	if windowSize <= 0 {
		return errors.NewDatasetError(errors.CodeInsufficientData,
			fmt.Sprintf("window size must be positive, got %d", windowSize))
	}
	if len(series) <= windowSize {
		return errors.WrapError(errors.ErrInsufficientData, errors.ErrorTypeDataset,
			errors.CodeInsufficientData,
			fmt.Sprintf("need more than %d points to window, got %d", windowSize, len(series)))
	}
	return nil
}
