package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/pricecast/pkg/errors"
)

func sequentialSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i)
	}
	return s
}

func TestMakeInputsShape(t *testing.T) {
	const n, w = 100, 20
	series := sequentialSeries(n)

	windows, unseen, err := MakeInputs(series, w)
	require.NoError(t, err)

	// N-W training windows plus one unseen window.
	assert.Len(t, windows, n-w)
	assert.Len(t, unseen, w)

	for i, win := range windows {
		require.Len(t, win, w)
		assert.Equal(t, float64(i), win[0])
		assert.Equal(t, float64(i+w-1), win[w-1])
	}

	// The unseen window is the trailing w values.
	assert.Equal(t, float64(n-w), unseen[0])
	assert.Equal(t, float64(n-1), unseen[w-1])
}

func TestMakeTargetsFollowWindows(t *testing.T) {
	const n, w = 50, 7
	series := sequentialSeries(n)

	windows, _, err := MakeInputs(series, w)
	require.NoError(t, err)
	targets, err := MakeTargets(series, w)
	require.NoError(t, err)

	require.Len(t, targets, n-w)
	for i := range windows {
		// targets[i] is the value immediately after window i.
		assert.Equal(t, windows[i][w-1]+1, targets[i])
	}
}

func TestMakeInputsInsufficientData(t *testing.T) {
	series := sequentialSeries(15)

	_, _, err := MakeInputs(series, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInsufficientData)

	_, err = MakeTargets(series, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInsufficientData)

	// Length exactly equal to the window size is still too short.
	_, _, err = MakeInputs(sequentialSeries(20), 20)
	require.Error(t, err)
}

func TestMakeInputsCopiesData(t *testing.T) {
	series := sequentialSeries(10)
	windows, unseen, err := MakeInputs(series, 3)
	require.NoError(t, err)

	series[0] = 999
	assert.Equal(t, 0.0, windows[0][0])
	assert.Equal(t, 7.0, unseen[0])
}

func TestSplitIndex(t *testing.T) {
	assert.Equal(t, 64, SplitIndex(80, 0.80))
	assert.Equal(t, 0, SplitIndex(0, 0.80))
	assert.Equal(t, 7, SplitIndex(10, 0.75))
}
