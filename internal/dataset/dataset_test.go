package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDataset(t *testing.T, records int, seqLen int) *Dataset {
	t.Helper()

	windows := make([][]float64, records)
	targets := make([]float64, records)
	for i := range windows {
		w := make([]float64, seqLen)
		for j := range w {
			w[j] = float64(i*seqLen + j)
		}
		windows[i] = w
		targets[i] = float64(i)
	}

	ds, err := NewDataset(windows, targets, 42)
	require.NoError(t, err)
	return ds
}

func TestDatasetBatchCompleteness(t *testing.T) {
	for _, shuffle := range []bool{false, true} {
		ds := buildDataset(t, 10, 4)

		seen := make(map[float64]int)
		var total int
		for _, batch := range ds.Batches(3, shuffle) {
			for i := 0; i < batch.Size(); i++ {
				seen[batch.Targets.AtVec(i)]++
				total++
			}
		}

		// Every record exactly once per pass, partial final batch included.
		assert.Equal(t, 10, total)
		for i := 0; i < 10; i++ {
			assert.Equal(t, 1, seen[float64(i)], "record %d shuffle=%v", i, shuffle)
		}
	}
}

func TestDatasetPartialFinalBatch(t *testing.T) {
	ds := buildDataset(t, 10, 4)

	batches := ds.Batches(4, false)
	require.Len(t, batches, 3)
	assert.Equal(t, 4, batches[0].Size())
	assert.Equal(t, 4, batches[1].Size())
	assert.Equal(t, 2, batches[2].Size())
}

func TestDatasetStableOrder(t *testing.T) {
	ds := buildDataset(t, 7, 2)

	var order []float64
	for _, batch := range ds.Batches(3, false) {
		for i := 0; i < batch.Size(); i++ {
			order = append(order, batch.Targets.AtVec(i))
		}
	}

	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6}, order)
}

func TestDatasetBatchRowsMatchRecords(t *testing.T) {
	ds := buildDataset(t, 5, 3)

	batch := ds.Batches(5, false)[0]
	rows, cols := batch.Inputs.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 3, cols)

	// Row i carries window i when unshuffled.
	assert.Equal(t, 0.0, batch.Inputs.At(0, 0))
	assert.Equal(t, 7.0, batch.Inputs.At(2, 1))
}

func TestDatasetMismatchedLengths(t *testing.T) {
	_, err := NewDataset([][]float64{{1, 2}}, []float64{1, 2}, 0)
	require.Error(t, err)

	_, err = NewDataset(nil, nil, 0)
	require.Error(t, err)
}
