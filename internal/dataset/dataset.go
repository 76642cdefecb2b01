package dataset

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/inferloop/pricecast/pkg/errors"
)

// Dataset wraps parallel window/target slices for mini-batch iteration.
// Record i is window i (seqLen steps of one feature each) paired with the
// normalized value that immediately follows it.
type Dataset struct {
	windows [][]float64
	targets []float64
	seqLen  int
	rng     *rand.Rand
}

// Batch is one mini-batch of records. Inputs holds one window per row,
// one time step per column; Targets holds the matching next-step values.
type Batch struct {
	Inputs  *mat.Dense
	Targets *mat.VecDense
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	r, _ := b.Inputs.Dims()
	return r
}

// NewDataset creates a dataset over parallel windows and targets.
func NewDataset(windows [][]float64, targets []float64, seed int64) (*Dataset, error) {
	if len(windows) != len(targets) {
		return nil, errors.NewDatasetError(errors.CodeInsufficientData,
			"window and target counts differ")
	}
	if len(windows) == 0 {
		return nil, errors.NewDatasetError(errors.CodeEmptySeries,
			"dataset requires at least one record")
	}

	return &Dataset{
		windows: windows,
		targets: targets,
		seqLen:  len(windows[0]),
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.windows)
}

// SeqLen returns the window length of every record.
func (d *Dataset) SeqLen() int {
	return d.seqLen
}

// Targets returns the target values in record order.
func (d *Dataset) Targets() []float64 {
	out := make([]float64, len(d.targets))
	copy(out, d.targets)
	return out
}

// Batches partitions the dataset into batches of at most batchSize
// records. With shuffle the record order is randomized per call; without
// it records appear in stable chronological order. The final batch may
// be smaller than batchSize. Every record appears exactly once per pass.
func (d *Dataset) Batches(batchSize int, shuffle bool) []Batch {
	if batchSize <= 0 {
		batchSize = d.Len()
	}

	order := make([]int, d.Len())
	for i := range order {
		order[i] = i
	}
	if shuffle {
		d.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	numBatches := (d.Len() + batchSize - 1) / batchSize
	batches := make([]Batch, 0, numBatches)

	for start := 0; start < d.Len(); start += batchSize {
		end := start + batchSize
		if end > d.Len() {
			end = d.Len()
		}

		rows := end - start
		inputs := mat.NewDense(rows, d.seqLen, nil)
		targets := mat.NewVecDense(rows, nil)
		for r, idx := range order[start:end] {
			inputs.SetRow(r, d.windows[idx])
			targets.SetVec(r, d.targets[idx])
		}

		batches = append(batches, Batch{Inputs: inputs, Targets: targets})
	}

	return batches
}
