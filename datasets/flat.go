package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// BatchFlat holds a batch as two row-major buffers, Inputs shaped
// [BatchSize, InputDim] and Labels shaped [BatchSize, LabelDim]. Either dim may
// be zero, e.g. for a dataset read without label columns.
type BatchFlat struct {
	Inputs    []float32
	Labels    []float32
	BatchSize int
	InputDim  int
	LabelDim  int
}

// NewBatchFlat allocates a zeroed batch of batchSize rows.
func NewBatchFlat(batchSize, inputDim, labelDim int) *BatchFlat {
	return &BatchFlat{
		Inputs:    make([]float32, batchSize*inputDim),
		Labels:    make([]float32, batchSize*labelDim),
		BatchSize: batchSize,
		InputDim:  inputDim,
		LabelDim:  labelDim,
	}
}

// SetRow copies one example into row i.
func (b *BatchFlat) SetRow(i int, input, label []float32) error {
	if i < 0 || i >= b.BatchSize {
		return fmt.Errorf("row %d out of range for batch of %d", i, b.BatchSize)
	}
	if len(input) != b.InputDim {
		return fmt.Errorf("inconsistent input dimensions at example %d: expected %d, got %d", i, b.InputDim, len(input))
	}
	if len(label) != b.LabelDim {
		return fmt.Errorf("inconsistent label dimensions at example %d: expected %d, got %d", i, b.LabelDim, len(label))
	}
	copy(b.Inputs[i*b.InputDim:], input)
	copy(b.Labels[i*b.LabelDim:], label)
	return nil
}

// MakeBatchFlat packs rows into a BatchFlat. The dims are taken from the first
// row; an empty batch has zero dims.
func MakeBatchFlat(inputs, labels [][]float32) (*BatchFlat, error) {
	if len(inputs) != len(labels) {
		return nil, fmt.Errorf("inputs and labels batch sizes don't match: %d != %d", len(inputs), len(labels))
	}
	if len(inputs) == 0 {
		return NewBatchFlat(0, 0, 0), nil
	}

	b := NewBatchFlat(len(inputs), len(inputs[0]), len(labels[0]))
	for i := range inputs {
		if err := b.SetRow(i, inputs[i], labels[i]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// ToGomlxTensors copies the buffers into float32 tensors shaped
// [BatchSize, InputDim] and [BatchSize, LabelDim].
func (b *BatchFlat) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	if len(b.Inputs) != b.BatchSize*b.InputDim || len(b.Labels) != b.BatchSize*b.LabelDim {
		return nil, nil, fmt.Errorf("batch buffers (%d inputs, %d labels) don't match shape [%d,%d]/[%d,%d]",
			len(b.Inputs), len(b.Labels), b.BatchSize, b.InputDim, b.BatchSize, b.LabelDim)
	}
	inT := tensors.FromFlatDataAndDimensions(b.Inputs, b.BatchSize, b.InputDim)
	labT := tensors.FromFlatDataAndDimensions(b.Labels, b.BatchSize, b.LabelDim)
	return inT, labT, nil
}
