package datasets

import (
	"errors"
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/rs/zerolog"

	"github.com/Noofbiz/mixbatch/sampler"
)

// LoaderConfig holds the batching options of a Loader.
type LoaderConfig struct {
	// Policy selects how batches of different members are interleaved.
	Policy sampler.Policy

	// BatchSize for yielding batches. If zero, 32 is used.
	BatchSize int

	DropLast bool

	// Seed is the base seed for shuffling; each epoch uses Seed+epoch.
	Seed int64

	// DisableShuffle keeps each member's examples in file order.
	DisableShuffle bool

	// DisableDatasetReport stops the loader from tracking which member the
	// current batch came from.
	DisableDatasetReport bool

	Logger *zerolog.Logger
}

// Loader walks a Concat one batch at a time, in the order chosen by a
// sampler.Sampler, and converts every batch into gomlx tensors. It is the
// sampler's Notifier: after each batch it knows the name of the member the
// batch came from.
//
// The method set matches gomlx's train.Dataset (Name, Yield, Reset).
type Loader struct {
	ds      *Concat
	sampler *sampler.Sampler
	pass    *sampler.Pass
	epoch   int

	report bool
	names  []string

	currentIdx  int
	currentName string
}

// NewLoader creates a loader over ds. It starts at epoch 0.
func NewLoader(ds *Concat, cfg LoaderConfig) (*Loader, error) {
	if ds == nil {
		return nil, errors.New("dataset cannot be nil")
	}
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 32
	}

	l := &Loader{
		ds:         ds,
		report:     !cfg.DisableDatasetReport,
		names:      ds.Names(),
		currentIdx: -1,
	}
	s, err := sampler.New(cfg.Policy, sampler.Config{
		Lengths:        ds.Lengths(),
		BatchSize:      batchSize,
		DropLast:       cfg.DropLast,
		Seed:           cfg.Seed,
		DisableShuffle: cfg.DisableShuffle,
		Notifier:       l,
		Logger:         cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler for %s: %w", ds.Name(), err)
	}
	l.sampler = s
	return l, nil
}

// Active reports whether the loader tracks the source member of each batch.
func (l *Loader) Active() bool { return l.report }

// DatasetNames returns the member names, in member order.
func (l *Loader) DatasetNames() []string { return l.names }

// Notify records the member that served the batch just produced.
func (l *Loader) Notify(datasetIndex int, datasetName string) {
	l.currentIdx = datasetIndex
	l.currentName = datasetName
}

// CurrentDataset returns the name of the member that served the last batch.
// It is empty before the first batch or when reporting is disabled.
func (l *Loader) CurrentDataset() string { return l.currentName }

// CurrentIndex is the member index matching CurrentDataset, or -1.
func (l *Loader) CurrentIndex() int { return l.currentIdx }

// Name returns the name of the dataset
func (l *Loader) Name() string { return l.ds.Name() }

// Epoch returns the epoch of the current pass.
func (l *Loader) Epoch() int { return l.epoch }

// SetEpoch moves the loader to the given epoch; the next Yield starts a new pass.
func (l *Loader) SetEpoch(epoch int) {
	l.epoch = epoch
	l.pass = nil
}

// BatchesPerEpoch returns the number of batches one epoch yields.
func (l *Loader) BatchesPerEpoch() int { return l.sampler.Len() }

// Next reads the next batch of the epoch as raw rows. It returns io.EOF at the
// end of the epoch.
func (l *Loader) Next() (batch sampler.Batch, inputs, labels [][]float32, err error) {
	if l.pass == nil {
		l.sampler.SetEpoch(l.epoch)
		l.pass = l.sampler.Pass()
	}
	batch, err = l.pass.Next()
	if err != nil {
		return batch, nil, nil, err
	}
	inputs, labels, err = l.ds.Batch(batch.Indices)
	if err != nil {
		return batch, nil, nil, fmt.Errorf("failed to read batch from %s: %w", l.names[batch.Dataset], err)
	}
	return batch, inputs, labels, nil
}

// Yield returns the next batch of the epoch as gomlx tensors. spec is the
// name of the member the batch came from, whether or not reporting is enabled.
// At the end of the epoch it returns io.EOF; call Reset to start the next one.
func (l *Loader) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	batch, in, la, err := l.Next()
	if err != nil {
		return nil, nil, nil, err
	}

	flat, err := MakeBatchFlat(in, la)
	if err != nil {
		return nil, nil, nil, err
	}
	inT, laT, err := flat.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return l.names[batch.Dataset], []*tensors.Tensor{inT}, []*tensors.Tensor{laT}, nil
}

// Reset advances to the next epoch, which reshuffles the batch order.
func (l *Loader) Reset() {
	l.SetEpoch(l.epoch + 1)
}
