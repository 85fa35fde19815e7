package datasets

// This package holds the data side of multi-dataset training: datasets that
// are read lazily from CSV files, a concatenated view that puts several of
// them into one global index space, and a Loader that walks that space in the
// batch order chosen by a sampler.Sampler.
//
// Layout and intended usage:
//
// CSVDataset
//   - Stores paths to CSV files matching a pattern
//   - Loads rows on demand; feature and label columns are chosen by name
//   - Inputs and labels per example are float32 vectors
//
// Concat
//   - Member i owns the global indices [start_i, end_i), in member order
//   - Lengths() and Names() feed the sampler and its dataset notifications
//
// Loader
//   - Yields gomlx tensors one batch at a time, every batch from one member
//   - Tracks which member the current batch came from
//
// The data sets should use lazy loading to save memory, as the CSV files can
// be large.
type Dataset interface {
	Len() int
	Example(i int) (inputs []float32, labels []float32, err error)
	Batch(indices []int) (inputs [][]float32, labels [][]float32, err error)
	Name() string
}
