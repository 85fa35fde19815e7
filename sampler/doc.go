// Package sampler schedules batches of global sample indices across several
// datasets that share one concatenated index space.
//
// Each dataset owns a contiguous Range of global indices. Every pass over an
// epoch splits those ranges into batches (optionally permuted) and interleaves
// them with one of two policies:
//
//   - RoundRobin cycles through datasets in index order and stops the whole
//     pass as soon as one dataset runs out of batches.
//   - Proportional shuffles a draw list in which dataset i appears once per
//     batch it contributes, so every dataset is drained completely.
//
// Passes are deterministic: the permutations come from a generator seeded with
// Seed+epoch, freshly created for each pass.
//
// Basic usage:
//
//	s, err := sampler.NewProportional(sampler.Config{
//	    Lengths:   []int{400, 600},
//	    BatchSize: 32,
//	    Seed:      42,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for epoch := range 3 {
//	    s.SetEpoch(epoch)
//	    for b, err := range s.All() {
//	        ...
//	    }
//	}
package sampler
