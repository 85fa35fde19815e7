package sampler

import "math/rand"

// BatchCount returns how many batches a dataset of n samples yields:
// floor(n/batchSize) with drop-last, ceil(n/batchSize) otherwise.
func BatchCount(n, batchSize int, dropLast bool) int {
	if n <= 0 || batchSize <= 0 {
		return 0
	}
	if dropLast {
		return n / batchSize
	}
	return (n + batchSize - 1) / batchSize
}

// batcher hands out the batches of one dataset range, one at a time.
type batcher struct {
	r         Range
	batchSize int
	count     int // batches this range yields for the pass
	served    int

	// perm holds the permuted global indices; nil means ascending order.
	perm []int
}

// newBatcher prepares the batches for r. When rng is non-nil the range is
// permuted with it immediately, so batchers built in dataset order consume the
// shared generator in dataset order.
func newBatcher(r Range, batchSize int, dropLast bool, rng *rand.Rand) *batcher {
	b := &batcher{
		r:         r,
		batchSize: batchSize,
		count:     BatchCount(r.Len(), batchSize, dropLast),
	}
	if rng != nil && r.Len() > 0 {
		b.perm = rng.Perm(r.Len())
		for i := range b.perm {
			b.perm[i] += r.Start
		}
	}
	return b
}

// next returns the next batch, or false once the range is exhausted.
func (b *batcher) next() ([]int, bool) {
	if b.served >= b.count {
		return nil, false
	}
	lo := b.served * b.batchSize
	hi := min(lo+b.batchSize, b.r.Len())
	b.served++

	batch := make([]int, hi-lo)
	if b.perm != nil {
		copy(batch, b.perm[lo:hi])
		return batch, true
	}
	for i := range batch {
		batch[i] = b.r.Start + lo + i
	}
	return batch, true
}

// remaining returns the number of batches not yet served.
func (b *batcher) remaining() int {
	return b.count - b.served
}
