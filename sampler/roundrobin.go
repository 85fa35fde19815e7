package sampler

// roundRobinOrder cycles over dataset indices 0, 1, ..., n-1, 0, 1, ...
// A cycle only starts when every dataset can serve its turn, so the pass ends
// at the first exhausted dataset and every served cycle is complete.
type roundRobinOrder struct {
	batchers []*batcher
	cur      int
}

func (o *roundRobinOrder) next() (int, bool) {
	if len(o.batchers) == 0 {
		return 0, false
	}
	if o.cur == 0 {
		for _, b := range o.batchers {
			if b.remaining() == 0 {
				return 0, false
			}
		}
	}
	ds := o.cur
	o.cur = (o.cur + 1) % len(o.batchers)
	return ds, true
}

// roundRobinLen is the number of complete cycles before the first dataset runs
// dry, times the number of datasets.
func roundRobinLen(counts []int) int {
	if len(counts) == 0 {
		return 0
	}
	shortest := counts[0]
	for _, c := range counts[1:] {
		shortest = min(shortest, c)
	}
	return shortest * len(counts)
}

// NewRoundRobin returns a sampler that serves one batch per dataset in
// ascending dataset order, cycling until any dataset is exhausted. Batches
// still left in longer datasets are not served in that pass, and a partial
// final cycle is never served.
func NewRoundRobin(cfg Config) (*Sampler, error) {
	return New(RoundRobin, cfg)
}
