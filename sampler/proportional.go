package sampler

import "math/rand"

// drawList is the shuffled sequence of dataset indices for a proportional
// pass. Dataset i appears exactly as many times as it has batches, so no
// dataset can run out before the list does.
type drawList struct {
	draws []int
	pos   int
}

func newDrawList(counts []int, rng *rand.Rand) *drawList {
	draws := make([]int, 0, proportionalLen(counts))
	for ds, c := range counts {
		for range c {
			draws = append(draws, ds)
		}
	}
	rng.Shuffle(len(draws), func(i, j int) {
		draws[i], draws[j] = draws[j], draws[i]
	})
	return &drawList{draws: draws}
}

func (d *drawList) next() (int, bool) {
	if d.pos >= len(d.draws) {
		return 0, false
	}
	ds := d.draws[d.pos]
	d.pos++
	return ds, true
}

func proportionalLen(counts []int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

// NewProportional returns a sampler that serves every batch of every dataset
// once per pass, in an order drawn at random with each dataset weighted by its
// batch count.
func NewProportional(cfg Config) (*Sampler, error) {
	return New(Proportional, cfg)
}
