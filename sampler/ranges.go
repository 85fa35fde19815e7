package sampler

import (
	"fmt"
	"sort"
)

// Range is the half-open span [Start, End) of global indices owned by one
// dataset.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Partition turns dataset lengths into contiguous ranges over the global index
// space [0, sum(lengths)). Range i starts where range i-1 ends.
func Partition(lengths []int) ([]Range, error) {
	ranges := make([]Range, len(lengths))
	start := 0
	for i, n := range lengths {
		if n < 0 {
			return nil, fmt.Errorf("%w: dataset %d has negative length %d", ErrConfiguration, i, n)
		}
		ranges[i] = Range{Start: start, End: start + n}
		start += n
	}
	return ranges, nil
}

// Locate maps a global index to the dataset owning it and the index local to
// that dataset. ok is false when the index falls outside every range.
func Locate(ranges []Range, globalIdx int) (dataset, local int, ok bool) {
	if len(ranges) == 0 || globalIdx < 0 || globalIdx >= ranges[len(ranges)-1].End {
		return 0, 0, false
	}
	// first range whose end is past the index; empty ranges are skipped naturally
	i := sort.Search(len(ranges), func(i int) bool {
		return globalIdx < ranges[i].End
	})
	return i, globalIdx - ranges[i].Start, true
}
