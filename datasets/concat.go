package datasets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Noofbiz/mixbatch/sampler"
)

// Concat joins several datasets into one global index space. Member i owns
// the indices [Ranges()[i].Start, Ranges()[i].End).
type Concat struct {
	members []Dataset
	ranges  []sampler.Range
}

// NewConcat concatenates the members in the order given.
func NewConcat(members ...Dataset) (*Concat, error) {
	if len(members) == 0 {
		return nil, errors.New("concat needs at least one dataset")
	}
	lengths := make([]int, len(members))
	for i, m := range members {
		if m == nil {
			return nil, fmt.Errorf("dataset %d is nil", i)
		}
		lengths[i] = m.Len()
	}
	ranges, err := sampler.Partition(lengths)
	if err != nil {
		return nil, err
	}
	return &Concat{members: members, ranges: ranges}, nil
}

// Len returns the total number of examples of all members.
func (c *Concat) Len() int {
	return c.ranges[len(c.ranges)-1].End
}

// Lengths returns each member's length, in member order.
func (c *Concat) Lengths() []int {
	lengths := make([]int, len(c.ranges))
	for i, r := range c.ranges {
		lengths[i] = r.Len()
	}
	return lengths
}

// Names returns each member's name, in member order.
func (c *Concat) Names() []string {
	names := make([]string, len(c.members))
	for i, m := range c.members {
		names[i] = m.Name()
	}
	return names
}

func (c *Concat) Ranges() []sampler.Range {
	return append([]sampler.Range(nil), c.ranges...)
}

func (c *Concat) Member(i int) Dataset {
	return c.members[i]
}

func (c *Concat) Name() string {
	return "concat(" + strings.Join(c.Names(), ",") + ")"
}

// Example reads a single example by global index
func (c *Concat) Example(idx int) ([]float32, []float32, error) {
	member, local, ok := sampler.Locate(c.ranges, idx)
	if !ok {
		return nil, nil, fmt.Errorf("index %d out of range [0, %d)", idx, c.Len())
	}
	return c.members[member].Example(local)
}

// Batch reads examples by global index. Indices are grouped per member so
// each member serves its share with a single Batch call.
func (c *Concat) Batch(indices []int) ([][]float32, [][]float32, error) {
	inputs := make([][]float32, len(indices))
	labels := make([][]float32, len(indices))

	type group struct {
		local     []int
		positions []int
	}
	groups := make(map[int]*group)
	for pos, idx := range indices {
		member, local, ok := sampler.Locate(c.ranges, idx)
		if !ok {
			return nil, nil, fmt.Errorf("index %d out of range [0, %d)", idx, c.Len())
		}
		g := groups[member]
		if g == nil {
			g = &group{}
			groups[member] = g
		}
		g.local = append(g.local, local)
		g.positions = append(g.positions, pos)
	}

	for member, g := range groups {
		in, la, err := c.members[member].Batch(g.local)
		if err != nil {
			return nil, nil, fmt.Errorf("dataset %s: %w", c.members[member].Name(), err)
		}
		for i, pos := range g.positions {
			inputs[pos] = in[i]
			labels[pos] = la[i]
		}
	}

	return inputs, labels, nil
}
