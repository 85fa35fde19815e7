package sampler

import (
	"bytes"
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, s *Sampler) []Batch {
	t.Helper()
	var out []Batch
	for b, err := range s.All() {
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

func TestNewInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero batch size", Config{Lengths: []int{4}, BatchSize: 0}},
		{"negative batch size", Config{Lengths: []int{4}, BatchSize: -2}},
		{"negative length", Config{Lengths: []int{4, -1}, BatchSize: 2}},
		{"name count mismatch", Config{Lengths: []int{4, 6}, BatchSize: 2, Notifier: NewNameSlot("only")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, policy := range []Policy{RoundRobin, Proportional} {
				_, err := New(policy, tt.cfg)
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfiguration), "policy %s: %v", policy, err)
			}
		})
	}

	_, err := New(Policy(7), Config{Lengths: []int{1}, BatchSize: 1})
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{
		"round-robin":  RoundRobin,
		"RR":           RoundRobin,
		" roundrobin ": RoundRobin,
		"proportional": Proportional,
		"Proportional": Proportional,
	} {
		got, err := ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePolicy("random")
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, "proportional", Proportional.String())
	assert.Equal(t, "Policy(9)", Policy(9).String())
}

// lengths [4, 6], batch size 2, no drop-last, no shuffle.
func exampleConfig() Config {
	return Config{Lengths: []int{4, 6}, BatchSize: 2, DisableShuffle: true}
}

func TestRoundRobinExample(t *testing.T) {
	s, err := NewRoundRobin(exampleConfig())
	require.NoError(t, err)

	assert.Equal(t, []Range{{0, 4}, {4, 10}}, s.Ranges())
	assert.Equal(t, []int{2, 3}, s.BatchCounts())
	assert.Equal(t, 4, s.Len())

	want := []Batch{
		{Dataset: 0, Indices: []int{0, 1}},
		{Dataset: 1, Indices: []int{4, 5}},
		{Dataset: 0, Indices: []int{2, 3}},
		{Dataset: 1, Indices: []int{6, 7}},
	}
	assert.Equal(t, want, collect(t, s))
}

func TestProportionalExample(t *testing.T) {
	s, err := NewProportional(exampleConfig())
	require.NoError(t, err)
	assert.Equal(t, 5, s.Len())

	got := collect(t, s)
	require.Len(t, got, 5)

	perDataset := map[int][][]int{}
	for _, b := range got {
		perDataset[b.Dataset] = append(perDataset[b.Dataset], b.Indices)
	}
	// without shuffling each dataset still serves its batches in ascending order
	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, perDataset[0])
	assert.Equal(t, [][]int{{4, 5}, {6, 7}, {8, 9}}, perDataset[1])
}

func TestLenMatchesPass(t *testing.T) {
	lengthSets := [][]int{
		{},
		{0},
		{5},
		{4, 6},
		{7, 3, 11},
		{1, 100, 33},
		{9, 0, 4},
	}
	for _, lengths := range lengthSets {
		for _, dropLast := range []bool{false, true} {
			for _, policy := range []Policy{RoundRobin, Proportional} {
				s, err := New(policy, Config{Lengths: lengths, BatchSize: 3, DropLast: dropLast, Seed: 5})
				require.NoError(t, err)
				got := collect(t, s)
				assert.Len(t, got, s.Len(), "policy=%s lengths=%v dropLast=%v", policy, lengths, dropLast)
			}
		}
	}
}

func TestRoundRobinLenFormula(t *testing.T) {
	s, err := NewRoundRobin(Config{Lengths: []int{10, 4, 7}, BatchSize: 2, DropLast: true})
	require.NoError(t, err)
	// counts 5, 2, 3
	assert.Equal(t, 2*3, s.Len())

	s, err = NewRoundRobin(Config{Lengths: []int{10, 5, 7}, BatchSize: 2})
	require.NoError(t, err)
	// counts 5, 3, 4
	assert.Equal(t, 3*3, s.Len())
}

func TestProportionalLenFormula(t *testing.T) {
	s, err := NewProportional(Config{Lengths: []int{10, 5, 7}, BatchSize: 2, DropLast: true})
	require.NoError(t, err)
	assert.Equal(t, 5+2+3, s.Len())

	s, err = NewProportional(Config{Lengths: []int{10, 5, 7}, BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5+3+4, s.Len())
}

func TestDeterminism(t *testing.T) {
	for _, policy := range []Policy{RoundRobin, Proportional} {
		cfg := Config{Lengths: []int{37, 52, 18}, BatchSize: 4, Seed: 1234}
		a, err := New(policy, cfg)
		require.NoError(t, err)
		b, err := New(policy, cfg)
		require.NoError(t, err)

		a.SetEpoch(3)
		b.SetEpoch(3)
		first := collect(t, a)
		assert.Equal(t, first, collect(t, b), "policy %s", policy)

		// a new pass over the same epoch replays the same sequence
		assert.Equal(t, first, collect(t, a), "policy %s", policy)

		a.SetEpoch(4)
		assert.NotEqual(t, first, collect(t, a), "policy %s: epoch change must reshuffle", policy)
	}
}

func TestSeedPlusEpoch(t *testing.T) {
	lengths := []int{20, 30}
	a, err := NewProportional(Config{Lengths: lengths, BatchSize: 4, Seed: 10})
	require.NoError(t, err)
	a.SetEpoch(2)

	b, err := NewProportional(Config{Lengths: lengths, BatchSize: 4, Seed: 12})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Epoch())

	assert.Equal(t, collect(t, a), collect(t, b))
}

func TestRoundRobinCyclesThenStops(t *testing.T) {
	s, err := NewRoundRobin(Config{Lengths: []int{9, 4, 30}, BatchSize: 2, Seed: 8})
	require.NoError(t, err)

	got := collect(t, s)
	require.Len(t, got, 2*3)
	for i, b := range got {
		assert.Equal(t, i%3, b.Dataset, "batch %d", i)
	}
}

func TestRoundRobinEmptyDatasetEndsPassImmediately(t *testing.T) {
	s, err := NewRoundRobin(Config{Lengths: []int{6, 0, 6}, BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	p := s.Pass()
	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, p.Step())
}

// Datasets ordered before the shortest one never get an extra turn once the
// shortest runs out.
func TestRoundRobinNoPartialCycle(t *testing.T) {
	s, err := NewRoundRobin(Config{Lengths: []int{10, 10, 2}, BatchSize: 2, DisableShuffle: true})
	require.NoError(t, err)

	got := collect(t, s)
	require.Len(t, got, 3)
	assert.Equal(t, []Batch{
		{Dataset: 0, Indices: []int{0, 1}},
		{Dataset: 1, Indices: []int{10, 11}},
		{Dataset: 2, Indices: []int{20, 21}},
	}, got)
}

func TestRoundRobinShortDatasetWithDropLast(t *testing.T) {
	s, err := NewRoundRobin(Config{Lengths: []int{1, 8}, BatchSize: 2, DropLast: true})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, collect(t, s))
}

func TestProportionalCoverage(t *testing.T) {
	lengths := []int{13, 0, 27, 5}
	s, err := NewProportional(Config{Lengths: lengths, BatchSize: 4, Seed: 77})
	require.NoError(t, err)
	s.SetEpoch(9)

	ranges := s.Ranges()
	var all []int
	for _, b := range collect(t, s) {
		r := ranges[b.Dataset]
		for _, idx := range b.Indices {
			assert.True(t, idx >= r.Start && idx < r.End, "index %d outside dataset %d", idx, b.Dataset)
		}
		all = append(all, b.Indices...)
	}

	sort.Ints(all)
	want := make([]int, 0, 45)
	for i := range 45 {
		want = append(want, i)
	}
	assert.Equal(t, want, all)
}

func TestProportionalDropLastDrainsFullBatches(t *testing.T) {
	s, err := NewProportional(Config{Lengths: []int{13, 27, 5}, BatchSize: 4, DropLast: true, Seed: 3})
	require.NoError(t, err)

	perDataset := map[int]int{}
	for _, b := range collect(t, s) {
		assert.Len(t, b.Indices, 4)
		perDataset[b.Dataset]++
	}
	assert.Equal(t, map[int]int{0: 3, 1: 6, 2: 1}, perDataset)
}

func TestNotification(t *testing.T) {
	for _, policy := range []Policy{RoundRobin, Proportional} {
		slot := NewNameSlot("nli", "sts", "qa")
		s, err := New(policy, Config{Lengths: []int{8, 12, 10}, BatchSize: 3, Seed: 2, Notifier: slot})
		require.NoError(t, err)

		idx, name := slot.Current()
		assert.Equal(t, -1, idx)
		assert.Empty(t, name)

		p := s.Pass()
		for {
			b, err := p.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			idx, name := slot.Current()
			assert.Equal(t, b.Dataset, idx)
			assert.Equal(t, slot.Names[b.Dataset], name)
		}
		assert.Equal(t, s.Len(), p.Step())
	}
}

func TestNotificationInactive(t *testing.T) {
	slot := NewNameSlot("a", "b")
	slot.Enabled = false
	s, err := NewProportional(Config{Lengths: []int{4, 4}, BatchSize: 2, Notifier: slot})
	require.NoError(t, err)

	assert.Len(t, collect(t, s), 4)
	idx, _ := slot.Current()
	assert.Equal(t, -1, idx)
}

func TestNotificationNilSlot(t *testing.T) {
	var slot *NameSlot

	_, err := NewProportional(Config{Lengths: []int{4, 4}, BatchSize: 2, Notifier: slot})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	// with no datasets the nil slot has the right number of names and stays inactive
	s, err := NewProportional(Config{BatchSize: 2, Notifier: slot})
	require.NoError(t, err)
	assert.Empty(t, collect(t, s))

	idx, name := slot.Current()
	assert.Equal(t, -1, idx)
	assert.Empty(t, name)
}

func TestNotificationNamesShrunkMidPass(t *testing.T) {
	slot := NewNameSlot("a", "b")
	s, err := NewRoundRobin(Config{Lengths: []int{4, 4}, BatchSize: 2, Notifier: slot})
	require.NoError(t, err)

	p := s.Pass()
	_, err = p.Next()
	require.NoError(t, err)

	slot.Names = slot.Names[:1]
	_, err = p.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	// the pass stays failed
	_, err = p.Next()
	assert.True(t, errors.Is(err, ErrConfiguration))

	var batches, failures int
	for _, err := range s.All() {
		if err != nil {
			failures++
			assert.True(t, errors.Is(err, ErrConfiguration))
			continue
		}
		batches++
	}
	assert.Equal(t, 1, batches)
	assert.Equal(t, 1, failures, "All stops after yielding the error")
}

func TestAllStopsWhenConsumerBreaks(t *testing.T) {
	s, err := NewProportional(Config{Lengths: []int{100}, BatchSize: 1})
	require.NoError(t, err)

	n := 0
	for range s.All() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestLoggerReceivesEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	s, err := NewRoundRobin(Config{Lengths: []int{2, 6}, BatchSize: 2, Logger: &logger})
	require.NoError(t, err)
	collect(t, s)

	out := buf.String()
	assert.Contains(t, out, `"component":"sampler"`)
	assert.Contains(t, out, `"policy":"round-robin"`)
	assert.Contains(t, out, "pass started")
	assert.Contains(t, out, "pass finished")
}

func BenchmarkProportionalPass(b *testing.B) {
	s, err := NewProportional(Config{Lengths: []int{10000, 25000, 4000}, BatchSize: 32})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SetEpoch(i)
		for range s.All() {
		}
	}
}
