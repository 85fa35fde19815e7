package sampler

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"
)

// Policy selects how batches from different datasets are interleaved.
type Policy int

const (
	RoundRobin Policy = iota
	Proportional
)

func (p Policy) String() string {
	switch p {
	case RoundRobin:
		return "round-robin"
	case Proportional:
		return "proportional"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "round-robin" (or "roundrobin", "rr") and "proportional".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "round-robin", "roundrobin", "round_robin", "rr":
		return RoundRobin, nil
	case "proportional", "prop":
		return Proportional, nil
	}
	return 0, fmt.Errorf("%w: unknown policy %q", ErrConfiguration, s)
}

// Config configures a Sampler.
// Zero values produce sensible defaults; see field comments.
type Config struct {
	// Lengths holds the size of every dataset, in dataset order. Each must be >= 0.
	Lengths []int

	// BatchSize is the number of indices per batch. Must be > 0.
	BatchSize int

	// DropLast discards a dataset's final batch when it is shorter than BatchSize.
	DropLast bool

	// Seed is the base seed; a pass uses Seed+epoch.
	Seed int64

	// DisableShuffle serves each dataset's indices in ascending order.
	// The zero value permutes indices every pass.
	DisableShuffle bool

	// Notifier, when set, is told the source dataset of every batch. Its
	// DatasetNames must hold one name per dataset. A typed nil counts as set,
	// so its methods must tolerate a nil receiver as NameSlot's do.
	Notifier Notifier

	// Logger receives debug events. nil → zerolog.Nop().
	Logger *zerolog.Logger
}

// Sampler produces the batches of one epoch at a time. A Sampler is reused
// across epochs: call SetEpoch before each pass. It is not safe for concurrent
// passes.
type Sampler struct {
	policy    Policy
	lengths   []int
	ranges    []Range
	counts    []int
	batchSize int
	dropLast  bool
	shuffle   bool
	seed      int64
	epoch     int
	notifier  Notifier
	logger    zerolog.Logger
}

// New creates a Sampler for the given policy. Invalid configuration returns
// an error wrapping ErrConfiguration.
func New(policy Policy, cfg Config) (*Sampler, error) {
	if policy != RoundRobin && policy != Proportional {
		return nil, fmt.Errorf("%w: unknown policy %d", ErrConfiguration, int(policy))
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size %d must be positive", ErrConfiguration, cfg.BatchSize)
	}
	ranges, err := Partition(cfg.Lengths)
	if err != nil {
		return nil, err
	}
	if cfg.Notifier != nil {
		if names := cfg.Notifier.DatasetNames(); len(names) != len(cfg.Lengths) {
			return nil, fmt.Errorf("%w: notifier has %d dataset names for %d datasets",
				ErrConfiguration, len(names), len(cfg.Lengths))
		}
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	counts := make([]int, len(cfg.Lengths))
	for i, n := range cfg.Lengths {
		counts[i] = BatchCount(n, cfg.BatchSize, cfg.DropLast)
	}

	s := &Sampler{
		policy:    policy,
		lengths:   append([]int(nil), cfg.Lengths...),
		ranges:    ranges,
		counts:    counts,
		batchSize: cfg.BatchSize,
		dropLast:  cfg.DropLast,
		shuffle:   !cfg.DisableShuffle,
		seed:      cfg.Seed,
		notifier:  cfg.Notifier,
		logger: logger.With().
			Str("component", "sampler").
			Str("policy", policy.String()).
			Logger(),
	}
	s.logger.Debug().
		Ints("lengths", s.lengths).
		Int("batch_size", s.batchSize).
		Bool("drop_last", s.dropLast).
		Bool("shuffle", s.shuffle).
		Int("batches", s.Len()).
		Msg("sampler created")
	return s, nil
}

// Policy returns the interleaving policy.
func (s *Sampler) Policy() Policy { return s.policy }

// SetEpoch sets the epoch used to seed the next pass.
func (s *Sampler) SetEpoch(epoch int) { s.epoch = epoch }

func (s *Sampler) Epoch() int { return s.epoch }

// Ranges returns the global index range of each dataset.
func (s *Sampler) Ranges() []Range {
	return append([]Range(nil), s.ranges...)
}

// BatchCounts returns how many batches each dataset contributes when drained.
func (s *Sampler) BatchCounts() []int {
	return append([]int(nil), s.counts...)
}

// Len returns the number of batches one pass yields, without running it.
func (s *Sampler) Len() int {
	if s.policy == RoundRobin {
		return roundRobinLen(s.counts)
	}
	return proportionalLen(s.counts)
}

// Batch is a group of global indices drawn from a single dataset.
type Batch struct {
	Dataset int
	Indices []int
}

// order picks the dataset that serves the next batch of a pass.
type order interface {
	next() (int, bool)
}

// Pass is one epoch's sequence of batches. It is single-use; start a new pass
// with Sampler.Pass to iterate again.
type Pass struct {
	s        *Sampler
	epoch    int
	batchers []*batcher
	order    order
	step     int
	err      error
}

// Pass starts iterating the current epoch. The generator is seeded with
// Seed+epoch and is local to the pass.
func (s *Sampler) Pass() *Pass {
	rng := rand.New(rand.NewSource(s.seed + int64(s.epoch)))

	var permRNG *rand.Rand
	if s.shuffle {
		permRNG = rng
	}
	batchers := make([]*batcher, len(s.ranges))
	for i, r := range s.ranges {
		batchers[i] = newBatcher(r, s.batchSize, s.dropLast, permRNG)
	}

	p := &Pass{s: s, epoch: s.epoch, batchers: batchers}
	switch s.policy {
	case RoundRobin:
		p.order = &roundRobinOrder{batchers: batchers}
	case Proportional:
		p.order = newDrawList(s.counts, rng)
	}

	s.logger.Debug().Int("epoch", s.epoch).Int64("seed", s.seed+int64(s.epoch)).Msg("pass started")
	return p
}

// Next returns the next batch of the pass. It returns io.EOF once the pass is
// over; any other error wraps ErrConfiguration and also ends the pass.
func (p *Pass) Next() (Batch, error) {
	if p.err != nil {
		return Batch{}, p.err
	}

	ds, ok := p.order.next()
	var indices []int
	if ok {
		indices, ok = p.batchers[ds].next()
	}
	if !ok {
		p.s.logger.Debug().
			Int("epoch", p.epoch).
			Int("batches", p.step).
			Ints("remaining", p.remaining()).
			Msg("pass finished")
		p.err = io.EOF
		return Batch{}, p.err
	}
	p.step++

	if err := p.notify(ds); err != nil {
		p.err = err
		return Batch{}, err
	}
	return Batch{Dataset: ds, Indices: indices}, nil
}

func (p *Pass) remaining() []int {
	left := make([]int, len(p.batchers))
	for i, b := range p.batchers {
		left[i] = b.remaining()
	}
	return left
}

// Step returns the number of batches served so far.
func (p *Pass) Step() int { return p.step }

func (p *Pass) notify(ds int) error {
	n := p.s.notifier
	if n == nil || !n.Active() {
		return nil
	}
	names := n.DatasetNames()
	if ds < 0 || ds >= len(names) {
		return fmt.Errorf("%w: no name for dataset %d (notifier has %d names)", ErrConfiguration, ds, len(names))
	}
	n.Notify(ds, names[ds])
	return nil
}

// All iterates a fresh pass over the current epoch. Iteration stops after the
// first error, which is yielded with a zero Batch.
func (s *Sampler) All() iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		p := s.Pass()
		for {
			b, err := p.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}
