package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Noofbiz/mixbatch/datasets"
	"github.com/Noofbiz/mixbatch/sampler"
)

// defaultPlanYAML is used when no --config is given and is what `mixplan init`
// writes to disk.
const defaultPlanYAML = `# mixplan plan file (YAML; JSON is accepted too)
policy: proportional   # round-robin | proportional
batch_size: 2
drop_last: false
shuffle: true
seed: 0
epochs: 1
datasets:
  - name: ds0
    length: 4
  - name: ds1
    length: 6
  # a dataset can also be read from CSV files; its length is the row count
  # - name: nli
  #   pattern: assets/nli/*.csv
  #   features: [x, y]
  #   labels: [label]
`

// DatasetConfig describes one dataset of the plan. Either Length or Pattern
// must be set.
type DatasetConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Length   int      `yaml:"length" json:"length"`
	Pattern  string   `yaml:"pattern" json:"pattern"`
	Features []string `yaml:"features" json:"features"`
	Labels   []string `yaml:"labels" json:"labels"`
}

// PlanConfig is the on-disk plan.
type PlanConfig struct {
	Policy    string          `yaml:"policy" json:"policy"` // empty → proportional
	BatchSize int             `yaml:"batch_size" json:"batch_size"`
	DropLast  bool            `yaml:"drop_last" json:"drop_last"`
	Shuffle   *bool           `yaml:"shuffle" json:"shuffle"` // nil → true
	Seed      int64           `yaml:"seed" json:"seed"`
	Epochs    int             `yaml:"epochs" json:"epochs"` // zero → 1
	Datasets  []DatasetConfig `yaml:"datasets" json:"datasets"`
}

// parsePlan decodes a YAML or JSON plan.
func parsePlan(data []byte) (*PlanConfig, error) {
	var cfg PlanConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	return &cfg, nil
}

// loadPlan reads the plan at path, or the built-in plan when path is empty.
func loadPlan(path string) (*PlanConfig, error) {
	if path == "" {
		return parsePlan([]byte(defaultPlanYAML))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	cfg, err := parsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// applyFlags overrides plan fields with the flags the user actually set.
func (c *PlanConfig) applyFlags(cmd *cobra.Command, opts *rootOptions) {
	flags := cmd.Flags()
	if flags.Changed("policy") {
		c.Policy = opts.policy
	}
	if flags.Changed("batch-size") {
		c.BatchSize = opts.batchSize
	}
	if flags.Changed("seed") {
		c.Seed = opts.seed
	}
	if flags.Changed("epochs") {
		c.Epochs = opts.epochs
	}
	if flags.Changed("drop-last") {
		c.DropLast = opts.dropLast
	}
	if flags.Changed("no-shuffle") {
		shuffle := !opts.noShuffle
		c.Shuffle = &shuffle
	}
}

func (c *PlanConfig) epochs() int {
	if c.Epochs <= 0 {
		return 1
	}
	return c.Epochs
}

// resolveDatasets returns the length and name of every dataset. Datasets
// with a pattern are opened to count their rows.
func (c *PlanConfig) resolveDatasets(logger zerolog.Logger) (lengths []int, names []string, err error) {
	if len(c.Datasets) == 0 {
		return nil, nil, fmt.Errorf("plan has no datasets")
	}
	lengths = make([]int, len(c.Datasets))
	names = make([]string, len(c.Datasets))
	for i, d := range c.Datasets {
		names[i] = d.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("dataset%d", i)
		}
		if d.Pattern == "" {
			lengths[i] = d.Length
			continue
		}

		ds, err := datasets.NewCSVDataset(names[i], d.Pattern, d.Features, d.Labels)
		if err != nil {
			return nil, nil, fmt.Errorf("dataset %s: %w", names[i], err)
		}
		lengths[i] = ds.Len()
		logger.Info().
			Str("dataset", names[i]).
			Str("pattern", d.Pattern).
			Int("rows", lengths[i]).
			Msg("Loaded CSV dataset")
	}
	return lengths, names, nil
}

// newSampler builds the sampler described by the plan. The returned slot is
// the sampler's notifier and holds the name of the last scheduled dataset.
func (c *PlanConfig) newSampler(logger zerolog.Logger) (*sampler.Sampler, *sampler.NameSlot, error) {
	name := c.Policy
	if name == "" {
		name = sampler.Proportional.String()
	}
	policy, err := sampler.ParsePolicy(name)
	if err != nil {
		return nil, nil, err
	}
	lengths, names, err := c.resolveDatasets(logger)
	if err != nil {
		return nil, nil, err
	}

	slot := sampler.NewNameSlot(names...)
	s, err := sampler.New(policy, sampler.Config{
		Lengths:        lengths,
		BatchSize:      c.BatchSize,
		DropLast:       c.DropLast,
		Seed:           c.Seed,
		DisableShuffle: c.Shuffle != nil && !*c.Shuffle,
		Notifier:       slot,
		Logger:         &logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, slot, nil
}
