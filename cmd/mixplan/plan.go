package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Noofbiz/mixbatch/sampler"
)

// scheduledBatch is one row of a schedule.
type scheduledBatch struct {
	Epoch   int
	Step    int
	Dataset int
	Name    string
	Indices []int
}

// buildSchedule runs one pass per epoch and records every batch. The dataset
// name is read from the notifier slot right after each batch, the way a
// training loop would.
func buildSchedule(s *sampler.Sampler, slot *sampler.NameSlot, epochs int, logger zerolog.Logger) ([]scheduledBatch, error) {
	var out []scheduledBatch
	for epoch := range epochs {
		s.SetEpoch(epoch)
		p := s.Pass()
		for {
			b, err := p.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("epoch %d step %d: %w", epoch, p.Step(), err)
			}
			_, name := slot.Current()
			out = append(out, scheduledBatch{
				Epoch:   epoch,
				Step:    p.Step() - 1,
				Dataset: b.Dataset,
				Name:    name,
				Indices: b.Indices,
			})
		}
		logger.Debug().Int("epoch", epoch).Int("batches", p.Step()).Msg("Scheduled epoch")
	}
	return out, nil
}

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print or export the batch schedule of a plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadPlan(opts.configPath)
			if err != nil {
				return err
			}
			cfg.applyFlags(cmd, opts)

			s, slot, err := cfg.newSampler(opts.logger)
			if err != nil {
				return err
			}
			schedule, err := buildSchedule(s, slot, cfg.epochs(), opts.logger)
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := writeScheduleCSV(csvPath, schedule); err != nil {
					return err
				}
				opts.logger.Info().Str("path", csvPath).Int("batches", len(schedule)).Msg("Schedule written")
				return nil
			}
			printSchedule(cmd.OutOrStdout(), s, slot.DatasetNames(), schedule)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the schedule to this CSV file instead of printing it")
	return cmd
}

func printSchedule(w io.Writer, s *sampler.Sampler, names []string, schedule []scheduledBatch) {
	fmt.Fprintf(w, "policy=%s batches/epoch=%d\n", s.Policy(), s.Len())
	counts := s.BatchCounts()
	for i, r := range s.Ranges() {
		fmt.Fprintf(w, "  dataset %d %-12s range=[%d,%d) batches=%d\n", i, names[i], r.Start, r.End, counts[i])
	}
	for _, b := range schedule {
		fmt.Fprintf(w, "epoch %d step %3d  %-12s %v\n", b.Epoch, b.Step, b.Name, b.Indices)
	}
}

func writeScheduleCSV(path string, schedule []scheduledBatch) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"epoch", "step", "dataset", "name", "size", "indices"}); err != nil {
		return err
	}
	for _, b := range schedule {
		idx := make([]string, len(b.Indices))
		for i, v := range b.Indices {
			idx[i] = strconv.Itoa(v)
		}
		record := []string{
			strconv.Itoa(b.Epoch),
			strconv.Itoa(b.Step),
			strconv.Itoa(b.Dataset),
			b.Name,
			strconv.Itoa(len(b.Indices)),
			strings.Join(idx, " "),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
