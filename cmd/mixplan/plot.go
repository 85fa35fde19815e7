package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func newPlotCmd(opts *rootOptions) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot cumulative batches per dataset over the schedule",
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

			outPath := filepath.Join(outDir, "schedule.png")
			title := fmt.Sprintf("Cumulative batches per dataset (%s, %d epochs)", s.Policy(), cfg.epochs())
			if err := plotSchedule(outPath, title, slot.DatasetNames(), schedule); err != nil {
				return fmt.Errorf("failed to generate plot: %w", err)
			}
			opts.logger.Info().Str("path", outPath).Msg("Schedule plot written")
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "plots", "output directory for generated plots")
	return cmd
}

// cumulativeLines returns, per dataset, the number of its batches served up
// to each global step. Steps run across epochs.
func cumulativeLines(numDatasets int, schedule []scheduledBatch) []plotter.XYs {
	lines := make([]plotter.XYs, numDatasets)
	counts := make([]int, numDatasets)
	for i := range lines {
		lines[i] = make(plotter.XYs, 0, len(schedule)+1)
		lines[i] = append(lines[i], plotter.XY{X: 0, Y: 0})
	}
	for step, b := range schedule {
		counts[b.Dataset]++
		for ds := range lines {
			lines[ds] = append(lines[ds], plotter.XY{X: float64(step + 1), Y: float64(counts[ds])})
		}
	}
	return lines
}

// plotSchedule writes a PNG with one line per dataset.
func plotSchedule(outPath, title string, names []string, schedule []scheduledBatch) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "step"
	p.Y.Label.Text = "batches served"

	for i, xys := range cumulativeLines(len(names), schedule) {
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.2)
		p.Add(line)
		p.Legend.Add(names[i], line)
	}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true

	if err := ensureDir(filepath.Dir(outPath)); err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return err
	}
	return nil
}
