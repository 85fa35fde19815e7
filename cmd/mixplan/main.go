// Command mixplan prints, exports and plots the batch schedule that the
// multi-dataset sampler produces for a plan file.
//
// Usage:
//
//	mixplan init plan.yaml
//	mixplan plan --config plan.yaml --epochs 2 --csv output/schedule.csv
//	mixplan plot --config plan.yaml --out plots
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
