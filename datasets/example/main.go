package main

// Example command that loads two CSV datasets, concatenates them and walks
// one proportional epoch with the Loader, printing which dataset every batch
// came from.
//
// The datasets use lazy loading - rows are only read from disk when a batch
// needs them.
//
// Usage:
//   go run ./example -a "../assets/nli/*.csv" -b "../assets/sts/*.csv"
//
// Both patterns must match CSV files with the columns given by -features and
// -labels. If a pattern matches nothing the example prints an error and exits.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/Noofbiz/mixbatch/datasets"
	"github.com/Noofbiz/mixbatch/sampler"
)

func main() {
	patternA := flag.String("a", "../assets/nli/*.csv", "glob pattern for the first dataset")
	patternB := flag.String("b", "../assets/sts/*.csv", "glob pattern for the second dataset")
	features := flag.String("features", "x,y", "comma-separated feature columns")
	labels := flag.String("labels", "label", "comma-separated label columns")
	batchSize := flag.Int("batch-size", 4, "batch size")
	flag.Parse()

	featureCols := strings.Split(*features, ",")
	labelCols := strings.Split(*labels, ",")

	a, err := datasets.NewCSVDataset("a", *patternA, featureCols, labelCols)
	if err != nil {
		log.Fatalf("failed to load dataset a: %v", err)
	}
	b, err := datasets.NewCSVDataset("b", *patternB, featureCols, labelCols)
	if err != nil {
		log.Fatalf("failed to load dataset b: %v", err)
	}
	fmt.Printf("Dataset a: %d examples, dataset b: %d examples\n", a.Len(), b.Len())

	all, err := datasets.NewConcat(a, b)
	if err != nil {
		log.Fatalf("failed to concatenate datasets: %v", err)
	}

	loader, err := datasets.NewLoader(all, datasets.LoaderConfig{
		Policy:    sampler.Proportional,
		BatchSize: *batchSize,
		Seed:      42,
	})
	if err != nil {
		log.Fatalf("failed to create loader: %v", err)
	}
	fmt.Printf("Batches per epoch: %d\n", loader.BatchesPerEpoch())

	for step := 0; ; step++ {
		spec, inputs, _, err := loader.Yield()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatalf("failed to yield batch %d: %v", step, err)
		}
		fmt.Printf("  step %3d: dataset=%v input=%v\n", step, spec, inputs[0].Shape())
	}

	fmt.Println("\nExample completed successfully!")
}
