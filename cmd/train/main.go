// Command train fits the loan prediction pipeline on a CSV file and writes
// it where the server loads it from.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"loan-approval-service/internal/model"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func main() {
	data := flag.String("data", "data/loan_data.csv", "Path to the training CSV")
	out := flag.String("out", "models/loan_pipeline.zst", "Where to write the fitted pipeline")
	target := flag.String("target", "loan_status", "Name of the 0/1 label column")
	trees := flag.Int("trees", 100, "Number of trees in the forest")
	seed := flag.Int64("seed", 42, "Random seed")
	workers := flag.Int("workers", 0, "Trees trained in parallel (0 = one per CPU)")
	flag.Parse()

	ds, err := model.LoadCSV(*data, *target)
	if err != nil {
		logger.Fatal().Err(err).Str("data", *data).Msg("Failed to load dataset")
	}
	logger.Info().Int("rows", len(ds.Rows)).Int("columns", len(ds.Columns)).Int("skipped", ds.Skipped).Msg("Dataset loaded")
	for _, c := range ds.Columns {
		logger.Debug().Str("column", c.Name).Str("kind", c.Kind.String()).Msg("Column")
	}

	start := time.Now()
	p, err := model.Fit(ds, model.ForestConfig{Trees: *trees, Seed: *seed, Workers: *workers})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to train pipeline")
	}
	logger.Info().Dur("took", time.Since(start)).Int("features", p.Encoder.Width()).Msg("Pipeline trained")

	acc, err := p.Accuracy(ds)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to score pipeline")
	}
	logger.Info().Float64("accuracy", acc).Msg("Training accuracy")

	if err := p.Save(*out); err != nil {
		logger.Fatal().Err(err).Str("out", *out).Msg("Failed to save pipeline")
	}
	fmt.Printf("Model pipeline saved to %s\n", *out)
}
