package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/parkbench/autovision/internal/config"
	"github.com/parkbench/autovision/internal/model"
	"github.com/parkbench/autovision/internal/output"
	"github.com/parkbench/autovision/internal/output/file"
	"github.com/parkbench/autovision/internal/output/stdout"
	"github.com/parkbench/autovision/pkg/autovision"
)

func newDetectCmd() *cobra.Command {
	var (
		pretty     bool
		outPath    string
		valuesPath string
	)

	cmd := &cobra.Command{
		Use:   "detect IMAGE...",
		Short: "Detect vehicle attributes from listing photos",
		Long: `Detect runs the full pipeline over the given image files and prints the
structured result. Typically 2-6 photos; at least one is required.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			var valid autovision.ValidValues
			if valuesPath != "" {
				vv, err := config.LoadValidValues(valuesPath)
				if err != nil {
					return err
				}
				valid = autovision.ValidValues{
					Makes:  vv.Makes,
					Models: vv.Models,
					Colors: vv.Colors,
					Years:  vv.Years,
				}
			}

			det := autovision.New(detectorOptions(cfg)...)
			defer det.Close()

			res, err := det.DetectWithValues(cmd.Context(), args, valid)
			if err != nil {
				return renderFailure(err)
			}

			var sink output.Output
			if outPath != "" {
				sink, err = file.New(outPath, cfg.Engine.Debug)
				if err != nil {
					return err
				}
			} else {
				sink = stdout.New(cfg.Engine.Debug, pretty)
			}
			defer sink.Close()

			if err := sink.Write(cmd.Context(), res); err != nil {
				return err
			}

			if res.Meta.ConfidenceLevel == model.LevelLow {
				slog.Info("low confidence: form prefill withheld, suggestions returned",
					"id", res.ID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "pretty-print the JSON result")
	cmd.Flags().StringVar(&outPath, "out", "", "append the result to a file instead of stdout")
	cmd.Flags().StringVar(&valuesPath, "values", "",
		"YAML file with valid makes/models/colors/years to canonicalize against")

	return cmd
}

// detectorOptions maps process configuration onto detector options.
func detectorOptions(cfg config.Config) []autovision.Option {
	opts := []autovision.Option{
		autovision.WithModelDir(cfg.Engine.ModelDir),
		autovision.WithDatasetPath(cfg.Engine.DatasetPath),
		autovision.WithCachePath(cfg.Cache.Path),
		autovision.WithMinSupport(cfg.Engine.MinSupport),
		autovision.WithMaxModelLen(cfg.Engine.MaxModelLen),
		autovision.WithFuzzyCutoff(cfg.Engine.FuzzyCutoff),
		autovision.WithYearFloor(cfg.Engine.YearFloor),
		autovision.WithDebug(cfg.Engine.Debug),
	}
	if cfg.Engine.VocabFile != "" {
		vocab, err := config.LoadVocabulary(cfg.Engine.VocabFile)
		if err != nil {
			slog.Warn("ignoring vocabulary file", "path", cfg.Engine.VocabFile, "err", err)
		} else if len(vocab.Colors) > 0 {
			opts = append(opts, autovision.WithColors(vocab.Colors))
		}
	}
	return opts
}

// renderFailure maps engine failure kinds to distinct user-facing messages.
func renderFailure(err error) error {
	switch {
	case errors.Is(err, autovision.ErrNoImages):
		return fmt.Errorf("no images supplied: pass at least one image path")
	case errors.Is(err, autovision.ErrNoReadableImages):
		return fmt.Errorf("none of the supplied images could be read: %w", err)
	case errors.Is(err, autovision.ErrTaxonomy):
		return fmt.Errorf("the make/model catalog is unavailable: %w", err)
	case errors.Is(err, autovision.ErrClassifier):
		return fmt.Errorf("classification failed: %w", err)
	default:
		return err
	}
}
