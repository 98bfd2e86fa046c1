package mode

import (
	"context"
	"io"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/pipeline"
)

// Classify runs a single clip through the pipeline and publishes the report:
// to w unless quiet, and to the output path when one is configured.
func Classify(ctx context.Context, svcs pipeline.ServicesFactory, w io.Writer) error {
	cfg := svcs.CfgSvc

	names, err := svcs.DataSvc.RetrieveClassNames(cfg.GetModelName())
	if err != nil {
		return err
	}

	res, err := pipeline.NewClassifier(svcs, names).Classify(ctx)
	if err != nil {
		return err
	}

	if !cfg.IsQuiet() {
		if err := pipeline.WriteConsole(w, res.Predictions); err != nil {
			return model.GenError("classify_mode", model.KindResource, err, nil, "error printing report")
		}
	}

	if cfg.GetOutputPath() != "" {
		if err := pipeline.WriteFile(cfg.GetOutputPath(), res.Predictions); err != nil {
			return err
		}
	}

	procRunRecord(svcs.DataSvc, model.RunRecord{
		Stats:       res.Stats,
		Video:       cfg.GetVideoPath(),
		Model:       cfg.GetModelName(),
		Runtime:     cfg.GetRuntime(),
		Device:      cfg.GetDevice(),
		Predictions: res.Predictions,
	})
	return nil
}
