package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/inference"
	"github.com/khaledhikmat/vc-go/service/lgr"
	"github.com/khaledhikmat/vc-go/tensor"
)

// Result is the outcome of one classification run.
type Result struct {
	Stats       model.RunStats
	Scores      model.ScoreVector
	Predictions []model.Prediction
}

// Report renders the predictions in the plain report format.
func (r Result) Report() string {
	return FormatReport(r.Predictions)
}

type Classifier struct {
	svcs       ServicesFactory
	classNames []string
}

func NewClassifier(svcs ServicesFactory, classNames []string) *Classifier {
	return &Classifier{
		svcs:       svcs,
		classNames: classNames,
	}
}

// Classify loads the model, samples the video, runs every sampled frame through
// the model and ranks the averaged scores. The runtime is closed on return.
func (c *Classifier) Classify(ctx context.Context) (Result, error) {
	tracer := otel.Tracer("pipeline")
	ctx, span := tracer.Start(ctx, "Classifier.Classify")
	cfg := c.svcs.CfgSvc
	span.SetAttributes(
		attribute.String("video", cfg.GetVideoPath()),
		attribute.String("model", cfg.GetModelName()),
		attribute.String("device", cfg.GetDevice().String()),
	)

	res, err := c.classify(ctx, tracer)
	endSpan(span, err)
	return res, err
}

func (c *Classifier) classify(ctx context.Context, tracer trace.Tracer) (Result, error) {
	cfg := c.svcs.CfgSvc
	numClasses := len(c.classNames)
	if numClasses == 0 {
		return Result{}, model.GenError("classifier", model.KindDegenerate, nil, nil, "no class names loaded")
	}
	if cfg.GetTopK() < 1 || cfg.GetTopK() > numClasses {
		return Result{}, model.GenError("classifier", model.KindDegenerate, nil,
			map[string]interface{}{"topk": cfg.GetTopK(), "classes": numClasses},
			"topk %d must be between 1 and the number of classes %d", cfg.GetTopK(), numClasses)
	}

	runID := uuid.NewString()
	log := lgr.Logger.With(slog.String("run", runID))

	// The channel transform is only known once frames are decoded.
	preproc, err := NewPreprocessor(cfg.GetMinSize(), cfg.GetCropSize(), ChannelKeep)
	if err != nil {
		return Result{}, err
	}

	binding := inference.Binding{
		Input:       cfg.GetInputName(),
		Output:      cfg.GetOutputName(),
		InputShape:  preproc.InputShape(),
		OutputShape: tensor.NewShape(1, int64(numClasses)),
	}
	artifact := inference.ArtifactFor(cfg.GetModelDir(), cfg.GetModelName())

	_, loadSpan := tracer.Start(ctx, "load_model")
	err = c.svcs.InferenceSvc.Load(artifact, binding, cfg.GetDevice())
	endSpan(loadSpan, err)
	if err != nil {
		return Result{}, err
	}
	defer c.svcs.InferenceSvc.Close()

	_, sampleSpan := tracer.Start(ctx, "sample_frames")
	c.svcs.DecoderSvc.SetLogging(cfg.GetDecoderLogLevel())
	source := NewFrameSource(c.svcs.DecoderSvc, cfg.GetDevice())
	sampled, err := source.Sample(cfg.GetVideoPath(), cfg.GetInterval(), cfg.GetFrameWidth(), cfg.GetFrameHeight())
	if err == nil {
		sampleSpan.SetAttributes(
			attribute.Int("num_frames", sampled.Total),
			attribute.Int("sampled", len(sampled.Frames)),
		)
	}
	endSpan(sampleSpan, err)
	if err != nil {
		return Result{}, err
	}

	log.Info("frames read", slog.Int("frames", len(sampled.Frames)), slog.Int("decoded", sampled.Total))
	if len(sampled.Frames) == 0 {
		return Result{}, model.GenError("classifier", model.KindDegenerate, nil,
			map[string]interface{}{"num_frames": sampled.Total, "interval": cfg.GetInterval()},
			"video yielded no frames to classify")
	}

	preproc.Channels = ChannelTransformFor(cfg.GetChannelMode(), sampled.Frames[0].Order, cfg.GetModelOrder())

	input, err := tensor.New(preproc.InputShape())
	if err != nil {
		return Result{}, err
	}
	step, err := NewInferenceStep(c.svcs.InferenceSvc, cfg.GetInputName(), binding.OutputShape)
	if err != nil {
		return Result{}, err
	}
	agg := NewTemporalAggregator(numClasses)

	_, inferSpan := tracer.Start(ctx, "forward")
	start := time.Now()
	for _, frame := range sampled.Frames {
		if err = preproc.ProcessInto(frame, input); err != nil {
			break
		}
		var scores model.ScoreVector
		if scores, err = step.Run(input); err != nil {
			break
		}
		if err = agg.Add(scores); err != nil {
			break
		}
	}
	var mean model.ScoreVector
	if err == nil {
		mean, err = agg.Mean()
	}
	elapsed := time.Since(start)
	endSpan(inferSpan, err)
	if err != nil {
		return Result{}, err
	}

	elapsedMs := float64(elapsed.Microseconds()) / 1000
	log.Info("elapsed time {forward->result}",
		slog.Float64("ms", elapsedMs),
		slog.Int("frames", agg.Frames()),
	)

	probs := Softmax(mean)
	ranked, err := TopK(probs, cfg.GetTopK())
	if err != nil {
		return Result{}, err
	}
	preds, err := Predictions(ranked, c.classNames)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Stats: model.RunStats{
			RunID:     runID,
			Decoded:   sampled.Total,
			Frames:    agg.Frames(),
			ElapsedMs: elapsedMs,
			AvgFrame:  elapsedMs / float64(agg.Frames()),
		},
		Scores:      probs,
		Predictions: preds,
	}, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
