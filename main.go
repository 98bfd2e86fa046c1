package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vc-go/mode"
	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/pipeline"
	"github.com/khaledhikmat/vc-go/service/config"
	"github.com/khaledhikmat/vc-go/service/data"
	"github.com/khaledhikmat/vc-go/service/decoder"
	"github.com/khaledhikmat/vc-go/service/inference"
	"github.com/khaledhikmat/vc-go/service/lgr"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
	exitUsage   = 255
)

var (
	errUsage  = errors.New("invalid usage")
	errConfig = errors.New("invalid configuration")
)

// newServices builds the decoder and runtime named by the configuration.
// Tests replace it with fakes.
var newServices = func(cfgSvc config.IService) (decoder.IService, inference.IService) {
	var decoderSvc decoder.IService = decoder.NewGocv()
	if cfgSvc.GetDecoder() == config.DecoderFfmpeg {
		decoderSvc = decoder.NewFfmpeg()
	}

	var inferenceSvc inference.IService = inference.NewONNX(cfgSvc.GetOrtLibrary())
	if cfgSvc.GetRuntime() == config.RuntimeDNN {
		inferenceSvc = inference.NewDNN()
	}
	return decoderSvc, inferenceSvc
}

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Load env vars from .env if we are in DEV mode
	dotenv := ""
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		dotenv = ".env"
	}

	defaults, err := config.LoadDefaults(dotenv)
	if err != nil {
		lgr.Logger.Error("error loading configuration", slog.Any("error", xerrors.New(err.Error())))
		return exitConfig
	}

	var settings *config.Settings
	cmd := newCommand(defaults, func(s config.Settings) {
		settings = &s
	})
	cmd.Writer = stdout
	cmd.ErrWriter = stderr

	if err := cmd.Run(ctx, args); err != nil {
		if errors.Is(err, errConfig) {
			return exitConfig
		}
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
		}
		return exitUsage
	}

	// Help was requested
	if settings == nil {
		return exitOK
	}

	return classify(ctx, *settings, stdout)
}

func classify(ctx context.Context, settings config.Settings, stdout io.Writer) int {
	lgr.Configure(settings.LogLevel, settings.Quiet)

	cfgSvc := config.NewStatic(settings)
	dataSvc := data.NewFilesDB(cfgSvc)
	defer dataSvc.Close()

	decoderSvc, inferenceSvc := newServices(cfgSvc)
	lgr.Logger.Info("services selected",
		slog.String("decoder", cfgSvc.GetDecoder()),
		slog.String("runtime", cfgSvc.GetRuntime()),
		slog.String("device", cfgSvc.GetDevice().String()),
	)

	svcs := pipeline.ServicesFactory{
		CfgSvc:       cfgSvc,
		DataSvc:      dataSvc,
		DecoderSvc:   decoderSvc,
		InferenceSvc: inferenceSvc,
	}

	if err := mode.Classify(ctx, svcs, stdout); err != nil {
		lgr.Logger.Error("classification failed", slog.Any("error", xerrors.New(err.Error())))
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	if model.IsKind(err, model.KindConfig) || model.IsKind(err, model.KindDegenerate) {
		return exitConfig
	}
	return exitFailure
}

func newCommand(defaults config.Settings, accept func(config.Settings)) *cli.Command {
	return &cli.Command{
		Name:      "vc",
		Usage:     "Classify the action in a video clip",
		ArgsUsage: "<video file> <model name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to this file",
			},
			&cli.IntFlag{
				Name:  "gpu",
				Usage: "Which gpu to use, -1 means cpu only",
				Value: defaults.GPU,
			},
			&cli.IntFlag{
				Name:  "topk",
				Usage: "Number of top classes to report",
				Value: defaults.TopK,
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not print the report or informational logs",
			},
			&cli.StringFlag{
				Name:  "runtime",
				Usage: "Model runtime: onnx or dnn",
				Value: defaults.Runtime,
			},
			&cli.StringFlag{
				Name:  "decoder",
				Usage: "Video decoder: gocv or ffmpeg",
				Value: defaults.Decoder,
			},
			&cli.StringFlag{
				Name:  "model-dir",
				Usage: "Directory holding the model and class name files",
				Value: defaults.ModelDir,
			},
			&cli.IntFlag{
				Name:  "interval",
				Usage: "Sample one frame out of every interval frames",
				Value: defaults.Interval,
			},
			&cli.IntFlag{
				Name:  "min-size",
				Usage: "Length of the shorter side after resizing",
				Value: defaults.MinSize,
			},
			&cli.IntFlag{
				Name:  "crop-size",
				Usage: "Side of the square center crop",
				Value: defaults.CropSize,
			},
			&cli.StringFlag{
				Name:  "channel-mode",
				Usage: "Channel handling: swap or copy",
				Value: defaults.ChannelMode,
			},
			&cli.StringFlag{
				Name:  "results-log",
				Usage: "Append a JSON record of every run to this file",
				Value: defaults.ResultsLog,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: defaults.LogLevel,
			},
		},
		HideHelpCommand: true,
		OnUsageError: func(_ context.Context, cmd *cli.Command, err error, _ bool) error {
			fmt.Fprintln(cmd.ErrWriter, err)
			_ = cli.ShowAppHelp(cmd)
			return errUsage
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				fmt.Fprintln(cmd.ErrWriter, "expected a video file and a model name")
				_ = cli.ShowAppHelp(cmd)
				return errUsage
			}

			s := defaults
			s.Video = cmd.Args().Get(0)
			s.Model = cmd.Args().Get(1)
			s.OutputPath = cmd.String("output")
			s.Quiet = cmd.Bool("quiet")
			s.GPU = cmd.Int("gpu")
			s.TopK = cmd.Int("topk")
			s.Runtime = cmd.String("runtime")
			s.Decoder = cmd.String("decoder")
			s.ModelDir = cmd.String("model-dir")
			s.Interval = cmd.Int("interval")
			s.MinSize = cmd.Int("min-size")
			s.CropSize = cmd.Int("crop-size")
			s.ChannelMode = cmd.String("channel-mode")
			s.ResultsLog = cmd.String("results-log")
			s.LogLevel = cmd.String("log-level")

			if err := s.Validate(); err != nil {
				fmt.Fprintln(cmd.ErrWriter, err)
				_ = cli.ShowAppHelp(cmd)
				return errConfig
			}

			accept(s)
			return nil
		},
	}
}
