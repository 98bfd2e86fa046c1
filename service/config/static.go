package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/khaledhikmat/vc-go/model"
)

const (
	RuntimeONNX = "onnx"
	RuntimeDNN  = "dnn"

	DecoderGocv   = "gocv"
	DecoderFfmpeg = "ffmpeg"

	ChannelSwap = "swap"
	ChannelCopy = "copy"
)

// Settings is the full run configuration. Video, Model, OutputPath and Quiet only
// come from the command line; everything else has an environment default.
type Settings struct {
	Video      string
	Model      string
	OutputPath string
	Quiet      bool

	GPU  int `env:"VC_GPU"  envDefault:"-1"`
	TopK int `env:"VC_TOPK" envDefault:"5"`

	ModelDir    string `env:"VC_MODEL_DIR"    envDefault:"."`
	MinSize     int    `env:"VC_MIN_SIZE"     envDefault:"240"`
	CropSize    int    `env:"VC_CROP_SIZE"    envDefault:"224"`
	Interval    int    `env:"VC_INTERVAL"     envDefault:"25"`
	FrameWidth  int    `env:"VC_FRAME_WIDTH"  envDefault:"320"`
	FrameHeight int    `env:"VC_FRAME_HEIGHT" envDefault:"240"`

	Runtime         string `env:"VC_RUNTIME"          envDefault:"onnx"`
	Decoder         string `env:"VC_DECODER"          envDefault:"gocv"`
	DecoderLogLevel int    `env:"VC_DECODER_LOGLEVEL" envDefault:"16"`
	InputName       string `env:"VC_INPUT_NAME"       envDefault:"data"`
	OutputName      string `env:"VC_OUTPUT_NAME"`
	ModelOrder      string `env:"VC_MODEL_ORDER"      envDefault:"RGB"`
	ChannelMode     string `env:"VC_CHANNEL_MODE"     envDefault:"swap"`
	OrtLibrary      string `env:"VC_ORT_LIBRARY"`

	LogLevel   string `env:"VC_LOG_LEVEL"   envDefault:"info"`
	ResultsLog string `env:"VC_RESULTS_LOG"`
}

// LoadDefaults reads an optional .env file and then the environment.
func LoadDefaults(dotenv string) (Settings, error) {
	if dotenv != "" {
		if _, err := os.Stat(dotenv); err == nil {
			if err := godotenv.Load(dotenv); err != nil {
				return Settings{}, fmt.Errorf("error loading %s: %w", dotenv, err)
			}
		}
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return s, nil
}

func (s Settings) Validate() error {
	var errs []error
	if s.Video == "" {
		errs = append(errs, errors.New("video file is required"))
	}
	if s.Model == "" {
		errs = append(errs, errors.New("model name is required"))
	}
	if s.TopK < 1 {
		errs = append(errs, fmt.Errorf("topk must be at least 1, got %d", s.TopK))
	}
	if s.Interval < 1 {
		errs = append(errs, fmt.Errorf("interval must be at least 1, got %d", s.Interval))
	}
	if s.CropSize < 1 || s.MinSize < 1 {
		errs = append(errs, fmt.Errorf("min size %d and crop size %d must be positive", s.MinSize, s.CropSize))
	} else if s.CropSize > s.MinSize {
		errs = append(errs, fmt.Errorf("crop size %d exceeds min size %d", s.CropSize, s.MinSize))
	}
	if s.FrameWidth < 1 || s.FrameHeight < 1 {
		errs = append(errs, fmt.Errorf("frame size %dx%d must be positive", s.FrameWidth, s.FrameHeight))
	}
	if s.Runtime != RuntimeONNX && s.Runtime != RuntimeDNN {
		errs = append(errs, fmt.Errorf("unknown runtime %q", s.Runtime))
	}
	if s.Decoder != DecoderGocv && s.Decoder != DecoderFfmpeg {
		errs = append(errs, fmt.Errorf("unknown decoder %q", s.Decoder))
	}
	if s.ChannelMode != ChannelSwap && s.ChannelMode != ChannelCopy {
		errs = append(errs, fmt.Errorf("unknown channel mode %q", s.ChannelMode))
	}
	if _, err := model.ParseChannelOrder(s.ModelOrder); err != nil {
		errs = append(errs, err)
	}
	if s.InputName == "" {
		errs = append(errs, errors.New("input name is required"))
	}

	if len(errs) == 0 {
		return nil
	}
	return model.GenError("config", model.KindConfig, errors.Join(errs...), nil, "invalid settings")
}

type staticService struct {
	s Settings
}

// NewStatic freezes a copy of the settings behind IService.
func NewStatic(s Settings) IService {
	return &staticService{s: s}
}

func (svc *staticService) GetVideoPath() string {
	return svc.s.Video
}

func (svc *staticService) GetModelName() string {
	return svc.s.Model
}

func (svc *staticService) GetModelDir() string {
	return svc.s.ModelDir
}

func (svc *staticService) GetOutputPath() string {
	return svc.s.OutputPath
}

func (svc *staticService) GetDevice() model.Device {
	return model.DeviceFromGPU(svc.s.GPU)
}

func (svc *staticService) GetTopK() int {
	return svc.s.TopK
}

func (svc *staticService) IsQuiet() bool {
	return svc.s.Quiet
}

func (svc *staticService) GetMinSize() int {
	return svc.s.MinSize
}

func (svc *staticService) GetCropSize() int {
	return svc.s.CropSize
}

func (svc *staticService) GetInterval() int {
	return svc.s.Interval
}

func (svc *staticService) GetFrameWidth() int {
	return svc.s.FrameWidth
}

func (svc *staticService) GetFrameHeight() int {
	return svc.s.FrameHeight
}

func (svc *staticService) GetRuntime() string {
	return svc.s.Runtime
}

func (svc *staticService) GetDecoder() string {
	return svc.s.Decoder
}

func (svc *staticService) GetDecoderLogLevel() int {
	return svc.s.DecoderLogLevel
}

func (svc *staticService) GetInputName() string {
	return svc.s.InputName
}

func (svc *staticService) GetOutputName() string {
	return svc.s.OutputName
}

func (svc *staticService) GetModelOrder() model.ChannelOrder {
	return model.ChannelOrder(svc.s.ModelOrder)
}

func (svc *staticService) GetChannelMode() string {
	return svc.s.ChannelMode
}

func (svc *staticService) GetOrtLibrary() string {
	return svc.s.OrtLibrary
}

func (svc *staticService) GetLogLevel() string {
	return svc.s.LogLevel
}

func (svc *staticService) GetResultsLog() string {
	return svc.s.ResultsLog
}
