package config

import "github.com/khaledhikmat/vc-go/model"

type IService interface {
	GetVideoPath() string
	GetModelName() string
	GetModelDir() string
	GetOutputPath() string
	GetDevice() model.Device
	GetTopK() int
	IsQuiet() bool
	GetMinSize() int
	GetCropSize() int
	GetInterval() int
	GetFrameWidth() int
	GetFrameHeight() int
	GetRuntime() string
	GetDecoder() string
	GetDecoderLogLevel() int
	GetInputName() string
	GetOutputName() string
	GetModelOrder() model.ChannelOrder
	GetChannelMode() string
	GetOrtLibrary() string
	GetLogLevel() string
	GetResultsLog() string
}
