package pipeline

import (
	"github.com/khaledhikmat/vc-go/service/config"
	"github.com/khaledhikmat/vc-go/service/data"
	"github.com/khaledhikmat/vc-go/service/decoder"
	"github.com/khaledhikmat/vc-go/service/inference"
)

// ServicesFactory carries the services a classification run depends on.
type ServicesFactory struct {
	CfgSvc       config.IService
	DataSvc      data.IService
	DecoderSvc   decoder.IService
	InferenceSvc inference.IService
}

// Ranked is a class index paired with its score.
type Ranked struct {
	Index int
	Value float32
}
