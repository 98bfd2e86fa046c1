package model

import (
	"errors"
	"fmt"
	"runtime/debug"
)

type ErrorKind string

const (
	KindConfig     ErrorKind = "config"
	KindResource   ErrorKind = "resource"
	KindShape      ErrorKind = "shape"
	KindDegenerate ErrorKind = "degenerate"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Kind       ErrorKind              `json:"kind"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, kind ErrorKind, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Kind:       kind,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// IsKind reports whether any CustomError in err's chain has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var custom CustomError
	for err != nil {
		if !errors.As(err, &custom) {
			return false
		}
		if custom.Kind == kind {
			return true
		}
		err = custom.Inner
	}
	return false
}

type ChannelOrder string

const (
	RGB ChannelOrder = "RGB"
	BGR ChannelOrder = "BGR"
)

func ParseChannelOrder(s string) (ChannelOrder, error) {
	switch ChannelOrder(s) {
	case RGB, BGR:
		return ChannelOrder(s), nil
	}
	return "", fmt.Errorf("unknown channel order %q", s)
}

type DeviceKind string

const (
	CPU DeviceKind = "cpu"
	GPU DeviceKind = "gpu"
)

type Device struct {
	Kind DeviceKind `json:"kind"`
	ID   int        `json:"id"`
}

// DeviceFromGPU maps the --gpu option onto a device: negative means CPU.
func DeviceFromGPU(gpu int) Device {
	if gpu < 0 {
		return Device{Kind: CPU, ID: 0}
	}
	return Device{Kind: GPU, ID: gpu}
}

func (d Device) String() string {
	return fmt.Sprintf("%s:%d", d.Kind, d.ID)
}

// Frame is a decoded picture in planar layout: all of channel 0, then 1, then 2,
// each channel row-major by height then width.
type Frame struct {
	Index  int          `json:"index"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Order  ChannelOrder `json:"order"`
	Pix    []uint8      `json:"-"`
}

func (f Frame) At(c, y, x int) uint8 {
	return f.Pix[(c*f.Height+y)*f.Width+x]
}

// ScoreVector holds one value per known class.
type ScoreVector []float32

type Prediction struct {
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Probability float32 `json:"probability"`
}

type RunStats struct {
	RunID     string  `json:"runId"`
	Decoded   int     `json:"decoded"`
	Frames    int     `json:"frames"`
	ElapsedMs float64 `json:"elapsedMs"`
	AvgFrame  float64 `json:"avgFrameMs"`
}

type RunRecord struct {
	Stats       RunStats     `json:"stats"`
	Video       string       `json:"video"`
	Model       string       `json:"model"`
	Runtime     string       `json:"runtime"`
	Device      Device       `json:"device"`
	Predictions []Prediction `json:"predictions"`
	Timestamp   int64        `json:"timestamp"`
}
