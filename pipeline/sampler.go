package pipeline

import (
	"log/slog"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/decoder"
	"github.com/khaledhikmat/vc-go/service/lgr"
)

// SampleIndices selects the frame indices i in [0, total-1) with i%interval == 0.
// The last frame is never eligible.
func SampleIndices(total, interval int) []int {
	indices := []int{}
	for i := 0; i < total-1; i++ {
		if i%interval == 0 {
			indices = append(indices, i)
		}
	}
	return indices
}

type Sampled struct {
	Total  int
	Frames []model.Frame
}

type FrameSource struct {
	decoder decoder.IService
	device  model.Device
}

func NewFrameSource(dec decoder.IService, device model.Device) *FrameSource {
	return &FrameSource{
		decoder: dec,
		device:  device,
	}
}

// Sample decodes every interval-th frame of the video at width x height and
// returns the frames in ascending index order, in planar layout.
func (fs *FrameSource) Sample(path string, interval, width, height int) (Sampled, error) {
	if interval < 1 {
		return Sampled{}, model.GenError("frame_source", model.KindConfig, nil,
			map[string]interface{}{"interval": interval},
			"sampling interval must be at least 1")
	}

	video, err := fs.decoder.Open(path, fs.device)
	if err != nil {
		return Sampled{}, err
	}
	defer video.Close()

	total := video.FrameCount()
	indices := SampleIndices(total, interval)
	lgr.Logger.Info("video opened",
		slog.String("video", path),
		slog.Int("num_frames", total),
		slog.Int("sampled", len(indices)),
	)

	if len(indices) == 0 {
		return Sampled{Total: total, Frames: []model.Frame{}}, nil
	}

	buf, err := video.GetBatch(indices, width, height)
	if err != nil {
		return Sampled{}, err
	}

	frameSize := 3 * width * height
	if len(buf) != len(indices)*frameSize {
		return Sampled{}, model.GenError("frame_source", model.KindShape, nil,
			map[string]interface{}{"got": len(buf), "want": len(indices) * frameSize},
			"decoded buffer holds %d bytes, expected %d frames of %dx%dx3", len(buf), len(indices), width, height)
	}

	frames := make([]model.Frame, len(indices))
	for i, idx := range indices {
		frames[i] = unpackFrame(buf[i*frameSize:(i+1)*frameSize], idx, width, height, video.Order())
	}

	return Sampled{Total: total, Frames: frames}, nil
}

// unpackFrame converts one interleaved HWC frame into planar CHW.
func unpackFrame(hwc []byte, index, width, height int, order model.ChannelOrder) model.Frame {
	plane := width * height
	pix := make([]uint8, 3*plane)
	for p := 0; p < plane; p++ {
		pix[p] = hwc[3*p]
		pix[plane+p] = hwc[3*p+1]
		pix[2*plane+p] = hwc[3*p+2]
	}
	return model.Frame{
		Index:  index,
		Width:  width,
		Height: height,
		Order:  order,
		Pix:    pix,
	}
}
