package decoder

import (
	"image"
	"log/slog"
	"os"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/lgr"
)

type gocvService struct {
}

func NewGocv() IService {
	return &gocvService{}
}

// SetLogging must be called before Open: OpenCV reads the variable when its
// ffmpeg backend initialises.
func (svc *gocvService) SetLogging(level int) {
	os.Setenv("OPENCV_FFMPEG_LOGLEVEL", strconv.Itoa(level))
}

func (svc *gocvService) Open(path string, device model.Device) (Video, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, model.GenError("decoder_gocv", model.KindResource, err,
			map[string]interface{}{"path": path},
			"error opening video")
	}

	if device.Kind != model.CPU {
		lgr.Logger.Debug("gocv decodes on the cpu only", slog.String("device", device.String()))
	}

	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, model.GenError("decoder_gocv", model.KindResource, err,
			map[string]interface{}{"path": path},
			"error opening video")
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, model.GenError("decoder_gocv", model.KindResource, nil,
			map[string]interface{}{"path": path},
			"video could not be opened")
	}

	return &gocvVideo{
		vc:     vc,
		path:   path,
		frames: int(vc.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

type gocvVideo struct {
	vc     *gocv.VideoCapture
	path   string
	frames int
	pos    int
}

func (v *gocvVideo) FrameCount() int {
	return v.frames
}

func (v *gocvVideo) Order() model.ChannelOrder {
	return model.BGR
}

// GetBatch walks the stream forward, grabbing without decoding the frames that
// are skipped. Indices must be ascending.
func (v *gocvVideo) GetBatch(indices []int, width, height int) ([]byte, error) {
	buf := make([]byte, 0, len(indices)*3*width*height)

	img := gocv.NewMat()
	defer img.Close() // Crucial to close the image to avoid memory leaks
	resized := gocv.NewMat()
	defer resized.Close()

	for _, idx := range indices {
		if idx < v.pos {
			return nil, model.GenError("decoder_gocv", model.KindShape, nil,
				map[string]interface{}{"index": idx, "position": v.pos},
				"frame indices must be ascending")
		}
		for v.pos < idx {
			v.vc.Grab(1)
			v.pos++
		}

		if ok := v.vc.Read(&img); !ok || img.Empty() {
			return nil, model.GenError("decoder_gocv", model.KindResource, nil,
				map[string]interface{}{"path": v.path, "index": idx},
				"error reading frame %d", idx)
		}
		v.pos++

		gocv.Resize(img, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
		if resized.Empty() || resized.Channels() != 3 {
			return nil, model.GenError("decoder_gocv", model.KindShape, nil,
				map[string]interface{}{"index": idx, "channels": resized.Channels()},
				"error resizing frame %d", idx)
		}
		buf = append(buf, resized.ToBytes()...)
	}

	return buf, nil
}

func (v *gocvVideo) Close() error {
	return v.vc.Close()
}
