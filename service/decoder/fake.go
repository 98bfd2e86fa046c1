package decoder

import (
	"fmt"

	"github.com/khaledhikmat/vc-go/model"
)

type Fake struct {
	frames   int
	order    model.ChannelOrder
	truncate bool
	loglevel int
	opened   []string
}

// NewFake decodes every path as a clip of the given length. Pixel values are
// derived from frame index, channel and position so tests can check layout.
func NewFake(frames int, order model.ChannelOrder) *Fake {
	return &Fake{
		frames: frames,
		order:  order,
	}
}

// Truncated makes GetBatch return one byte less than requested.
func (svc *Fake) Truncated() *Fake {
	svc.truncate = true
	return svc
}

func (svc *Fake) LogLevel() int {
	return svc.loglevel
}

func (svc *Fake) Opened() []string {
	return svc.opened
}

func (svc *Fake) SetLogging(level int) {
	svc.loglevel = level
}

func (svc *Fake) Open(path string, _ model.Device) (Video, error) {
	if path == "" {
		return nil, model.GenError("decoder_fake", model.KindResource, fmt.Errorf("empty path"), nil, "error opening video")
	}
	svc.opened = append(svc.opened, path)
	return &fakeVideo{svc: svc}, nil
}

// FakePixel is the value the fake decoder stores for frame idx, channel c at (x, y).
func FakePixel(idx, c, x, y int) uint8 {
	return uint8((idx*7 + c*50 + x + 2*y) % 256)
}

type fakeVideo struct {
	svc *Fake
}

func (v *fakeVideo) FrameCount() int {
	return v.svc.frames
}

func (v *fakeVideo) Order() model.ChannelOrder {
	return v.svc.order
}

func (v *fakeVideo) GetBatch(indices []int, width, height int) ([]byte, error) {
	buf := make([]byte, 0, len(indices)*3*width*height)
	for _, idx := range indices {
		if idx < 0 || idx >= v.svc.frames {
			return nil, fmt.Errorf("frame %d out of range", idx)
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				for c := 0; c < 3; c++ {
					buf = append(buf, FakePixel(idx, c, x, y))
				}
			}
		}
	}
	if v.svc.truncate && len(buf) > 0 {
		buf = buf[:len(buf)-1]
	}
	return buf, nil
}

func (v *fakeVideo) Close() error {
	return nil
}
