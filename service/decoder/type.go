package decoder

import "github.com/khaledhikmat/vc-go/model"

// Video is an opened clip. GetBatch returns the requested frames resized to
// width x height, concatenated, each frame interleaved row-major (HWC) in Order().
type Video interface {
	FrameCount() int
	Order() model.ChannelOrder
	GetBatch(indices []int, width, height int) ([]byte, error)
	Close() error
}

type IService interface {
	// SetLogging sets the decoder library verbosity (libav numeric levels, 16 = errors only).
	SetLogging(level int)
	Open(path string, device model.Device) (Video, error)
}
