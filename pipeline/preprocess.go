package pipeline

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/tensor"
)

type ChannelTransform int

const (
	// ChannelKeep leaves planes as decoded.
	ChannelKeep ChannelTransform = iota
	// ChannelSwap exchanges planes 0 and 2.
	ChannelSwap
	// ChannelCopy overwrites plane 2 with plane 0 and leaves plane 0 alone.
	ChannelCopy
)

// ChannelTransformFor picks the plane transform for a decoder/model order pair.
// In "copy" mode the one-directional copy is always applied.
func ChannelTransformFor(mode string, decoded, expected model.ChannelOrder) ChannelTransform {
	if mode == "copy" {
		return ChannelCopy
	}
	if decoded != expected {
		return ChannelSwap
	}
	return ChannelKeep
}

type Preprocessor struct {
	MinSize  int
	CropSize int
	Channels ChannelTransform
}

func NewPreprocessor(minSize, cropSize int, channels ChannelTransform) (*Preprocessor, error) {
	if cropSize < 1 || minSize < cropSize {
		return nil, model.GenError("preprocessor", model.KindConfig, nil,
			map[string]interface{}{"minSize": minSize, "cropSize": cropSize},
			"crop size must be between 1 and the min size")
	}
	return &Preprocessor{
		MinSize:  minSize,
		CropSize: cropSize,
		Channels: channels,
	}, nil
}

// InputShape is the tensor shape Process produces: (1, 3, crop, crop).
func (p *Preprocessor) InputShape() tensor.Shape {
	return tensor.NewShape(1, 3, int64(p.CropSize), int64(p.CropSize))
}

func (p *Preprocessor) Process(frame model.Frame) (*tensor.Tensor, error) {
	dst, err := tensor.New(p.InputShape())
	if err != nil {
		return nil, err
	}
	if err := p.ProcessInto(frame, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// ProcessInto resizes the shorter side to MinSize, center crops to CropSize,
// stretches intensities to [0, 255] and applies the channel transform, writing
// the planar result into dst.
func (p *Preprocessor) ProcessInto(frame model.Frame, dst *tensor.Tensor) error {
	if frame.Width < 1 || frame.Height < 1 || len(frame.Pix) != 3*frame.Width*frame.Height {
		return model.GenError("preprocessor", model.KindShape, nil,
			map[string]interface{}{"index": frame.Index, "width": frame.Width, "height": frame.Height, "pixels": len(frame.Pix)},
			"frame buffer does not match its dimensions")
	}
	if !dst.Shape().Equal(p.InputShape()) {
		return model.GenError("preprocessor", model.KindShape, nil, nil,
			"destination shape %s, expected %s", dst.Shape(), p.InputShape())
	}

	var img image.Image = frameImage(frame)
	w, h := shortSideSize(frame.Width, frame.Height, p.MinSize)
	if w != frame.Width || h != frame.Height {
		img = resize.Resize(uint(w), uint(h), img, resize.Bilinear)
	}

	cropped := imaging.CropCenter(img, p.CropSize, p.CropSize)
	if cropped.Rect.Dx() != p.CropSize || cropped.Rect.Dy() != p.CropSize {
		return model.GenError("preprocessor", model.KindShape, nil, nil,
			"resized frame %dx%d is smaller than the crop %d", w, h, p.CropSize)
	}

	data := dst.Data()
	plane := p.CropSize * p.CropSize
	for y := 0; y < p.CropSize; y++ {
		row := cropped.Pix[y*cropped.Stride:]
		for x := 0; x < p.CropSize; x++ {
			for c := 0; c < 3; c++ {
				data[c*plane+y*p.CropSize+x] = float32(row[4*x+c])
			}
		}
	}

	Rescale(data)
	applyChannels(data, plane, p.Channels)
	return nil
}

// shortSideSize scales (w, h) so that the shorter side equals size.
func shortSideSize(w, h, size int) (int, int) {
	if w <= h {
		return size, int(math.Round(float64(h) * float64(size) / float64(w)))
	}
	return int(math.Round(float64(w) * float64(size) / float64(h))), size
}

// frameImage packs planes 0, 1, 2 into the R, G, B slots of an opaque image.
// Interpolation treats channels independently, so the packing is order agnostic.
func frameImage(frame model.Frame) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	plane := frame.Width * frame.Height
	for p := 0; p < plane; p++ {
		img.Pix[4*p] = frame.Pix[p]
		img.Pix[4*p+1] = frame.Pix[plane+p]
		img.Pix[4*p+2] = frame.Pix[2*plane+p]
		img.Pix[4*p+3] = 255
	}
	return img
}

// Rescale stretches the values linearly so that min maps to 0 and max to 255.
// A constant input becomes all zeros.
func Rescale(data []float32) {
	if len(data) == 0 {
		return
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		for i := range data {
			data[i] = 0
		}
		return
	}
	scale := 255 / (hi - lo)
	for i, v := range data {
		data[i] = (v - lo) * scale
	}
}

func applyChannels(data []float32, plane int, transform ChannelTransform) {
	switch transform {
	case ChannelSwap:
		for i := 0; i < plane; i++ {
			data[i], data[2*plane+i] = data[2*plane+i], data[i]
		}
	case ChannelCopy:
		copy(data[2*plane:3*plane], data[:plane])
	}
}
