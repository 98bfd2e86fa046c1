package pipeline

import (
	"github.com/khaledhikmat/vc-go/model"
)

// Accumulate adds out into sum element-wise.
func Accumulate(sum, out model.ScoreVector) error {
	if len(sum) != len(out) {
		return model.GenError("aggregator", model.KindShape, nil,
			map[string]interface{}{"sum": len(sum), "out": len(out)},
			"score vector has %d classes, expected %d", len(out), len(sum))
	}
	for i, v := range out {
		sum[i] += v
	}
	return nil
}

// Finalize divides sum by the number of accumulated frames.
func Finalize(sum model.ScoreVector, frames int) (model.ScoreVector, error) {
	if frames < 1 {
		return nil, model.GenError("aggregator", model.KindDegenerate, nil, nil,
			"no frames were aggregated")
	}
	mean := make(model.ScoreVector, len(sum))
	for i, v := range sum {
		mean[i] = v / float32(frames)
	}
	return mean, nil
}

type TemporalAggregator struct {
	sum    model.ScoreVector
	frames int
}

func NewTemporalAggregator(classes int) *TemporalAggregator {
	return &TemporalAggregator{
		sum: make(model.ScoreVector, classes),
	}
}

func (a *TemporalAggregator) Add(out model.ScoreVector) error {
	if err := Accumulate(a.sum, out); err != nil {
		return err
	}
	a.frames++
	return nil
}

func (a *TemporalAggregator) Frames() int {
	return a.frames
}

func (a *TemporalAggregator) Mean() (model.ScoreVector, error) {
	return Finalize(a.sum, a.frames)
}
