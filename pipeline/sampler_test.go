package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/decoder"
)

func TestSampleIndices(t *testing.T) {
	cases := []struct {
		total    int
		interval int
		want     []int
	}{
		{total: 101, interval: 25, want: []int{0, 25, 50, 75}},
		{total: 100, interval: 25, want: []int{0, 25, 50, 75}},
		{total: 27, interval: 25, want: []int{0, 25}},
		{total: 26, interval: 25, want: []int{0}},
		{total: 4, interval: 1, want: []int{0, 1, 2}},
		{total: 1, interval: 25, want: []int{}},
		{total: 0, interval: 25, want: []int{}},
	}

	for _, tc := range cases {
		got := SampleIndices(tc.total, tc.interval)
		assert.Equal(t, tc.want, got, "total=%d interval=%d", tc.total, tc.interval)
		for _, i := range got {
			assert.Less(t, i, tc.total-1)
		}
	}
}

func TestFrameSourceSample(t *testing.T) {
	dec := decoder.NewFake(101, model.BGR)
	source := NewFrameSource(dec, model.DeviceFromGPU(-1))

	sampled, err := source.Sample("clip.mp4", 25, 8, 6)
	require.NoError(t, err)
	assert.Equal(t, 101, sampled.Total)
	require.Len(t, sampled.Frames, 4)

	for i, frame := range sampled.Frames {
		assert.Equal(t, i*25, frame.Index)
		assert.Equal(t, 8, frame.Width)
		assert.Equal(t, 6, frame.Height)
		assert.Equal(t, model.BGR, frame.Order)
		require.Len(t, frame.Pix, 3*8*6)
		for c := 0; c < 3; c++ {
			for y := 0; y < 6; y++ {
				for x := 0; x < 8; x++ {
					assert.Equal(t, decoder.FakePixel(frame.Index, c, x, y), frame.At(c, y, x))
				}
			}
		}
	}
	assert.Equal(t, []string{"clip.mp4"}, dec.Opened())
}

func TestFrameSourceShortVideo(t *testing.T) {
	source := NewFrameSource(decoder.NewFake(1, model.RGB), model.DeviceFromGPU(-1))

	sampled, err := source.Sample("clip.mp4", 25, 8, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, sampled.Total)
	assert.Empty(t, sampled.Frames)
}

func TestFrameSourceRejectsShortBuffer(t *testing.T) {
	source := NewFrameSource(decoder.NewFake(101, model.RGB).Truncated(), model.DeviceFromGPU(-1))

	_, err := source.Sample("clip.mp4", 25, 8, 6)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindShape))
}

func TestFrameSourceRejectsBadInterval(t *testing.T) {
	source := NewFrameSource(decoder.NewFake(101, model.RGB), model.DeviceFromGPU(-1))

	_, err := source.Sample("clip.mp4", 0, 8, 6)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindConfig))
}

func TestFrameSourceOpenFailure(t *testing.T) {
	source := NewFrameSource(decoder.NewFake(101, model.RGB), model.DeviceFromGPU(-1))

	_, err := source.Sample("", 25, 8, 6)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindResource))
}
