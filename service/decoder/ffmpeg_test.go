package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vc-go/model"
)

var deviceCPU = model.DeviceFromGPU(-1)

func TestParseFrameCount(t *testing.T) {
	cases := []struct {
		name  string
		probe string
		want  int
		fails bool
	}{
		{
			name:  "nb_frames",
			probe: `{"streams":[{"codec_type":"audio"},{"codec_type":"video","nb_frames":"101","avg_frame_rate":"25/1"}]}`,
			want:  101,
		},
		{
			name:  "duration fallback",
			probe: `{"streams":[{"codec_type":"video","avg_frame_rate":"30000/1001","duration":"10.010000"}]}`,
			want:  300,
		},
		{
			name:  "format duration fallback",
			probe: `{"streams":[{"codec_type":"video","avg_frame_rate":"25"}],"format":{"duration":"4.0"}}`,
			want:  100,
		},
		{
			name:  "no video",
			probe: `{"streams":[{"codec_type":"audio"}]}`,
			fails: true,
		},
		{
			name:  "bad rate",
			probe: `{"streams":[{"codec_type":"video","avg_frame_rate":"0/0","duration":"1"}]}`,
			fails: true,
		},
		{
			name:  "not json",
			probe: `ffprobe: error`,
			fails: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseFrameCount(tc.probe)
			if tc.fails {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSelectFilter(t *testing.T) {
	assert.Equal(t, "select='eq(n,0)+eq(n,25)+eq(n,50)',scale=320:240", selectFilter([]int{0, 25, 50}, 320, 240))
}

func TestFakeBatchLayout(t *testing.T) {
	svc := NewFake(10, "RGB")
	svc.SetLogging(16)
	assert.Equal(t, 16, svc.LogLevel())

	v, err := svc.Open("clip.mp4", deviceCPU)
	require.NoError(t, err)
	assert.Equal(t, 10, v.FrameCount())

	buf, err := v.GetBatch([]int{0, 5}, 4, 2)
	require.NoError(t, err)
	require.Len(t, buf, 2*3*4*2)
	// second frame, row 1, col 2, channel 1 in HWC
	assert.Equal(t, FakePixel(5, 1, 2, 1), buf[3*4*2+(1*4+2)*3+1])

	_, err = v.GetBatch([]int{10}, 4, 2)
	assert.Error(t, err)

	_, err = svc.Open("", deviceCPU)
	assert.Error(t, err)
}
