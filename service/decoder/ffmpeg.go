package decoder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/lgr"
)

type ffmpegService struct {
	loglevel int
}

func NewFfmpeg() IService {
	return &ffmpegService{
		loglevel: 16,
	}
}

func (svc *ffmpegService) SetLogging(level int) {
	svc.loglevel = level
}

func (svc *ffmpegService) Open(path string, device model.Device) (Video, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, model.GenError("decoder_ffmpeg", model.KindResource, err,
			map[string]interface{}{"path": path},
			"error opening video")
	}

	probe, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, model.GenError("decoder_ffmpeg", model.KindResource, err,
			map[string]interface{}{"path": path},
			"error probing video")
	}

	frames, err := parseFrameCount(probe)
	if err != nil {
		return nil, model.GenError("decoder_ffmpeg", model.KindResource, err,
			map[string]interface{}{"path": path},
			"error reading frame count")
	}

	return &ffmpegVideo{
		path:     path,
		frames:   frames,
		loglevel: svc.loglevel,
		device:   device,
	}, nil
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	NbFrames     string `json:"nb_frames"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Duration     string `json:"duration"`
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// parseFrameCount prefers the container's nb_frames and falls back to
// duration * average frame rate.
func parseFrameCount(probe string) (int, error) {
	var res probeResult
	if err := json.Unmarshal([]byte(probe), &res); err != nil {
		return 0, fmt.Errorf("error parsing probe output: %w", err)
	}

	for _, st := range res.Streams {
		if st.CodecType != "video" {
			continue
		}
		if n, err := strconv.Atoi(st.NbFrames); err == nil && n >= 0 {
			return n, nil
		}

		duration := st.Duration
		if duration == "" {
			duration = res.Format.Duration
		}
		secs, err := strconv.ParseFloat(duration, 64)
		if err != nil {
			return 0, fmt.Errorf("no frame count or duration for video stream")
		}
		rate, err := parseRate(st.AvgFrameRate)
		if err != nil {
			return 0, err
		}
		return int(math.Round(secs * rate)), nil
	}

	return 0, fmt.Errorf("no video stream")
}

func parseRate(s string) (float64, error) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("bad frame rate %q", s)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("bad frame rate %q", s)
	}
	return n / d, nil
}

// selectFilter builds a filtergraph that keeps exactly the given frame numbers.
func selectFilter(indices []int, width, height int) string {
	terms := make([]string, len(indices))
	for i, idx := range indices {
		terms[i] = fmt.Sprintf("eq(n,%d)", idx)
	}
	return fmt.Sprintf("select='%s',scale=%d:%d", strings.Join(terms, "+"), width, height)
}

type ffmpegVideo struct {
	path     string
	frames   int
	loglevel int
	device   model.Device
}

func (v *ffmpegVideo) FrameCount() int {
	return v.frames
}

func (v *ffmpegVideo) Order() model.ChannelOrder {
	return model.RGB
}

func (v *ffmpegVideo) GetBatch(indices []int, width, height int) ([]byte, error) {
	if len(indices) == 0 {
		return []byte{}, nil
	}

	inArgs := ffmpeg.KwArgs{}
	if v.device.Kind == model.GPU {
		inArgs["hwaccel"] = "cuda"
		inArgs["hwaccel_device"] = strconv.Itoa(v.device.ID)
	}

	out := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	err := ffmpeg.Input(v.path, inArgs).
		Output("pipe:", ffmpeg.KwArgs{
			"vf":      selectFilter(indices, width, height),
			"vsync":   "0",
			"format":  "rawvideo",
			"pix_fmt": "rgb24",
		}).
		GlobalArgs("-loglevel", strconv.Itoa(v.loglevel)).
		WithOutput(out).
		WithErrorOutput(stderr).
		Run()
	if err != nil {
		return nil, model.GenError("decoder_ffmpeg", model.KindResource, err,
			map[string]interface{}{"path": v.path, "stderr": stderr.String()},
			"error decoding frames")
	}

	lgr.Logger.Debug("ffmpeg decoded batch",
		slog.Int("frames", len(indices)),
		slog.Int("bytes", out.Len()),
	)
	return out.Bytes(), nil
}

func (v *ffmpegVideo) Close() error {
	return nil
}
