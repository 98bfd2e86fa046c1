package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/config"
	"github.com/khaledhikmat/vc-go/service/data"
	"github.com/khaledhikmat/vc-go/service/decoder"
	"github.com/khaledhikmat/vc-go/service/inference"
)

const wantReport = "The input video is classified to be\n" +
	"\t[b], with probability 0.700\n" +
	"\t[c], with probability 0.200\n"

// useFakes swaps the real services for fakes and returns the fake runtime.
func useFakes(t *testing.T, frames int) *inference.Fake {
	t.Helper()
	t.Setenv("RUN_TIME_ENV", "test")

	noColor := color.NoColor
	color.NoColor = true

	rt := inference.NewFake([]float32{
		float32(math.Log(0.1)),
		float32(math.Log(0.7)),
		float32(math.Log(0.2)),
	})
	saved := newServices
	newServices = func(config.IService) (decoder.IService, inference.IService) {
		return decoder.NewFake(frames, model.BGR), rt
	}
	t.Cleanup(func() {
		newServices = saved
		color.NoColor = noColor
	})
	return rt
}

func modelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(data.SynsetPath(dir, "i3d"), []byte("a\nb\nc\n"), 0o644))
	return dir
}

func runArgs(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"vc"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunClassifies(t *testing.T) {
	rt := useFakes(t, 101)
	dir := modelDir(t)
	out := filepath.Join(dir, "result.txt")

	code, stdout, _ := runArgs("--topk", "2", "--model-dir", dir, "--min-size", "24", "--crop-size", "16", "-o", out, "clip.mp4", "i3d")
	require.Equal(t, exitOK, code)
	assert.Equal(t, wantReport, stdout)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, wantReport, string(content))

	assert.Equal(t, 4, rt.Runs())
	assert.Equal(t, model.Device{Kind: model.CPU, ID: 0}, rt.Device())
}

func TestRunRoutesGPU(t *testing.T) {
	rt := useFakes(t, 101)
	dir := modelDir(t)

	code, _, _ := runArgs("--gpu", "0", "--topk", "2", "--model-dir", dir, "--min-size", "24", "--crop-size", "16", "-q", "clip.mp4", "i3d")
	require.Equal(t, exitOK, code)
	assert.Equal(t, model.Device{Kind: model.GPU, ID: 0}, rt.Device())
}

func TestRunQuiet(t *testing.T) {
	useFakes(t, 101)
	dir := modelDir(t)

	code, stdout, _ := runArgs("-q", "--topk", "2", "--model-dir", dir, "--min-size", "24", "--crop-size", "16", "clip.mp4", "i3d")
	require.Equal(t, exitOK, code)
	assert.Empty(t, stdout)
}

func TestRunTopKAboveClasses(t *testing.T) {
	rt := useFakes(t, 101)
	dir := modelDir(t)

	code, stdout, _ := runArgs("--topk", "10", "--model-dir", dir, "clip.mp4", "i3d")
	assert.Equal(t, exitConfig, code)
	assert.Empty(t, stdout)
	assert.Zero(t, rt.Runs())
}

func TestRunMissingClassNames(t *testing.T) {
	useFakes(t, 101)

	code, _, _ := runArgs("--model-dir", t.TempDir(), "clip.mp4", "i3d")
	assert.Equal(t, exitFailure, code)
}

func TestRunShortVideo(t *testing.T) {
	useFakes(t, 1)
	dir := modelDir(t)

	code, _, _ := runArgs("--topk", "2", "--model-dir", dir, "clip.mp4", "i3d")
	assert.Equal(t, exitConfig, code)
}

func TestRunUsageErrors(t *testing.T) {
	useFakes(t, 101)

	cases := []struct {
		name string
		args []string
		want int
		help bool
	}{
		{name: "no arguments", args: nil, want: exitUsage, help: true},
		{name: "missing model", args: []string{"clip.mp4"}, want: exitUsage, help: true},
		{name: "bad topk", args: []string{"--topk", "many", "clip.mp4", "i3d"}, want: exitUsage},
		{name: "zero topk", args: []string{"--topk", "0", "clip.mp4", "i3d"}, want: exitConfig, help: true},
		{name: "unknown runtime", args: []string{"--runtime", "tvm", "clip.mp4", "i3d"}, want: exitConfig, help: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, stdout, _ := runArgs(tc.args...)
			assert.Equal(t, tc.want, code)
			if tc.help {
				assert.Contains(t, stdout, "<video file> <model name>")
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	useFakes(t, 101)

	code, stdout, _ := runArgs("--help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "<video file> <model name>")
}
