package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vc-go/model"
)

var samplePredictions = []model.Prediction{
	{Index: 1, Name: "b", Probability: 0.7},
	{Index: 2, Name: "c", Probability: 0.2},
}

const sampleReport = "The input video is classified to be\n" +
	"\t[b], with probability 0.700\n" +
	"\t[c], with probability 0.200\n"

func TestFormatReport(t *testing.T) {
	assert.Equal(t, sampleReport, FormatReport(samplePredictions))
	assert.Equal(t, "The input video is classified to be\n", FormatReport(nil))
}

func TestFormatReportRounding(t *testing.T) {
	report := FormatReport([]model.Prediction{{Name: "x", Probability: 0.12345}})
	assert.Contains(t, report, "\t[x], with probability 0.123\n")
}

func TestWriteConsole(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	var buf bytes.Buffer
	require.NoError(t, WriteConsole(&buf, samplePredictions))
	assert.Equal(t, sampleReport, buf.String())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than the report itself"), 0o644))

	require.NoError(t, WriteFile(path, samplePredictions))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleReport, string(content))
}

func TestWriteFileFailure(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "report.txt"), samplePredictions)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindResource))
}

func TestPredictions(t *testing.T) {
	preds, err := Predictions([]Ranked{{Index: 1, Value: 0.7}, {Index: 2, Value: 0.2}}, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, samplePredictions, preds)

	_, err = Predictions([]Ranked{{Index: 3}}, []string{"a", "b", "c"})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindShape))
}
