package data

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/config"
)

func newSvc(t *testing.T, dir, resultsLog string) IService {
	t.Helper()
	svc := NewFilesDB(config.NewStatic(config.Settings{ModelDir: dir, ResultsLog: resultsLog}))
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestRetrieveClassNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(SynsetPath(dir, "slowfast"), []byte("abseiling\r\nair drumming\nanswering questions\n\n"), 0644))

	names, err := newSvc(t, dir, "").RetrieveClassNames("slowfast")
	require.NoError(t, err)
	assert.Equal(t, []string{"abseiling", "air drumming", "answering questions"}, names)
}

func TestRetrieveClassNamesMissingOrEmpty(t *testing.T) {
	dir := t.TempDir()
	svc := newSvc(t, dir, "")

	_, err := svc.RetrieveClassNames("missing")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindResource))

	require.NoError(t, os.WriteFile(SynsetPath(dir, "empty"), []byte("\n \n"), 0644))
	_, err = svc.RetrieveClassNames("empty")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindResource))
}

func TestNewRunRecordAppendsJSONLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "results.log")
	svc := newSvc(t, t.TempDir(), logPath)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.NewRunRecord(model.RunRecord{
			Stats: model.RunStats{RunID: "run", Frames: 4},
			Video: "clip.mp4",
			Model: "i3d",
			Predictions: []model.Prediction{
				{Index: 1, Name: "b", Probability: 0.7},
			},
		}))
	}
	require.NoError(t, svc.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var rec model.RunRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, 4, rec.Stats.Frames)
	assert.Equal(t, "b", rec.Predictions[0].Name)
	assert.NotZero(t, rec.Timestamp)
}

func TestNewRunRecordWithoutLedgerIsNoop(t *testing.T) {
	svc := newSvc(t, t.TempDir(), "")
	assert.NoError(t, svc.NewRunRecord(model.RunRecord{}))
}
