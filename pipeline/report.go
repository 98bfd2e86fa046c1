package pipeline

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/khaledhikmat/vc-go/model"
)

const reportHeader = "The input video is classified to be"

// Predictions attaches class names to ranked entries.
func Predictions(ranked []Ranked, names []string) ([]model.Prediction, error) {
	preds := make([]model.Prediction, 0, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(names) {
			return nil, model.GenError("report", model.KindShape, nil,
				map[string]interface{}{"index": r.Index, "classes": len(names)},
				"class index %d has no name", r.Index)
		}
		preds = append(preds, model.Prediction{
			Index:       r.Index,
			Name:        names[r.Index],
			Probability: r.Value,
		})
	}
	return preds, nil
}

// FormatReport renders the header followed by one tab-indented line per prediction.
func FormatReport(preds []model.Prediction) string {
	var sb strings.Builder
	sb.WriteString(reportHeader)
	sb.WriteString("\n")
	for _, p := range preds {
		sb.WriteString(predictionLine(p))
	}
	return sb.String()
}

func predictionLine(p model.Prediction) string {
	return fmt.Sprintf("\t[%s], with probability %.3f\n", p.Name, p.Probability)
}

// WriteConsole prints the report with a highlighted header.
func WriteConsole(w io.Writer, preds []model.Prediction) error {
	if _, err := color.New(color.FgGreen, color.Bold).Fprintln(w, reportHeader); err != nil {
		return err
	}
	for _, p := range preds {
		if _, err := io.WriteString(w, predictionLine(p)); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile replaces path with the plain report.
func WriteFile(path string, preds []model.Prediction) error {
	if err := os.WriteFile(path, []byte(FormatReport(preds)), 0o644); err != nil {
		return model.GenError("report", model.KindResource, err,
			map[string]interface{}{"path": path},
			"error writing report")
	}
	return nil
}
