package pipeline

import (
	"math"
	"sort"

	"github.com/khaledhikmat/vc-go/model"
)

// Softmax returns exp(v_i - max) / sum_j exp(v_j - max), computed in float64.
func Softmax(v model.ScoreVector) model.ScoreVector {
	probs := make(model.ScoreVector, len(v))
	if len(v) == 0 {
		return probs
	}

	hi := float64(v[0])
	for _, x := range v[1:] {
		hi = math.Max(hi, float64(x))
	}

	exps := make([]float64, len(v))
	total := 0.0
	for i, x := range v {
		exps[i] = math.Exp(float64(x) - hi)
		total += exps[i]
	}
	for i, e := range exps {
		probs[i] = float32(e / total)
	}
	return probs
}

// TopK returns the k largest entries in descending order. Equal values keep
// ascending index order.
func TopK(v model.ScoreVector, k int) ([]Ranked, error) {
	if k < 1 || k > len(v) {
		return nil, model.GenError("postprocessor", model.KindDegenerate, nil,
			map[string]interface{}{"k": k, "classes": len(v)},
			"top-k %d is outside 1..%d", k, len(v))
	}

	ranked := make([]Ranked, len(v))
	for i, x := range v {
		ranked[i] = Ranked{Index: i, Value: x}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	return ranked[:k], nil
}
