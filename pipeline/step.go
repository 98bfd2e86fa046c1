package pipeline

import (
	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/inference"
	"github.com/khaledhikmat/vc-go/tensor"
)

// InferenceStep runs one forward pass per preprocessed frame.
type InferenceStep struct {
	runtime inference.IService
	input   string
	output  *tensor.Tensor
}

func NewInferenceStep(runtime inference.IService, inputName string, outputShape tensor.Shape) (*InferenceStep, error) {
	output, err := tensor.New(outputShape)
	if err != nil {
		return nil, model.GenError("inference_step", model.KindShape, err, nil, "invalid output shape %s", outputShape)
	}
	return &InferenceStep{
		runtime: runtime,
		input:   inputName,
		output:  output,
	}, nil
}

// Run binds in to the model input, executes the model and reads output 0.
// The returned vector is reused by the next Run.
func (s *InferenceStep) Run(in *tensor.Tensor) (model.ScoreVector, error) {
	if err := s.runtime.SetInput(s.input, in); err != nil {
		return nil, err
	}
	if err := s.runtime.Run(); err != nil {
		return nil, err
	}
	if err := s.runtime.GetOutput(0, s.output); err != nil {
		return nil, err
	}
	return model.ScoreVector(s.output.Data()), nil
}
