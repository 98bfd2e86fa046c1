package inference

import (
	"fmt"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/tensor"
)

// Fake replays scripted outputs, one per Run, cycling when it runs out.
type Fake struct {
	outputs  [][]float32
	failRun  int
	binding  Binding
	device   model.Device
	artifact Artifact
	loaded   bool
	closed   bool
	runs     int
	inputs   [][]float32
}

func NewFake(outputs ...[]float32) *Fake {
	return &Fake{
		outputs: outputs,
		failRun: -1,
	}
}

// FailOnRun makes the n-th Run (zero based) fail.
func (svc *Fake) FailOnRun(n int) *Fake {
	svc.failRun = n
	return svc
}

func (svc *Fake) Device() model.Device {
	return svc.device
}

func (svc *Fake) Artifact() Artifact {
	return svc.artifact
}

func (svc *Fake) Binding() Binding {
	return svc.binding
}

func (svc *Fake) Runs() int {
	return svc.runs
}

func (svc *Fake) Inputs() [][]float32 {
	return svc.inputs
}

func (svc *Fake) Closed() bool {
	return svc.closed
}

func (svc *Fake) Load(artifact Artifact, binding Binding, device model.Device) error {
	if len(svc.outputs) == 0 {
		return model.GenError("inference_fake", model.KindResource, nil, nil, "no scripted outputs")
	}
	svc.artifact = artifact
	svc.binding = binding
	svc.device = device
	svc.loaded = true
	return nil
}

func (svc *Fake) SetInput(name string, in *tensor.Tensor) error {
	if !svc.loaded {
		return model.GenError("inference_fake", model.KindConfig, nil, nil, "model not loaded")
	}
	if name != svc.binding.Input {
		return model.GenError("inference_fake", model.KindShape, nil, nil, "model has no input named %q", name)
	}
	if !in.Shape().Equal(svc.binding.InputShape) {
		return model.GenError("inference_fake", model.KindShape, nil, nil, "input shape %s does not match %s", in.Shape(), svc.binding.InputShape)
	}
	svc.inputs = append(svc.inputs, append([]float32(nil), in.Data()...))
	return nil
}

func (svc *Fake) Run() error {
	if svc.runs == svc.failRun {
		svc.runs++
		return model.GenError("inference_fake", model.KindResource, fmt.Errorf("scripted failure"), nil, "inference failed")
	}
	svc.runs++
	return nil
}

func (svc *Fake) GetOutput(index int, out *tensor.Tensor) error {
	if svc.runs == 0 {
		return model.GenError("inference_fake", model.KindConfig, nil, nil, "no forward pass yet")
	}
	if index != 0 {
		return model.GenError("inference_fake", model.KindShape, nil, nil, "model has no output %d", index)
	}
	if err := out.CopyFrom(svc.outputs[(svc.runs-1)%len(svc.outputs)]); err != nil {
		return model.GenError("inference_fake", model.KindShape, err, nil, "output shape mismatch")
	}
	return nil
}

func (svc *Fake) Close() {
	svc.closed = true
}
