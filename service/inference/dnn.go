package inference

import (
	"log/slog"
	"os"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/lgr"
	"github.com/khaledhikmat/vc-go/tensor"
)

type dnnService struct {
	net     *gocv.Net
	binding Binding
	blob    gocv.Mat
	output  gocv.Mat
	ran     bool
}

// NewDNN returns a runtime backed by the OpenCV dnn module.
func NewDNN() IService {
	return &dnnService{}
}

func (svc *dnnService) Load(artifact Artifact, binding Binding, device model.Device) error {
	if svc.net != nil {
		return model.GenError("inference_dnn", model.KindConfig, nil, nil, "model already loaded")
	}

	if _, err := os.Stat(artifact.Graph); err != nil {
		return model.GenError("inference_dnn", model.KindResource, err,
			map[string]interface{}{"graph": artifact.Graph},
			"error reading model")
	}

	params := artifact.Params
	if _, err := os.Stat(params); err != nil {
		params = ""
	}

	net := gocv.ReadNet(artifact.Graph, params)
	if net.Empty() {
		return model.GenError("inference_dnn", model.KindResource, nil,
			map[string]interface{}{"graph": artifact.Graph, "params": params},
			"error reading model")
	}

	backend, target := gocv.NetBackendDefault, gocv.NetTargetCPU
	if device.Kind == model.GPU {
		backend, target = gocv.NetBackendCUDA, gocv.NetTargetCUDA
		if device.ID != 0 {
			lgr.Logger.Warn("dnn runtime uses the current cuda device", slog.String("device", device.String()))
		}
	}

	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return model.GenError("inference_dnn", model.KindResource, err, nil, "error setting backend")
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return model.GenError("inference_dnn", model.KindResource, err, nil, "error setting target")
	}

	dims := make([]int, len(binding.InputShape))
	for i, d := range binding.InputShape {
		dims[i] = int(d)
	}
	svc.blob = gocv.NewMatWithSizes(dims, gocv.MatTypeCV32F)
	svc.net = &net
	svc.binding = binding

	lgr.Logger.Info("dnn model loaded",
		slog.String("graph", artifact.Graph),
		slog.String("params", params),
		slog.String("device", device.String()),
	)
	return nil
}

func (svc *dnnService) SetInput(name string, in *tensor.Tensor) error {
	if svc.net == nil {
		return model.GenError("inference_dnn", model.KindConfig, nil, nil, "model not loaded")
	}
	if name != svc.binding.Input {
		return model.GenError("inference_dnn", model.KindShape, nil,
			map[string]interface{}{"name": name},
			"model has no input named %q", name)
	}
	if !in.Shape().Equal(svc.binding.InputShape) {
		return model.GenError("inference_dnn", model.KindShape, nil, nil,
			"input shape %s does not match %s", in.Shape(), svc.binding.InputShape)
	}

	data, err := svc.blob.DataPtrFloat32()
	if err != nil {
		return model.GenError("inference_dnn", model.KindShape, err, nil, "input blob is not float32")
	}
	copy(data, in.Data())

	svc.net.SetInput(svc.blob, name)
	return nil
}

func (svc *dnnService) Run() error {
	if svc.net == nil {
		return model.GenError("inference_dnn", model.KindConfig, nil, nil, "model not loaded")
	}
	if svc.ran {
		svc.output.Close()
	}

	svc.output = svc.net.Forward(svc.binding.Output)
	svc.ran = true
	if svc.output.Empty() {
		return model.GenError("inference_dnn", model.KindResource, nil, nil, "forward pass produced no output")
	}
	return nil
}

func (svc *dnnService) GetOutput(index int, out *tensor.Tensor) error {
	if !svc.ran {
		return model.GenError("inference_dnn", model.KindConfig, nil, nil, "no forward pass yet")
	}
	if index != 0 {
		return model.GenError("inference_dnn", model.KindShape, nil, nil, "model has no output %d", index)
	}

	data, err := svc.output.DataPtrFloat32()
	if err != nil {
		return model.GenError("inference_dnn", model.KindShape, err, nil, "output is not float32")
	}
	if err := out.CopyFrom(data); err != nil {
		return model.GenError("inference_dnn", model.KindShape, err, nil, "output shape mismatch")
	}
	return nil
}

func (svc *dnnService) Close() {
	if svc.ran {
		svc.output.Close()
		svc.ran = false
	}
	if svc.net != nil {
		svc.blob.Close()
		svc.net.Close()
		svc.net = nil
	}
}
