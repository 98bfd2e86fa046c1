package inference

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/service/lgr"
	"github.com/khaledhikmat/vc-go/tensor"
)

type onnxService struct {
	library      string
	binding      Binding
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	ownsEnv      bool
}

// NewONNX returns an onnxruntime backed runtime. library is the path of the
// onnxruntime shared library; empty uses the platform default.
func NewONNX(library string) IService {
	return &onnxService{
		library: library,
	}
}

func (svc *onnxService) Load(artifact Artifact, binding Binding, device model.Device) error {
	if svc.session != nil {
		return model.GenError("inference_onnx", model.KindConfig, nil, nil, "model already loaded")
	}

	if _, err := os.Stat(artifact.Graph); err != nil {
		return model.GenError("inference_onnx", model.KindResource, err,
			map[string]interface{}{"graph": artifact.Graph},
			"error reading model")
	}

	if !ort.IsInitialized() {
		if svc.library != "" {
			ort.SetSharedLibraryPath(svc.library)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return model.GenError("inference_onnx", model.KindResource, err, nil, "failed to initialize ONNX environment")
		}
		svc.ownsEnv = true
	}

	if binding.Output == "" {
		_, outputs, err := ort.GetInputOutputInfo(artifact.Graph)
		if err != nil || len(outputs) == 0 {
			svc.Close()
			return model.GenError("inference_onnx", model.KindShape, err,
				map[string]interface{}{"graph": artifact.Graph},
				"model declares no outputs")
		}
		binding.Output = outputs[0].Name
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(binding.InputShape...))
	if err != nil {
		svc.Close()
		return model.GenError("inference_onnx", model.KindShape, err, nil, "failed to create input tensor %s", binding.InputShape)
	}
	svc.inputTensor = inputTensor

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(binding.OutputShape...))
	if err != nil {
		svc.Close()
		return model.GenError("inference_onnx", model.KindShape, err, nil, "failed to create output tensor %s", binding.OutputShape)
	}
	svc.outputTensor = outputTensor

	options, err := sessionOptions(device)
	if err != nil {
		svc.Close()
		return model.GenError("inference_onnx", model.KindResource, err,
			map[string]interface{}{"device": device.String()},
			"failed to select device")
	}
	if options != nil {
		defer options.Destroy()
	}

	session, err := ort.NewAdvancedSession(artifact.Graph,
		[]string{binding.Input}, []string{binding.Output},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		svc.Close()
		return model.GenError("inference_onnx", model.KindShape, err,
			map[string]interface{}{"input": binding.Input, "output": binding.Output},
			"failed to create ONNX session")
	}
	svc.session = session
	svc.binding = binding

	lgr.Logger.Info("onnx model loaded",
		slog.String("graph", artifact.Graph),
		slog.String("device", device.String()),
		slog.String("input", fmt.Sprintf("%s%s", binding.Input, binding.InputShape)),
		slog.String("output", fmt.Sprintf("%s%s", binding.Output, binding.OutputShape)),
	)
	return nil
}

func sessionOptions(device model.Device) (*ort.SessionOptions, error) {
	if device.Kind != model.GPU {
		return nil, nil
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}

	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		options.Destroy()
		return nil, err
	}
	defer cuda.Destroy()

	if err := cuda.Update(map[string]string{"device_id": strconv.Itoa(device.ID)}); err != nil {
		options.Destroy()
		return nil, err
	}
	if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func (svc *onnxService) SetInput(name string, in *tensor.Tensor) error {
	if svc.session == nil {
		return model.GenError("inference_onnx", model.KindConfig, nil, nil, "model not loaded")
	}
	if name != svc.binding.Input {
		return model.GenError("inference_onnx", model.KindShape, nil,
			map[string]interface{}{"name": name},
			"model has no input named %q", name)
	}
	if !in.Shape().Equal(svc.binding.InputShape) {
		return model.GenError("inference_onnx", model.KindShape, nil, nil,
			"input shape %s does not match %s", in.Shape(), svc.binding.InputShape)
	}

	copy(svc.inputTensor.GetData(), in.Data())
	return nil
}

func (svc *onnxService) Run() error {
	if svc.session == nil {
		return model.GenError("inference_onnx", model.KindConfig, nil, nil, "model not loaded")
	}
	if err := svc.session.Run(); err != nil {
		return model.GenError("inference_onnx", model.KindResource, err, nil, "inference failed")
	}
	return nil
}

func (svc *onnxService) GetOutput(index int, out *tensor.Tensor) error {
	if svc.session == nil {
		return model.GenError("inference_onnx", model.KindConfig, nil, nil, "model not loaded")
	}
	if index != 0 {
		return model.GenError("inference_onnx", model.KindShape, nil, nil, "model has no output %d", index)
	}
	if err := out.CopyFrom(svc.outputTensor.GetData()); err != nil {
		return model.GenError("inference_onnx", model.KindShape, err, nil, "output shape mismatch")
	}
	return nil
}

func (svc *onnxService) Close() {
	if svc.session != nil {
		svc.session.Destroy()
		svc.session = nil
	}
	if svc.inputTensor != nil {
		svc.inputTensor.Destroy()
		svc.inputTensor = nil
	}
	if svc.outputTensor != nil {
		svc.outputTensor.Destroy()
		svc.outputTensor = nil
	}
	if svc.ownsEnv {
		ort.DestroyEnvironment()
		svc.ownsEnv = false
	}
}
