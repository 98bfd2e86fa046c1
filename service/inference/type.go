package inference

import (
	"path/filepath"

	"github.com/khaledhikmat/vc-go/model"
	"github.com/khaledhikmat/vc-go/tensor"
)

// Artifact names the files a runtime loads: the compiled graph and an optional
// parameter blob.
type Artifact struct {
	Graph  string
	Params string
}

// Binding declares the single input and single output of the graph and the
// fixed shapes of the tensors allocated for them.
type Binding struct {
	Input       string
	Output      string
	InputShape  tensor.Shape
	OutputShape tensor.Shape
}

// IService mirrors a graph executor: tensors are allocated once in Load and
// reused by every SetInput/Run/GetOutput cycle until Close.
type IService interface {
	Load(artifact Artifact, binding Binding, device model.Device) error
	SetInput(name string, in *tensor.Tensor) error
	Run() error
	GetOutput(index int, out *tensor.Tensor) error
	Close()
}

// ArtifactFor resolves the files of a model by naming convention. The params
// blob is optional and only consumed by the dnn runtime.
func ArtifactFor(dir, modelName string) Artifact {
	return Artifact{
		Graph:  filepath.Join(dir, modelName+".onnx"),
		Params: filepath.Join(dir, modelName+"_deploy_0000.params"),
	}
}
