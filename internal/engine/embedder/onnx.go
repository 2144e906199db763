package embedder

import (
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// selectDevice probes for a CUDA execution provider. Unavailability is not
// an error; the CPU provider always works.
func selectDevice() string {
	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		slog.Debug("cuda provider unavailable, using cpu", "err", err)
		return "cpu"
	}
	cudaOpts.Destroy()
	return "cuda"
}

// newSessionOptions builds session options for the given device, falling
// back to CPU if the accelerator cannot be attached.
func newSessionOptions(device string) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: session options: %w", err)
	}

	if device == "cuda" {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err == nil {
			if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
				slog.Warn("failed to attach cuda provider, using cpu", "err", err)
			}
			cudaOpts.Destroy()
		}
	}

	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)
	return opts, nil
}

// imageSession wraps the visual encoder. Input: pixel_values
// [batch, 3, H, W] float32. Output: [batch, dim] float32.
type imageSession struct {
	session   *ort.DynamicAdvancedSession
	inputName string
	embedDim  int64
}

func newImageSession(modelPath, device string) (*imageSession, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: visual model has no inputs or outputs")
	}

	dims := outputs[0].Dimensions
	if len(dims) != 2 {
		return nil, fmt.Errorf("onnx: expected 2D visual output tensor, got %v", dims)
	}

	opts, err := newSessionOptions(device)
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: create visual session: %w", err)
	}

	return &imageSession{
		session:   session,
		inputName: inputs[0].Name,
		embedDim:  dims[1],
	}, nil
}

// infer embeds a single preprocessed image. pixels is a flat
// [3 * inputSize * inputSize] CHW slice.
func (s *imageSession) infer(pixels []float32) ([]float32, error) {
	in, err := ort.NewTensor(ort.NewShape(1, 3, inputSize, inputSize), pixels)
	if err != nil {
		return nil, fmt.Errorf("onnx: pixel tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, s.embedDim))
	if err != nil {
		return nil, fmt.Errorf("onnx: output tensor: %w", err)
	}
	defer out.Destroy()

	if err := s.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: visual inference: %w", err)
	}

	src := out.GetData()
	vec := make([]float32, len(src))
	copy(vec, src)
	return vec, nil
}

func (s *imageSession) close() error {
	return s.session.Destroy()
}

// textSession wraps the textual encoder. Input: input_ids
// [batch, contextLength] int64. Output: [batch, dim] float32.
type textSession struct {
	session   *ort.DynamicAdvancedSession
	inputName string
	embedDim  int64
}

func newTextSession(modelPath, device string) (*textSession, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}

	var inputName string
	for _, inp := range inputs {
		if inp.Name == "input_ids" {
			inputName = inp.Name
			break
		}
	}
	if inputName == "" {
		return nil, fmt.Errorf("onnx: textual model missing required input \"input_ids\"")
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: textual model has no outputs")
	}

	dims := outputs[0].Dimensions
	if len(dims) != 2 {
		return nil, fmt.Errorf("onnx: expected 2D textual output tensor, got %v", dims)
	}

	opts, err := newSessionOptions(device)
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: create textual session: %w", err)
	}

	return &textSession{
		session:   session,
		inputName: inputName,
		embedDim:  dims[1],
	}, nil
}

// infer embeds a batch of tokenized texts. ids is a flat
// [batchSize * contextLength] slice. Returns flat [batchSize * dim].
func (s *textSession) infer(ids []int64, batchSize int64) ([]float32, error) {
	in, err := ort.NewTensor(ort.NewShape(batchSize, contextLength), ids)
	if err != nil {
		return nil, fmt.Errorf("onnx: input_ids tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(batchSize, s.embedDim))
	if err != nil {
		return nil, fmt.Errorf("onnx: output tensor: %w", err)
	}
	defer out.Destroy()

	if err := s.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: textual inference: %w", err)
	}

	src := out.GetData()
	vecs := make([]float32, len(src))
	copy(vecs, src)
	return vecs, nil
}

func (s *textSession) close() error {
	return s.session.Destroy()
}
