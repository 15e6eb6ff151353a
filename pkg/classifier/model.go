package classifier

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Model runs one forward pass in inference mode and returns the raw sigmoid
// score. Implementations must either be safe for concurrent Run calls or
// serialize them internally.
type Model interface {
	Run(input []float32) (float32, error)
	Close() error
}

type onnxModel struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

func loadONNXModel(modelPath string) (Model, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not accessible: %w", err)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize onnx runtime: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, ImageSize, ImageSize, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create onnx session: %w", err)
	}

	return &onnxModel{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Run copies the input into the session's shared buffer and executes the
// forward pass. The buffers are pre-allocated once, so passes are serialized.
func (m *onnxModel) Run(input []float32) (float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.inputTensor.GetData(), input)

	if err := m.session.Run(); err != nil {
		return 0, err
	}

	return m.outputTensor.GetData()[0], nil
}

func (m *onnxModel) Close() error {
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
	}
	if m.session != nil {
		m.session.Destroy()
	}
	return ort.DestroyEnvironment()
}
