package cellframe

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/cellframe/internal/region"
	"github.com/cellframe/internal/segment"
	ort "github.com/yalue/onnxruntime_go"
)

// ModelSession owns the onnxruntime session of a CellModel and its bound
// tensors.
type ModelSession struct {
	Session  *ort.AdvancedSession
	Input    *ort.Tensor[float32]
	Diameter *ort.Tensor[float32] // nil unless the model takes a diameter input
	Output   *ort.Tensor[float32]
}

func (m *ModelSession) Destroy() {
	m.Session.Destroy()
	m.Input.Destroy()
	if m.Diameter != nil {
		m.Diameter.Destroy()
	}
	m.Output.Destroy()
}

// CellModel segments gray frames with an exported cell segmentation network.
type CellModel struct {
	ModelPath         string
	LibraryPath       string
	Config            *segment.ModelConfig
	CellProbThreshold float32
	Diameter          float32 // 0 feeds the diameter the network was trained at
	ModelSession      *ModelSession
}

type CellModelOption func(*CellModel) error

func WithModelPath(path string) CellModelOption {
	return func(m *CellModel) error {
		m.ModelPath = path
		return nil
	}
}

// WithLibraryPath sets the onnxruntime shared library. Empty keeps the
// platform default search.
func WithLibraryPath(path string) CellModelOption {
	return func(m *CellModel) error {
		m.LibraryPath = path
		return nil
	}
}

// WithConfig overrides the sidecar next to the model.
func WithConfig(cfg *segment.ModelConfig) CellModelOption {
	return func(m *CellModel) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		m.Config = cfg
		return nil
	}
}

func WithCellProbThreshold(threshold float64) CellModelOption {
	return func(m *CellModel) error {
		m.CellProbThreshold = float32(threshold)
		return nil
	}
}

func WithDiameter(diameter float64) CellModelOption {
	return func(m *CellModel) error {
		if diameter < 0 {
			return fmt.Errorf("diameter must not be negative, got %v", diameter)
		}
		m.Diameter = float32(diameter)
		return nil
	}
}

func NewCellModel(opts ...CellModelOption) (*CellModel, error) {
	model := &CellModel{
		ModelPath:         "./cyto.onnx",
		CellProbThreshold: -0.8,
	}
	for _, opt := range opts {
		if err := opt(model); err != nil {
			return nil, err
		}
	}
	if model.Config == nil {
		cfg, err := segment.LoadModelConfig(segment.ConfigPath(model.ModelPath))
		if err != nil {
			return nil, fmt.Errorf("failed to load model config: %w", err)
		}
		model.Config = cfg
	}
	if err := model.initSession(); err != nil {
		return nil, err
	}
	return model, nil
}

var ortInit struct {
	once sync.Once
	err  error
}

// initEnvironment initializes onnxruntime once per process.
func initEnvironment(libraryPath string) error {
	ortInit.once.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInit.err = ort.InitializeEnvironment()
	})
	return ortInit.err
}

func (m *CellModel) initSession() error {
	if err := initEnvironment(m.LibraryPath); err != nil {
		return fmt.Errorf("error initializing ORT environment: %w", err)
	}
	cfg := m.Config

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.Channels), int64(cfg.Height), int64(cfg.Width)))
	if err != nil {
		return fmt.Errorf("error creating input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.OutputChannels), int64(cfg.Height), int64(cfg.Width)))
	if err != nil {
		inputTensor.Destroy()
		return fmt.Errorf("error creating output tensor: %w", err)
	}

	inputNames := []string{cfg.InputName}
	inputs := []ort.ArbitraryTensor{inputTensor}
	var diameterTensor *ort.Tensor[float32]
	if cfg.DiameterInput != "" {
		diameter := m.Diameter
		if diameter == 0 {
			diameter = float32(cfg.DefaultDiameter)
		}
		diameterTensor, err = ort.NewTensor(ort.NewShape(1), []float32{diameter})
		if err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			return fmt.Errorf("error creating diameter tensor: %w", err)
		}
		inputNames = append(inputNames, cfg.DiameterInput)
		inputs = append(inputs, diameterTensor)
	}
	destroyTensors := func() {
		inputTensor.Destroy()
		outputTensor.Destroy()
		if diameterTensor != nil {
			diameterTensor.Destroy()
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		destroyTensors()
		return fmt.Errorf("error creating ORT session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(m.ModelPath,
		inputNames, []string{cfg.OutputName},
		inputs,
		[]ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		destroyTensors()
		return fmt.Errorf("error creating ORT session for %s: %w", m.ModelPath, err)
	}

	m.ModelSession = &ModelSession{
		Session:  session,
		Input:    inputTensor,
		Diameter: diameterTensor,
		Output:   outputTensor,
	}
	return nil
}

// Segment runs the network on one frame and returns a mask of the frame's
// size.
func (m *CellModel) Segment(ctx context.Context, img *image.Gray) (*region.LabelMask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := segment.Normalize(m.ModelSession.Input.GetData(), img, m.Config); err != nil {
		return nil, err
	}
	if err := m.ModelSession.Session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	size := img.Bounds().Size()
	return segment.Decode(m.ModelSession.Output.GetData(), m.Config, m.CellProbThreshold, size.X, size.Y)
}

func (m *CellModel) Close() error {
	if m.ModelSession != nil {
		m.ModelSession.Destroy()
		m.ModelSession = nil
	}
	return nil
}
