package cellframe

import (
	"fmt"
	"io"

	"github.com/cellframe/internal/config"
	"github.com/cellframe/internal/pipeline"
	"github.com/cellframe/internal/segment"
)

// Segmenter is a pipeline segmenter holding native resources.
type Segmenter interface {
	pipeline.Segmenter
	io.Closer
}

// NewSegmenter builds the segmenter selected by the configuration.
func NewSegmenter(cfg *config.Config) (Segmenter, error) {
	switch cfg.Segmenter.Kind {
	case config.SegmenterONNX:
		opts := []CellModelOption{
			WithModelPath(cfg.Segmenter.Model),
			WithLibraryPath(cfg.Segmenter.Library),
			WithCellProbThreshold(cfg.CellProb()),
			WithDiameter(cfg.DiameterHint()),
		}
		if cfg.Segmenter.ModelConfig != "" {
			modelConfig, err := segment.LoadModelConfig(cfg.Segmenter.ModelConfig)
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithConfig(modelConfig))
		}
		model, err := NewCellModel(opts...)
		if err != nil {
			return nil, err
		}
		return model, nil
	case config.SegmenterOtsu:
		return &OtsuSegmenter{Diameter: cfg.DiameterHint(), Invert: cfg.Segmenter.Invert}, nil
	}
	return nil, fmt.Errorf("unknown segmenter %q", cfg.Segmenter.Kind)
}
