package cellframe

import (
	"context"
	"image"
	"slices"

	"github.com/cellframe/internal/region"
	"github.com/cellframe/internal/segment"
	"gocv.io/x/gocv"
)

// OtsuSegmenter is the model-free segmenter: a Gaussian blur scaled to the
// expected object size, a global Otsu threshold and connected components.
type OtsuSegmenter struct {
	Diameter float64 // 0 uses the stock cell size
	Invert   bool    // objects darker than the background
}

func (s *OtsuSegmenter) Segment(ctx context.Context, img *image.Gray) (*region.LabelMask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	diameter := s.Diameter
	if diameter <= 0 {
		diameter = segment.TrainedDiameter
	}
	sigma := diameter / 8
	if sigma < 0.5 {
		sigma = 0.5
	}
	gocv.GaussianBlur(src, &blurred, image.Point{}, sigma, sigma, gocv.BorderReflect101)

	binary := gocv.NewMat()
	defer binary.Close()
	typ := gocv.ThresholdBinary
	if s.Invert {
		typ = gocv.ThresholdBinaryInv
	}
	gocv.Threshold(blurred, &binary, 0, 255, typ|gocv.ThresholdOtsu)

	labels := gocv.NewMat()
	defer labels.Close()
	gocv.ConnectedComponents(binary, &labels)

	data, err := labels.DataPtrInt32()
	if err != nil {
		return nil, err
	}
	return region.NewLabelMaskFrom(labels.Cols(), labels.Rows(), slices.Clone(data))
}

func (s *OtsuSegmenter) Close() error { return nil }
