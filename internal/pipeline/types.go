// Package pipeline drives frames from a source through segmentation,
// measurement, classification and rendering into the output sinks.
package pipeline

import (
	"context"
	"image"
	"io"

	"github.com/cellframe/internal/region"
)

// Source kinds, also used as the prefix of uncategorized output names.
const (
	KindFrames = "jpg"
	KindVideo  = "avi"
)

// Frame is one decoded input image.
type Frame struct {
	Index int
	Name  string      // file name for frame directories, index for video
	Gray  *image.Gray // segmentation and brightness input
	Color image.Image // original colour frame, nil when the source is gray
}

// Source yields frames in input order.
type Source interface {
	// Len is the number of frames, or <= 0 when it cannot be known up front.
	Len() int
	// Kind is KindFrames or KindVideo.
	Kind() string
	// Next returns io.EOF after the last frame.
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Segmenter is the external segmentation model. The returned mask has the
// size of img; 0 is background.
type Segmenter interface {
	Segment(ctx context.Context, img *image.Gray) (*region.LabelMask, error)
}

// VideoWriter accepts frames of a single output video.
type VideoWriter interface {
	WriteFrame(img image.Image) error
	Close() error
}

// Outputs creates the files of a run. Names are relative to the output
// location.
type Outputs interface {
	OpenVideo(name string, fps float64, width, height int) (VideoWriter, error)
	WriteImage(name string, img image.Image) error
	Create(name string) (io.WriteCloser, error)
}

// Compositor converts and mixes the images written to the output videos.
type Compositor interface {
	// Colorize returns the gray frame as an opaque colour image.
	Colorize(gray *image.Gray) (*image.RGBA, error)
	// Blend returns alpha*base + beta*top per channel, saturated to 0..255.
	Blend(base image.Image, top *image.RGBA, alpha, beta float64) (*image.RGBA, error)
}
