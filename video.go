// Package cellframe connects the processing pipeline to OpenCV and
// onnxruntime: frame and video decoding, video encoding and the segmenters.
package cellframe

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/cellframe/internal/pipeline"
	"gocv.io/x/gocv"
)

// VideoInfo holds the capture properties of a video input.
type VideoInfo struct {
	Width      int
	Height     int
	FPS        float64
	TotalFrame int // 0 when the container does not tell
}

func videoInfoOf(video *gocv.VideoCapture) *VideoInfo {
	total := int(video.Get(gocv.VideoCaptureFrameCount))
	if total < 0 {
		total = 0
	}
	return &VideoInfo{
		Width:      int(video.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(video.Get(gocv.VideoCaptureFrameHeight)),
		FPS:        video.Get(gocv.VideoCaptureFPS),
		TotalFrame: total,
	}
}

// VideoSink writes RGBA frames of a fixed size to a video file.
type VideoSink struct {
	VideoWriter *gocv.VideoWriter
	Width       int
	Height      int
	TargetPath  string
}

func NewVideoSink(targetPath, codec string, fps float64, width, height int) (*VideoSink, error) {
	videoWriter, err := gocv.VideoWriterFile(targetPath, codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", targetPath, err)
	}
	if !videoWriter.IsOpened() {
		videoWriter.Close()
		return nil, fmt.Errorf("cannot open video writer %s (codec %s)", targetPath, codec)
	}
	return &VideoSink{
		VideoWriter: videoWriter,
		Width:       width,
		Height:      height,
		TargetPath:  targetPath,
	}, nil
}

func (v *VideoSink) WriteFrame(frame image.Image) error {
	if size := frame.Bounds().Size(); size.X != v.Width || size.Y != v.Height {
		return fmt.Errorf("frame of %dx%d written to a %dx%d video", size.X, size.Y, v.Width, v.Height)
	}
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return err
	}
	defer mat.Close()
	return v.VideoWriter.Write(mat)
}

func (v *VideoSink) Close() error {
	return v.VideoWriter.Close()
}

// FileOutputs places the outputs of a run in a directory.
type FileOutputs struct {
	Dir   string
	Codec string
}

func NewFileOutputs(dir, codec string) (*FileOutputs, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileOutputs{Dir: dir, Codec: codec}, nil
}

func (o *FileOutputs) OpenVideo(name string, fps float64, width, height int) (pipeline.VideoWriter, error) {
	return NewVideoSink(filepath.Join(o.Dir, name), o.Codec, fps, width, height)
}

func (o *FileOutputs) WriteImage(name string, img image.Image) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return err
	}
	defer mat.Close()
	path := filepath.Join(o.Dir, name)
	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}

func (o *FileOutputs) Create(name string) (io.WriteCloser, error) {
	return os.Create(filepath.Join(o.Dir, name))
}
