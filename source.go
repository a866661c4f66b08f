package cellframe

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cellframe/internal/frames"
	"github.com/cellframe/internal/pipeline"
	"github.com/cellframe/internal/render"
	"gocv.io/x/gocv"
)

// OpenSource opens a frame directory or a video file.
func OpenSource(path string) (pipeline.Source, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		src, err := NewDirSource(path)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	src, err := NewVideoSource(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open video %s: %w", path, err)
	}
	return src, nil
}

// DirSource reads the JPEG frames of a directory in name order.
type DirSource struct {
	paths []string
	pos   int
}

func NewDirSource(dir string) (*DirSource, error) {
	paths, err := frames.List(dir)
	if err != nil {
		return nil, err
	}
	return &DirSource{paths: paths}, nil
}

func (s *DirSource) Len() int     { return len(s.paths) }
func (s *DirSource) Kind() string { return pipeline.KindFrames }
func (s *DirSource) Close() error { return nil }

func (s *DirSource) Next(ctx context.Context) (pipeline.Frame, error) {
	if s.pos >= len(s.paths) {
		return pipeline.Frame{}, io.EOF
	}
	path := s.paths[s.pos]
	gray, err := ReadGray(path)
	if err != nil {
		return pipeline.Frame{}, err
	}
	frame := pipeline.Frame{
		Index: s.pos,
		Name:  filepath.Base(path),
		Gray:  gray,
	}
	s.pos++
	return frame, nil
}

// ReadGray decodes an image file to 8-bit gray.
func ReadGray(path string) (*image.Gray, error) {
	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("cannot decode %s", path)
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s: %w", path, err)
	}
	return render.GrayOf(img), nil
}

// VideoSource reads the frames of a video file in order. Frames are named by
// their index.
type VideoSource struct {
	Info  *VideoInfo
	video *gocv.VideoCapture
	frame gocv.Mat
	gray  gocv.Mat
	pos   int
}

func NewVideoSource(path string) (*VideoSource, error) {
	video, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, err
	}
	if !video.IsOpened() {
		video.Close()
		return nil, errors.New("cannot open video capture")
	}
	return &VideoSource{
		Info:  videoInfoOf(video),
		video: video,
		frame: gocv.NewMat(),
		gray:  gocv.NewMat(),
	}, nil
}

func (s *VideoSource) Len() int     { return s.Info.TotalFrame }
func (s *VideoSource) Kind() string { return pipeline.KindVideo }

func (s *VideoSource) Next(ctx context.Context) (pipeline.Frame, error) {
	for {
		if ok := s.video.Read(&s.frame); !ok {
			return pipeline.Frame{}, io.EOF
		}
		if !s.frame.Empty() {
			break
		}
	}
	if s.Info.Width > 0 && (s.frame.Cols() != s.Info.Width || s.frame.Rows() != s.Info.Height) {
		return pipeline.Frame{}, fmt.Errorf("frame %d is %dx%d in a %dx%d video",
			s.pos, s.frame.Cols(), s.frame.Rows(), s.Info.Width, s.Info.Height)
	}
	color, err := s.frame.ToImage()
	if err != nil {
		return pipeline.Frame{}, err
	}
	var gray image.Image = color
	if s.frame.Channels() > 1 {
		gocv.CvtColor(s.frame, &s.gray, gocv.ColorBGRToGray)
		if gray, err = s.gray.ToImage(); err != nil {
			return pipeline.Frame{}, err
		}
	}
	frame := pipeline.Frame{
		Index: s.pos,
		Name:  strconv.Itoa(s.pos),
		Gray:  render.GrayOf(gray),
		Color: color,
	}
	s.pos++
	return frame, nil
}

func (s *VideoSource) Close() error {
	s.frame.Close()
	s.gray.Close()
	return s.video.Close()
}
