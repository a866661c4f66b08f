package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cellframe/internal/classify"
	"github.com/cellframe/internal/config"
	"github.com/cellframe/internal/logging"
	"github.com/cellframe/internal/region"
	"github.com/cellframe/internal/render"
	"github.com/cellframe/internal/store"
	"github.com/cellframe/internal/summary"
)

var ErrUnknownLength = errors.New("classification needs the number of frames up front")

// Output names.
const (
	CombinedVideo     = "masks_colored.avi"
	OverlayVideo      = "overlay.avi"
	MeasurementsTable = "measurements_per_frame.csv"
)

// CategoryVideo is the per-category video of the classification mode.
func CategoryVideo(c classify.Category) string {
	return c.String() + ".avi"
}

// Blend weights of the uncategorized video overlay.
const (
	frameWeight = 0.6
	labelWeight = 0.4
)

// Pipeline holds everything a run needs. Source, Segmenter, Compositor and
// Outputs are required; Store and Log are optional. The caller owns and closes
// Source, Segmenter and Store.
type Pipeline struct {
	Config     config.Config
	Source     Source
	Segmenter  Segmenter
	Compositor Compositor
	Outputs    Outputs
	Store      store.Store
	Log        *slog.Logger
}

type Result struct {
	Frames  int
	Objects int
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Log == nil {
		return logging.Discard()
	}
	return p.Log
}

// FPS is the output frame rate: the configured one, else 20 for video input in
// metrics mode and 10 otherwise.
func (p *Pipeline) FPS() float64 {
	if p.Config.FPS > 0 {
		return p.Config.FPS
	}
	if p.Config.Mode == config.ModeMetrics && p.Source.Kind() == KindVideo {
		return 20
	}
	return 10
}

// Run processes every frame of the source in order. Videos are opened on the
// first frame and closed on every return path; the summary table is written
// after the last frame once every video is closed. Any failure stops the run.
func (p *Pipeline) Run(ctx context.Context) (res *Result, err error) {
	if p.Config.Mode == config.ModeClassify && p.Source.Len() <= 0 {
		return nil, ErrUnknownLength
	}

	videos := newVideoSet(p.Outputs, p.FPS())
	defer func() {
		if cerr := videos.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	start := time.Now()
	switch p.Config.Mode {
	case config.ModeClassify:
		res, err = p.runClassify(ctx, videos)
	case config.ModeMetrics:
		res, err = p.runMetrics(ctx, videos)
	default:
		return nil, fmt.Errorf("unknown mode %q", p.Config.Mode)
	}
	if err != nil {
		return nil, err
	}

	if res.Frames == 0 {
		p.logger().Warn("no frames in input", "input", p.Config.Input)
	}
	p.logger().Info("run completed",
		"mode", p.Config.Mode,
		"frames", res.Frames,
		"objects", res.Objects,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// next reads the following frame, returning ok=false at the end of input.
func (p *Pipeline) next(ctx context.Context, n int) (Frame, bool, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, false, err
	}
	frame, err := p.Source.Next(ctx)
	if errors.Is(err, io.EOF) {
		return Frame{}, false, nil
	}
	if err != nil {
		return Frame{}, false, fmt.Errorf("failed to read frame %d: %w", n, err)
	}
	return frame, true, nil
}

func (p *Pipeline) segment(ctx context.Context, frame Frame) (*region.LabelMask, error) {
	mask, err := p.Segmenter.Segment(ctx, frame.Gray)
	if err != nil {
		return nil, fmt.Errorf("segmentation of frame %s failed: %w", frame.Name, err)
	}
	size := frame.Gray.Bounds().Size()
	if mask.Width != size.X || mask.Height != size.Y {
		return nil, fmt.Errorf("segmentation of frame %s returned a %dx%d mask for a %dx%d image",
			frame.Name, mask.Width, mask.Height, size.X, size.Y)
	}
	return mask, nil
}

func (p *Pipeline) runClassify(ctx context.Context, videos *videoSet) (*Result, error) {
	total := p.Source.Len()
	rules := p.Config.Rules
	res := &Result{}
	var rows []summary.FrameRow

	for {
		frame, ok, err := p.next(ctx, res.Frames)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		mask, err := p.segment(ctx, frame)
		if err != nil {
			return nil, err
		}
		regions, err := region.Extract(region.Relabel(mask), frame.Gray)
		if err != nil {
			return nil, err
		}

		stage := classify.StageOf(frame.Index, total)
		cats := make([]classify.Category, len(regions))
		var acc summary.Accumulator
		for i := range regions {
			cats[i] = rules.Classify(&regions[i], stage)
			acc.Add(cats[i], &regions[i])
		}
		row := acc.Row(frame.Index, frame.Name)

		base, err := p.Compositor.Colorize(frame.Gray)
		if err != nil {
			return nil, fmt.Errorf("failed to colorize frame %s: %w", frame.Name, err)
		}
		canvases, err := render.Paint(base, regions, cats)
		if err != nil {
			return nil, err
		}
		if p.Config.Caption {
			render.Caption(canvases.Overlay, captionLines(frame.Name, stage, &row))
		}
		if err := videos.Write(CombinedVideo, canvases.Combined); err != nil {
			return nil, err
		}
		if err := videos.Write(OverlayVideo, canvases.Overlay); err != nil {
			return nil, err
		}
		for _, c := range classify.Categories() {
			if err := videos.Write(CategoryVideo(c), canvases.ByCategory[c]); err != nil {
				return nil, err
			}
		}

		if p.Store != nil {
			if err := p.Store.Add(ctx, row.Measurements()...); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
		res.Frames++
		res.Objects += len(regions)
		p.logger().Debug("frame processed", "frame", frame.Name, "stage", stage, "objects", len(regions))
	}

	if err := videos.Close(); err != nil {
		return nil, err
	}
	err := p.writeTable(MeasurementsTable, func(w io.Writer) error {
		return summary.WriteFrameCSV(w, rows)
	})
	return res, err
}

func (p *Pipeline) runMetrics(ctx context.Context, videos *videoSet) (*Result, error) {
	kind := p.Source.Kind()
	videoName := kind + "_masked_output.avi"
	res := &Result{}
	var rows []summary.MetricsRow

	for {
		frame, ok, err := p.next(ctx, res.Frames)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		mask, err := p.segment(ctx, frame)
		if err != nil {
			return nil, err
		}
		row := summary.Measure(frame.Index, mask, frame.Gray)
		labels := render.LabelColors(mask)

		if p.Config.SaveMasks {
			name := fmt.Sprintf("mask_%03d.png", frame.Index)
			if err := p.Outputs.WriteImage(name, labels); err != nil {
				return nil, fmt.Errorf("failed to save %s: %w", name, err)
			}
		}

		out := labels
		if frame.Color != nil {
			out, err = p.Compositor.Blend(frame.Color, labels, frameWeight, labelWeight)
			if err != nil {
				return nil, fmt.Errorf("failed to blend frame %s: %w", frame.Name, err)
			}
		}
		if err := videos.Write(videoName, out); err != nil {
			return nil, err
		}

		if p.Store != nil {
			if err := p.Store.Add(ctx, row.Measurement(frame.Name)); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
		res.Frames++
		res.Objects += row.NumObjects
		p.logger().Debug("frame processed", "frame", frame.Name, "objects", row.NumObjects)
	}

	if err := videos.Close(); err != nil {
		return nil, err
	}
	err := p.writeTable(kind+"_summary.csv", func(w io.Writer) error {
		return summary.WriteMetricsCSV(w, rows)
	})
	return res, err
}

func (p *Pipeline) writeTable(name string, write func(io.Writer) error) error {
	f, err := p.Outputs.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	p.logger().Info("summary saved", "file", name)
	return nil
}

func captionLines(name string, stage classify.Stage, row *summary.FrameRow) []string {
	counts := make([]string, 0, classify.NumCategories)
	for _, c := range classify.Categories() {
		counts = append(counts, fmt.Sprintf("%s %d", c, row.Stats[c].Count))
	}
	return []string{
		fmt.Sprintf("%s (%s)", name, stage),
		strings.Join(counts, "  "),
	}
}
