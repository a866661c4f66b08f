package pipeline

import (
	"errors"
	"fmt"
	"image"
)

// videoSet opens output videos on their first frame and closes every opened
// writer exactly once.
type videoSet struct {
	outputs Outputs
	fps     float64
	order   []string
	writers map[string]VideoWriter
	closed  bool
}

func newVideoSet(outputs Outputs, fps float64) *videoSet {
	return &videoSet{
		outputs: outputs,
		fps:     fps,
		writers: map[string]VideoWriter{},
	}
}

func (v *videoSet) Write(name string, img image.Image) error {
	if v.closed {
		return fmt.Errorf("video %s written after close", name)
	}
	w, ok := v.writers[name]
	if !ok {
		size := img.Bounds().Size()
		var err error
		w, err = v.outputs.OpenVideo(name, v.fps, size.X, size.Y)
		if err != nil {
			return fmt.Errorf("failed to open video %s: %w", name, err)
		}
		v.writers[name] = w
		v.order = append(v.order, name)
	}
	if err := w.WriteFrame(img); err != nil {
		return fmt.Errorf("failed to write frame to %s: %w", name, err)
	}
	return nil
}

func (v *videoSet) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	var errs []error
	for _, name := range v.order {
		if err := v.writers[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close video %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
