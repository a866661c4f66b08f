package segment

import (
	"fmt"
	"image"

	"github.com/cellframe/internal/region"
	"github.com/cellframe/internal/render"
	"github.com/nfnt/resize"
)

// Percentiles of the gray histogram mapped to 0 and 1 by Normalize.
const (
	lowPercentile  = 0.01
	highPercentile = 0.99
)

// Normalize resizes img to the network size and writes it into the first
// channel of dst as floats scaled so that the 1st and 99th percentiles of the
// resized image become 0 and 1. The remaining channels are zeroed.
func Normalize(dst []float32, img *image.Gray, cfg *ModelConfig) error {
	if len(dst) < cfg.InputLen() {
		return fmt.Errorf("destination tensor only holds %d floats, needs %d", len(dst), cfg.InputLen())
	}
	resized := render.GrayOf(resize.Resize(uint(cfg.Width), uint(cfg.Height), img, resize.Bilinear))
	lo, hi := percentiles(resized)

	channelSize := cfg.Width * cfg.Height
	plane := dst[:channelSize]
	scale := float32(0)
	if hi > lo {
		scale = 1 / float32(hi-lo)
	}
	i := 0
	for y := 0; y < cfg.Height; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+cfg.Width]
		for _, v := range row {
			plane[i] = (float32(v) - float32(lo)) * scale
			i++
		}
	}
	clear(dst[channelSize:cfg.InputLen()])
	return nil
}

func percentiles(img *image.Gray) (lo, hi uint8) {
	var hist [256]int
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for _, v := range img.Pix[y*img.Stride : y*img.Stride+b.Dx()] {
			hist[v]++
		}
	}
	n := b.Dx() * b.Dy()
	loRank := int(float64(n-1) * lowPercentile)
	hiRank := int(float64(n-1) * highPercentile)
	seen := 0
	found := false
	for v, c := range hist {
		if c == 0 {
			continue
		}
		if !found && seen+c > loRank {
			lo = uint8(v)
			found = true
		}
		if seen+c > hiRank {
			return lo, uint8(v)
		}
		seen += c
	}
	return lo, lo
}

// Decode thresholds the probability channel of a network output and returns
// the connected foreground components as a label mask of width x height.
func Decode(output []float32, cfg *ModelConfig, threshold float32, width, height int) (*region.LabelMask, error) {
	if len(output) < cfg.OutputLen() {
		return nil, fmt.Errorf("output tensor holds %d floats, needs %d", len(output), cfg.OutputLen())
	}
	channelSize := cfg.Width * cfg.Height
	prob := output[cfg.ProbChannel*channelSize : (cfg.ProbChannel+1)*channelSize]

	mask := region.NewLabelMask(width, height)
	for y := 0; y < height; y++ {
		sy := y * cfg.Height / height
		for x := 0; x < width; x++ {
			sx := x * cfg.Width / width
			if prob[sy*cfg.Width+sx] > threshold {
				mask.Labels[y*width+x] = 1
			}
		}
	}
	return region.Relabel(mask), nil
}
