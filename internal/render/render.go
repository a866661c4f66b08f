// Package render paints classified regions into colour canvases.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/cellframe/internal/classify"
	"github.com/cellframe/internal/region"
)

// Canvases are the per-frame images written to the output videos.
type Canvases struct {
	Combined   *image.RGBA // every region on black
	Overlay    *image.RGBA // every region over the source frame
	ByCategory [classify.NumCategories]*image.RGBA
}

func newBlack(r image.Rectangle) *image.RGBA {
	img := image.NewRGBA(r)
	draw.Draw(img, r, image.NewUniform(color.RGBA{A: 255}), image.Point{}, draw.Src)
	return img
}

// Paint draws regions[i] with the colour of cats[i] on all canvases. The
// overlay canvas is frame itself, painted in place.
func Paint(frame *image.RGBA, regions []region.Region, cats []classify.Category) (*Canvases, error) {
	if len(regions) != len(cats) {
		return nil, fmt.Errorf("%d regions but %d categories", len(regions), len(cats))
	}
	if frame.Rect.Min != (image.Point{}) {
		return nil, fmt.Errorf("frame origin %v is not (0, 0)", frame.Rect.Min)
	}
	bounds := frame.Bounds()
	c := &Canvases{
		Combined: newBlack(bounds),
		Overlay:  frame,
	}
	for i := range c.ByCategory {
		c.ByCategory[i] = newBlack(bounds)
	}
	for i := range regions {
		col := cats[i].Color()
		for _, p := range regions[i].Coords {
			c.Combined.SetRGBA(p.X, p.Y, col)
			c.Overlay.SetRGBA(p.X, p.Y, col)
			c.ByCategory[cats[i]].SetRGBA(p.X, p.Y, col)
		}
	}
	return c, nil
}

// GrayOf converts a decoded frame to 8-bit gray with its origin at (0, 0).
func GrayOf(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// LabelColor returns a stable colour for a label value. Neighbouring labels
// get well separated hues.
func LabelColor(label int32) color.RGBA {
	const golden = 0.618033988749895
	h := math.Mod(float64(label)*golden, 1)
	r, g, b := hsvToRGB(h, 0.85, 1)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return uint8(math.Round(r * 255)), uint8(math.Round(g * 255)), uint8(math.Round(b * 255))
}

// LabelColors paints every label of the mask in its own colour on black.
func LabelColors(mask *region.LabelMask) *image.RGBA {
	out := newBlack(mask.Bounds())
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if v := mask.Labels[y*mask.Width+x]; v > 0 {
				out.SetRGBA(x, y, LabelColor(v))
			}
		}
	}
	return out
}
