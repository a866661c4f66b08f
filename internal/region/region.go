// Package region measures the objects of a label mask against the frame
// they were segmented from.
package region

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// Region holds the measurements of one labelled object. It lives only for the
// frame it was computed from.
type Region struct {
	Label         int32
	Area          int     // pixel count
	Perimeter     float64 // boundary length estimate, never below 1
	MeanIntensity float64 // mean gray value under the region
	Coords        []image.Point
	Bounds        image.Rectangle
}

// Circularity is 4*pi*area / perimeter^2. Pixelated boundaries can push it
// above 1.
func (r *Region) Circularity() float64 {
	return 4 * math.Pi * float64(r.Area) / (r.Perimeter * r.Perimeter)
}

// Extract returns one Region per positive label value, ordered by label.
// gray must have the same size as the mask.
func Extract(mask *LabelMask, gray *image.Gray) ([]Region, error) {
	b := gray.Bounds()
	if b.Dx() != mask.Width || b.Dy() != mask.Height {
		return nil, fmt.Errorf("mask is %dx%d but image is %dx%d", mask.Width, mask.Height, b.Dx(), b.Dy())
	}

	byLabel := map[int32]*Region{}
	sums := map[int32]float64{}
	for y := 0; y < mask.Height; y++ {
		row := mask.Labels[y*mask.Width : (y+1)*mask.Width]
		for x, v := range row {
			if v <= 0 {
				continue
			}
			r, ok := byLabel[v]
			if !ok {
				r = &Region{Label: v, Bounds: image.Rect(x, y, x+1, y+1)}
				byLabel[v] = r
			}
			r.Area++
			r.Coords = append(r.Coords, image.Pt(x, y))
			r.Bounds = r.Bounds.Union(image.Rect(x, y, x+1, y+1))
			sums[v] += float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		}
	}

	regions := make([]Region, 0, len(byLabel))
	for v, r := range byLabel {
		r.MeanIntensity = sums[v] / float64(r.Area)
		r.Perimeter = math.Max(perimeter(r), 1)
		regions = append(regions, *r)
	}
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Label < regions[j].Label
	})
	return regions, nil
}

// Weights for the 3x3 border configuration codes produced by the kernel
// [[10 2 10] [2 1 2] [10 2 10]]. Only odd codes (border pixels) carry weight.
var perimeterWeights = func() [50]float64 {
	var w [50]float64
	for _, i := range []int{5, 7, 15, 17, 25, 27} {
		w[i] = 1
	}
	w[21], w[33] = math.Sqrt2, math.Sqrt2
	w[13], w[23] = (1+math.Sqrt2)/2, (1+math.Sqrt2)/2
	return w
}()

// perimeter estimates the boundary length of a region: border pixels are the
// region minus its 4-neighbourhood erosion, and each border pixel contributes
// according to how its neighbours continue the boundary.
func perimeter(r *Region) float64 {
	// Work in the bounding box with a one pixel margin so every neighbour
	// lookup stays in range.
	w, h := r.Bounds.Dx()+2, r.Bounds.Dy()+2
	inside := make([]bool, w*h)
	for _, p := range r.Coords {
		inside[(p.Y-r.Bounds.Min.Y+1)*w+(p.X-r.Bounds.Min.X+1)] = true
	}

	border := make([]bool, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			if !inside[i] {
				continue
			}
			border[i] = !(inside[i-1] && inside[i+1] && inside[i-w] && inside[i+w])
		}
	}

	total := 0.0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			if !border[i] {
				continue
			}
			code := 1
			for _, n := range []int{i - 1, i + 1, i - w, i + w} {
				if border[n] {
					code += 2
				}
			}
			for _, n := range []int{i - w - 1, i - w + 1, i + w - 1, i + w + 1} {
				if border[n] {
					code += 10
				}
			}
			total += perimeterWeights[code]
		}
	}
	return total
}
