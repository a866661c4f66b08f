package region

import (
	"fmt"
	"image"
)

// LabelMask is an integer label image: 0 is background and every positive
// value identifies one object.
type LabelMask struct {
	Width  int
	Height int
	Labels []int32 // row-major, len == Width*Height
}

func NewLabelMask(width, height int) *LabelMask {
	return &LabelMask{
		Width:  width,
		Height: height,
		Labels: make([]int32, width*height),
	}
}

// NewLabelMaskFrom wraps an existing label slice. The slice is not copied.
func NewLabelMaskFrom(width, height int, labels []int32) (*LabelMask, error) {
	if len(labels) != width*height {
		return nil, fmt.Errorf("label slice holds %d values, need %d for %dx%d", len(labels), width*height, width, height)
	}
	return &LabelMask{Width: width, Height: height, Labels: labels}, nil
}

func (m *LabelMask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func (m *LabelMask) At(x, y int) int32 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Labels[y*m.Width+x]
}

func (m *LabelMask) Set(x, y int, v int32) {
	m.Labels[y*m.Width+x] = v
}

// NumLabels returns the number of distinct positive labels.
func (m *LabelMask) NumLabels() int {
	seen := map[int32]struct{}{}
	for _, v := range m.Labels {
		if v > 0 {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// Foreground returns the number of non-background pixels.
func (m *LabelMask) Foreground() int {
	n := 0
	for _, v := range m.Labels {
		if v > 0 {
			n++
		}
	}
	return n
}

// Relabel splits the mask into 8-connected components of equal non-zero value
// and numbers them 1..n in raster order. Two touching objects with different
// labels stay separate; one label split into two islands becomes two labels.
func Relabel(m *LabelMask) *LabelMask {
	out := NewLabelMask(m.Width, m.Height)
	var next int32
	queue := make([]int, 0, 64)

	for start, v := range m.Labels {
		if v <= 0 || out.Labels[start] != 0 {
			continue
		}
		next++
		out.Labels[start] = next
		queue = append(queue[:0], start)
		for k := 0; k < len(queue); k++ {
			idx := queue[k]
			x, y := idx%m.Width, idx/m.Width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if (dx == 0 && dy == 0) || nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
						continue
					}
					nidx := ny*m.Width + nx
					if m.Labels[nidx] != v || out.Labels[nidx] != 0 {
						continue
					}
					out.Labels[nidx] = next
					queue = append(queue, nidx)
				}
			}
		}
	}
	return out
}
