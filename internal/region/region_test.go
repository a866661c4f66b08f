package region

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func fillRect(m *LabelMask, r image.Rectangle, v int32) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, v)
		}
	}
}

func uniformGray(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

func TestExtractSquare(t *testing.T) {
	m := NewLabelMask(20, 20)
	fillRect(m, image.Rect(5, 5, 15, 15), 1)
	gray := uniformGray(20, 20, 80)

	regions, err := Extract(m, gray)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	r := regions[0]
	require.Equal(t, int32(1), r.Label)
	require.Equal(t, 100, r.Area)
	require.Len(t, r.Coords, 100)
	require.InDelta(t, 36.0, r.Perimeter, 1e-9)
	require.InDelta(t, 80.0, r.MeanIntensity, 1e-9)
	require.Equal(t, image.Rect(5, 5, 15, 15), r.Bounds)
}

func TestPerimeterFloor(t *testing.T) {
	m := NewLabelMask(5, 5)
	m.Set(2, 2, 7)
	regions, err := Extract(m, uniformGray(5, 5, 0))
	require.NoError(t, err)
	require.Len(t, regions, 1)
	require.Equal(t, 1, regions[0].Area)
	require.Equal(t, 1.0, regions[0].Perimeter)
}

func TestPerimeterSmallShapes(t *testing.T) {
	cases := []struct {
		name string
		rect image.Rectangle
		want float64
	}{
		{"2x2", image.Rect(1, 1, 3, 3), 4},
		{"line", image.Rect(1, 1, 6, 2), 3},
		{"touches image edge", image.Rect(0, 0, 4, 4), 12},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := NewLabelMask(8, 8)
			fillRect(m, c.rect, 3)
			regions, err := Extract(m, uniformGray(8, 8, 0))
			require.NoError(t, err)
			require.InDelta(t, c.want, regions[0].Perimeter, 1e-9)
		})
	}
}

func TestExtractMeanIntensity(t *testing.T) {
	m := NewLabelMask(4, 1)
	m.Set(0, 0, 2)
	m.Set(1, 0, 2)
	m.Set(3, 0, 5)
	gray := image.NewGray(image.Rect(0, 0, 4, 1))
	gray.SetGray(0, 0, color.Gray{Y: 10})
	gray.SetGray(1, 0, color.Gray{Y: 30})
	gray.SetGray(3, 0, color.Gray{Y: 200})

	regions, err := Extract(m, gray)
	require.NoError(t, err)
	require.Len(t, regions, 2)
	require.Equal(t, int32(2), regions[0].Label)
	require.InDelta(t, 20.0, regions[0].MeanIntensity, 1e-9)
	require.Equal(t, int32(5), regions[1].Label)
	require.InDelta(t, 200.0, regions[1].MeanIntensity, 1e-9)
}

func TestExtractAreaCoversForeground(t *testing.T) {
	m := NewLabelMask(30, 30)
	fillRect(m, image.Rect(0, 0, 3, 3), 1)
	fillRect(m, image.Rect(10, 10, 20, 18), 2)
	fillRect(m, image.Rect(25, 2, 27, 29), 3)

	regions, err := Extract(m, uniformGray(30, 30, 1))
	require.NoError(t, err)
	total := 0
	for _, r := range regions {
		total += r.Area
	}
	require.Equal(t, m.Foreground(), total)
	require.Equal(t, 3, m.NumLabels())
}

func TestExtractSizeMismatch(t *testing.T) {
	_, err := Extract(NewLabelMask(4, 4), uniformGray(5, 4, 0))
	require.Error(t, err)
}

func TestRelabel(t *testing.T) {
	m := NewLabelMask(10, 5)
	// one label value split into two islands
	fillRect(m, image.Rect(0, 0, 2, 2), 9)
	fillRect(m, image.Rect(6, 0, 8, 2), 9)
	// two different labels touching
	fillRect(m, image.Rect(0, 3, 3, 5), 4)
	fillRect(m, image.Rect(3, 3, 5, 5), 5)
	// diagonal neighbours join under 8-connectivity
	m.Set(9, 3, 1)
	m.Set(8, 4, 1)

	out := Relabel(m)
	require.Equal(t, 5, out.NumLabels())
	require.Equal(t, int32(1), out.At(0, 0))
	require.Equal(t, int32(2), out.At(6, 0))
	require.NotEqual(t, out.At(2, 3), out.At(3, 3))
	require.Equal(t, out.At(9, 3), out.At(8, 4))
	require.Equal(t, int32(0), out.At(5, 0))
}

func TestCircularity(t *testing.T) {
	r := Region{Area: 500, Perimeter: 79.5}
	require.InDelta(t, 4*math.Pi*500/(79.5*79.5), r.Circularity(), 1e-12)
	require.Greater(t, r.Circularity(), 0.99)
}

func TestNewLabelMaskFrom(t *testing.T) {
	labels := []int32{0, 1, 1, 0, 2, 0}
	m, err := NewLabelMaskFrom(3, 2, labels)
	require.NoError(t, err)
	require.Equal(t, int32(1), m.At(1, 0))
	require.Equal(t, int32(2), m.At(1, 1))
	require.Equal(t, 2, m.NumLabels())

	// the slice is shared, not copied
	labels[0] = 7
	require.Equal(t, int32(7), m.At(0, 0))

	_, err = NewLabelMaskFrom(4, 2, labels)
	require.Error(t, err)
}
