package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/cellframe/internal/classify"
	"github.com/cellframe/internal/region"
	"github.com/stretchr/testify/require"
)

// testFrame builds a 40x40 gray frame with separated square cells.
func testFrame(t *testing.T) (*image.RGBA, []region.Region) {
	mask := region.NewLabelMask(40, 40)
	squares := []image.Rectangle{
		image.Rect(1, 1, 6, 6),
		image.Rect(10, 1, 20, 11),
		image.Rect(25, 25, 35, 35),
		image.Rect(1, 30, 3, 32),
	}
	for i, r := range squares {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				mask.Set(x, y, int32(i+1))
			}
		}
	}
	gray := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range gray.Pix {
		gray.Pix[i] = 90
	}
	regions, err := region.Extract(mask, gray)
	require.NoError(t, err)
	frame := image.NewRGBA(gray.Bounds())
	for i := range frame.Pix {
		frame.Pix[i] = 90
		if i%4 == 3 {
			frame.Pix[i] = 255
		}
	}
	return frame, regions
}

// countBlobs counts connected groups of non-black pixels.
func countBlobs(img *image.RGBA) int {
	b := img.Bounds()
	mask := region.NewLabelMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.RGBAAt(x, y)
			if c.R != 0 || c.G != 0 || c.B != 0 {
				mask.Set(x, y, 1)
			}
		}
	}
	return region.Relabel(mask).NumLabels()
}

func TestPaint(t *testing.T) {
	frame, regions := testFrame(t)
	cats := []classify.Category{classify.Fragment, classify.CircularAlive, classify.CircularAlive, classify.CircularDead}

	c, err := Paint(frame, regions, cats)
	require.NoError(t, err)

	require.Equal(t, classify.Fragment.Color(), c.Combined.RGBAAt(2, 2))
	require.Equal(t, classify.CircularAlive.Color(), c.Overlay.RGBAAt(12, 5))
	require.Equal(t, color.RGBA{90, 90, 90, 255}, c.Overlay.RGBAAt(39, 0))
	require.Equal(t, color.RGBA{0, 0, 0, 255}, c.Combined.RGBAAt(39, 0))
	require.Equal(t, color.RGBA{0, 0, 0, 255}, c.ByCategory[classify.Fixed].RGBAAt(12, 5))
	require.Equal(t, classify.CircularDead.Color(), c.ByCategory[classify.CircularDead].RGBAAt(1, 30))
	require.Same(t, frame, c.Overlay)
}

func TestPaintRejectsOffsetFrame(t *testing.T) {
	_, err := Paint(image.NewRGBA(image.Rect(1, 1, 4, 4)), nil, nil)
	require.Error(t, err)
}

func TestPaintRoundTrip(t *testing.T) {
	frame, regions := testFrame(t)
	cats := []classify.Category{classify.Fragment, classify.CircularAlive, classify.CircularAlive, classify.CircularDead}
	c, err := Paint(frame, regions, cats)
	require.NoError(t, err)

	want := map[classify.Category]int{}
	for _, cat := range cats {
		want[cat]++
	}
	for _, cat := range classify.Categories() {
		require.Equal(t, want[cat], countBlobs(c.ByCategory[cat]), cat.String())
	}
	require.Equal(t, len(regions), countBlobs(c.Combined))
}

func TestPaintLengthMismatch(t *testing.T) {
	frame, regions := testFrame(t)
	_, err := Paint(frame, regions, nil)
	require.Error(t, err)
}

func TestGrayOf(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(5, 5, 7, 6))
	rgba.SetRGBA(5, 5, color.RGBA{255, 255, 255, 255})
	g := GrayOf(rgba)
	require.Equal(t, image.Rect(0, 0, 2, 1), g.Bounds())
	require.Equal(t, uint8(255), g.GrayAt(0, 0).Y)
	require.Equal(t, uint8(0), g.GrayAt(1, 0).Y)

	same := image.NewGray(image.Rect(0, 0, 3, 3))
	require.Same(t, same, GrayOf(same))
}

func TestLabelColors(t *testing.T) {
	mask := region.NewLabelMask(3, 1)
	mask.Set(0, 0, 1)
	mask.Set(1, 0, 2)
	img := LabelColors(mask)
	require.Equal(t, LabelColor(1), img.RGBAAt(0, 0))
	require.Equal(t, LabelColor(2), img.RGBAAt(1, 0))
	require.NotEqual(t, LabelColor(1), LabelColor(2))
	require.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(2, 0))
}

func TestCaption(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	Caption(img, []string{"frame 1", "alive 3"})
	// the box darkens the transparent canvas to a visible alpha
	require.NotEqual(t, uint8(0), img.RGBAAt(1, 1).A)
	Caption(img, nil)
}
