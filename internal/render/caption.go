package render

import (
	"image"

	"github.com/fogleman/gg"
)

const captionLineHeight = 15

// Caption draws lines of text in a translucent box at the top left of img.
func Caption(img *image.RGBA, lines []string) {
	if len(lines) == 0 {
		return
	}
	dc := gg.NewContextForRGBA(img)
	width := 0.0
	for _, l := range lines {
		if w, _ := dc.MeasureString(l); w > width {
			width = w
		}
	}
	dc.SetRGBA(0, 0, 0, 0.6)
	dc.DrawRectangle(0, 0, width+8, float64(len(lines)*captionLineHeight+6))
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	for i, l := range lines {
		dc.DrawString(l, 4, float64((i+1)*captionLineHeight))
	}
}
