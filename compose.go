package cellframe

import (
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"
)

// MatCompositor colorizes and blends frames with OpenCV.
type MatCompositor struct{}

func (MatCompositor) Colorize(gray *image.Gray) (*image.RGBA, error) {
	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(src, &bgr, gocv.ColorGrayToBGR)
	return matToRGBA(bgr)
}

func (MatCompositor) Blend(base image.Image, top *image.RGBA, alpha, beta float64) (*image.RGBA, error) {
	if base.Bounds().Size() != top.Bounds().Size() {
		return nil, fmt.Errorf("cannot blend %v with %v", base.Bounds().Size(), top.Bounds().Size())
	}
	a, err := gocv.ImageToMatRGB(base)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	b, err := gocv.ImageToMatRGB(top)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	out := gocv.NewMat()
	defer out.Close()
	gocv.AddWeighted(a, alpha, b, beta, 0, &out)
	return matToRGBA(out)
}

func matToRGBA(mat gocv.Mat) (*image.RGBA, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}
