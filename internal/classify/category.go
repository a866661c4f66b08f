package classify

import (
	"fmt"
	"image/color"
)

// Category is the coarse morphological class of a segmented object.
// The numeric order is the column, colour and video order everywhere.
type Category int

const (
	CircularAlive Category = iota
	Fixed
	CircularDead
	Fragment

	NumCategories = 4
)

var categoryNames = [NumCategories]string{
	"Circular_alive",
	"Fixed",
	"Circular_dead",
	"Fragment",
}

var categoryColors = [NumCategories]color.RGBA{
	{R: 0, G: 255, B: 0, A: 255},   // green
	{R: 0, G: 255, B: 255, A: 255}, // cyan
	{R: 255, G: 0, B: 0, A: 255},   // red
	{R: 255, G: 0, B: 255, A: 255}, // magenta
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CircularAlive, Fixed, CircularDead, Fragment}
}

func (c Category) String() string {
	if c < 0 || int(c) >= NumCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

func (c Category) Color() color.RGBA {
	return categoryColors[c]
}

func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}
