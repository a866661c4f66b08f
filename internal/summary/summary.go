// Package summary accumulates per-frame object statistics and writes them
// as tables.
package summary

import (
	"image"

	"github.com/cellframe/internal/classify"
	"github.com/cellframe/internal/region"
)

type CategoryStats struct {
	Count         int
	AvgArea       float64
	AvgBrightness float64
}

// FrameRow is the summary of one frame in classification mode.
type FrameRow struct {
	Index int // position in the input sequence
	Frame string
	Stats [classify.NumCategories]CategoryStats
}

// Total returns the number of objects over all categories.
func (r *FrameRow) Total() int {
	n := 0
	for _, s := range r.Stats {
		n += s.Count
	}
	return n
}

type tally struct {
	count         int
	areaSum       float64
	brightnessSum float64
}

// Accumulator gathers the classified regions of a single frame.
type Accumulator struct {
	tallies [classify.NumCategories]tally
}

func (a *Accumulator) Add(cat classify.Category, r *region.Region) {
	t := &a.tallies[cat]
	t.count++
	t.areaSum += float64(r.Area)
	t.brightnessSum += r.MeanIntensity
}

// Row converts the running sums into averages. Categories without regions
// report zeros.
func (a *Accumulator) Row(index int, frame string) FrameRow {
	row := FrameRow{Index: index, Frame: frame}
	for i, t := range a.tallies {
		if t.count == 0 {
			continue
		}
		row.Stats[i] = CategoryStats{
			Count:         t.count,
			AvgArea:       t.areaSum / float64(t.count),
			AvgBrightness: t.brightnessSum / float64(t.count),
		}
	}
	return row
}

// MetricsRow is the summary of one frame when objects are not classified.
type MetricsRow struct {
	Frame         int
	NumObjects    int
	AvgArea       float64
	AvgBrightness float64
}

// Measure computes the uncategorized metrics of a frame: the number of
// distinct labels, the mean label area, and the mean gray value over every
// foreground pixel.
func Measure(index int, mask *region.LabelMask, gray *image.Gray) MetricsRow {
	row := MetricsRow{Frame: index}
	b := gray.Bounds()
	areas := map[int32]int{}
	var sum float64
	var pixels int
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			v := mask.Labels[y*mask.Width+x]
			if v <= 0 {
				continue
			}
			areas[v]++
			pixels++
			sum += float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		}
	}
	if pixels == 0 {
		return row
	}
	row.NumObjects = len(areas)
	row.AvgArea = float64(pixels) / float64(len(areas))
	row.AvgBrightness = sum / float64(pixels)
	return row
}

// Measurement is one (frame, category) cell of a summary in long form.
type Measurement struct {
	FrameIndex    int
	Frame         string
	Category      string
	Count         int
	AvgArea       float64
	AvgBrightness float64
}

// AllObjects is the category name used for uncategorized measurements.
const AllObjects = "all"

func (r *FrameRow) Measurements() []Measurement {
	out := make([]Measurement, 0, classify.NumCategories)
	for _, c := range classify.Categories() {
		s := r.Stats[c]
		out = append(out, Measurement{
			FrameIndex:    r.Index,
			Frame:         r.Frame,
			Category:      c.String(),
			Count:         s.Count,
			AvgArea:       s.AvgArea,
			AvgBrightness: s.AvgBrightness,
		})
	}
	return out
}

func (r *MetricsRow) Measurement(frame string) Measurement {
	return Measurement{
		FrameIndex:    r.Frame,
		Frame:         frame,
		Category:      AllObjects,
		Count:         r.NumObjects,
		AvgArea:       r.AvgArea,
		AvgBrightness: r.AvgBrightness,
	}
}
