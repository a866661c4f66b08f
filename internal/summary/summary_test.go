package summary

import (
	"bytes"
	"image"
	"math"
	"strings"
	"testing"

	"github.com/cellframe/internal/classify"
	"github.com/cellframe/internal/region"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorStartStage(t *testing.T) {
	regions := []region.Region{
		{Label: 1, Area: 10, Perimeter: 10, MeanIntensity: 40},
		{Label: 2, Area: 80, Perimeter: 30, MeanIntensity: 100},
		{Label: 3, Area: 200, Perimeter: 50, MeanIntensity: 140},
	}
	var acc Accumulator
	var cats []classify.Category
	for i := range regions {
		c := classify.Classify(&regions[i], classify.StageStart)
		cats = append(cats, c)
		acc.Add(c, &regions[i])
	}
	require.Equal(t, []classify.Category{classify.Fragment, classify.CircularAlive, classify.CircularAlive}, cats)

	row := acc.Row(0, "frame_000.jpg")
	require.Equal(t, "frame_000.jpg", row.Frame)
	require.Equal(t, 1, row.Stats[classify.Fragment].Count)
	require.Equal(t, 2, row.Stats[classify.CircularAlive].Count)
	require.Equal(t, len(regions), row.Total())
	require.InDelta(t, 140.0, row.Stats[classify.CircularAlive].AvgArea, 1e-9)
	require.InDelta(t, 120.0, row.Stats[classify.CircularAlive].AvgBrightness, 1e-9)
	require.InDelta(t, 10.0, row.Stats[classify.Fragment].AvgArea, 1e-9)
}

func TestEmptyCategoriesAreZero(t *testing.T) {
	var acc Accumulator
	row := acc.Row(3, "empty")
	for _, s := range row.Stats {
		require.Equal(t, CategoryStats{}, s)
		require.False(t, math.IsNaN(s.AvgArea))
		require.False(t, math.IsNaN(s.AvgBrightness))
	}
	require.Equal(t, 0, row.Total())
}

func TestMeasure(t *testing.T) {
	mask := region.NewLabelMask(4, 2)
	gray := image.NewGray(image.Rect(0, 0, 4, 2))
	copy(gray.Pix, []uint8{
		10, 20, 0, 0,
		0, 30, 0, 200,
	})
	mask.Set(0, 0, 1)
	mask.Set(1, 0, 1)
	mask.Set(1, 1, 1)
	mask.Set(3, 1, 4)

	row := Measure(7, mask, gray)
	require.Equal(t, 7, row.Frame)
	require.Equal(t, 2, row.NumObjects)
	require.InDelta(t, 2.0, row.AvgArea, 1e-9)
	// pixel weighted: (10+20+30+200)/4
	require.InDelta(t, 65.0, row.AvgBrightness, 1e-9)
}

func TestMeasureEmpty(t *testing.T) {
	row := Measure(0, region.NewLabelMask(3, 3), image.NewGray(image.Rect(0, 0, 3, 3)))
	require.Equal(t, MetricsRow{}, row)
}

func TestWriteFrameCSV(t *testing.T) {
	var acc Accumulator
	acc.Add(classify.Fixed, &region.Region{Area: 100, MeanIntensity: 50})
	acc.Add(classify.Fixed, &region.Region{Area: 101, MeanIntensity: 51})
	rows := []FrameRow{acc.Row(0, "a.jpg"), (&Accumulator{}).Row(1, "b.jpg")}

	var buf bytes.Buffer
	require.NoError(t, WriteFrameCSV(&buf, rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Frame,"+
		"Circular_alive_count,Circular_alive_avg_area,Circular_alive_avg_brightness,"+
		"Fixed_count,Fixed_avg_area,Fixed_avg_brightness,"+
		"Circular_dead_count,Circular_dead_avg_area,Circular_dead_avg_brightness,"+
		"Fragment_count,Fragment_avg_area,Fragment_avg_brightness", lines[0])
	require.Equal(t, "a.jpg,0,0,0,2,100.5,50.5,0,0,0,0,0,0", lines[1])
	require.Equal(t, "b.jpg,0,0,0,0,0,0,0,0,0,0,0,0", lines[2])
}

func TestWriteMetricsCSV(t *testing.T) {
	rows := []MetricsRow{{Frame: 0, NumObjects: 3, AvgArea: 12.5, AvgBrightness: 99}, {Frame: 1}}
	var buf bytes.Buffer
	require.NoError(t, WriteMetricsCSV(&buf, rows))
	require.Equal(t, "Frame,NumCells,AvgArea,AvgBrightness\n0,3,12.5,99\n1,0,0,0\n", buf.String())
}

func TestMeasurements(t *testing.T) {
	var acc Accumulator
	acc.Add(classify.CircularDead, &region.Region{Area: 300, MeanIntensity: 20})
	row := acc.Row(5, "f5")
	ms := row.Measurements()
	require.Len(t, ms, classify.NumCategories)
	require.Equal(t, "Circular_dead", ms[2].Category)
	require.Equal(t, 1, ms[2].Count)
	require.Equal(t, 5, ms[2].FrameIndex)

	m := (&MetricsRow{Frame: 2, NumObjects: 4}).Measurement("2")
	require.Equal(t, AllObjects, m.Category)
	require.Equal(t, 4, m.Count)
}
