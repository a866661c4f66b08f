package summary

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cellframe/internal/classify"
)

// FrameColumns is the header of the classification summary.
func FrameColumns() []string {
	cols := []string{"Frame"}
	for _, c := range classify.Categories() {
		cols = append(cols, c.String()+"_count", c.String()+"_avg_area", c.String()+"_avg_brightness")
	}
	return cols
}

var MetricsColumns = []string{"Frame", "NumCells", "AvgArea", "AvgBrightness"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func WriteFrameCSV(w io.Writer, rows []FrameRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FrameColumns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		rec := []string{row.Frame}
		for _, s := range row.Stats {
			rec = append(rec, strconv.Itoa(s.Count), formatFloat(s.AvgArea), formatFloat(s.AvgBrightness))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write frame %s: %w", row.Frame, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteMetricsCSV(w io.Writer, rows []MetricsRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MetricsColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		rec := []string{
			strconv.Itoa(row.Frame),
			strconv.Itoa(row.NumObjects),
			formatFloat(row.AvgArea),
			formatFloat(row.AvgBrightness),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", row.Frame, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
