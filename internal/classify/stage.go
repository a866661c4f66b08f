package classify

import "fmt"

// Stage is the coarse position of a frame within the recording.
type Stage int

const (
	StageStart Stage = iota
	StageMiddle
	StageEnd
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageMiddle:
		return "middle"
	case StageEnd:
		return "end"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

func ParseStage(s string) (Stage, error) {
	switch s {
	case "start":
		return StageStart, nil
	case "middle":
		return StageMiddle, nil
	case "end":
		return StageEnd, nil
	}
	return 0, fmt.Errorf("unknown stage %q (want start, middle or end)", s)
}

// StageOf assigns a stage to frame index of total frames. The boundaries are
// floor(0.33*total) and floor(0.66*total), both inclusive on the earlier stage.
func StageOf(index, total int) Stage {
	first := int(float64(total) * 0.33)
	second := int(float64(total) * 0.66)
	switch {
	case index <= first:
		return StageStart
	case index <= second:
		return StageMiddle
	default:
		return StageEnd
	}
}
