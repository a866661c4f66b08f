// Package classify maps measured regions to morphological categories.
package classify

import "github.com/cellframe/internal/region"

// Rules holds the thresholds of the classification heuristic.
type Rules struct {
	FragmentArea    int     `yaml:"fragmentArea"`    // regions smaller than this are fragments
	DeadCircularity float64 `yaml:"deadCircularity"` // end-stage regions rounder than this...
	DeadBrightness  float64 `yaml:"deadBrightness"`  // ...and darker than this are dead
}

func DefaultRules() Rules {
	return Rules{
		FragmentArea:    50,
		DeadCircularity: 0.8,
		DeadBrightness:  100,
	}
}

// Classify evaluates the rules in order; the first match wins.
func (r Rules) Classify(reg *region.Region, stage Stage) Category {
	if reg.Area < r.FragmentArea {
		return Fragment
	}
	switch stage {
	case StageStart:
		return CircularAlive
	case StageMiddle:
		return Fixed
	}
	if reg.Circularity() > r.DeadCircularity && reg.MeanIntensity < r.DeadBrightness {
		return CircularDead
	}
	return Fixed
}

// Classify uses DefaultRules.
func Classify(reg *region.Region, stage Stage) Category {
	return DefaultRules().Classify(reg, stage)
}
