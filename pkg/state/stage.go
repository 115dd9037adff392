package state

import "fmt"

// Stage is an ordered lifecycle phase of a governed project. Code generation
// is permitted only in StageS5.
type Stage string

const (
	// StageS1 is project initialization.
	StageS1 Stage = "S1"

	// StageS2 is requirements development.
	StageS2 Stage = "S2"

	// StageS3 is architecture review. An architecture break from S5 resets
	// the project here.
	StageS3 Stage = "S3"

	// StageS4 is the audit stage. It must be frozen before S5 is reachable.
	StageS4 Stage = "S4"

	// StageS5 is implementation. The only stage where source writes and code
	// generation are allowed.
	StageS5 Stage = "S5"
)

// stageOrder fixes the forward-only progression S1 -> S2 -> S3 -> S4 -> S5.
var stageOrder = []Stage{StageS1, StageS2, StageS3, StageS4, StageS5}

// Valid reports whether s is one of the five known stages.
func (s Stage) Valid() bool {
	return s.index() >= 0
}

func (s Stage) index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the stage that follows s in the lifecycle, and false when s is
// the final stage or invalid.
func (s Stage) Next() (Stage, bool) {
	i := s.index()
	if i < 0 || i >= len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[i+1], true
}

// Before reports whether s comes strictly before other in the lifecycle.
func (s Stage) Before(other Stage) bool {
	si, oi := s.index(), other.index()
	return si >= 0 && oi >= 0 && si < oi
}

// ParseStage converts a string into a Stage, rejecting unknown values.
func ParseStage(v string) (Stage, error) {
	s := Stage(v)
	if !s.Valid() {
		return "", fmt.Errorf("invalid stage %q", v)
	}
	return s, nil
}
