package model

import "fmt"

// Level is the seniority class assigned to a job posting.
type Level string

// The three classes a labeled posting may carry.
const (
	LevelJunior Level = "Junior"
	LevelMiddle Level = "Middle"
	LevelSenior Level = "Senior"
)

// TargetColumn is the name of the label column added by the labeler.
const TargetColumn = "target_level"

// Levels returns all valid levels in their canonical order.
func Levels() []Level {
	return []Level{LevelJunior, LevelMiddle, LevelSenior}
}

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelJunior, LevelMiddle, LevelSenior:
		return true
	default:
		return false
	}
}

// String returns the level name.
func (l Level) String() string {
	return string(l)
}

// ParseLevel converts a label cell back into a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}
