package enums

import "fmt"

// EggGrade is the quality grade assigned to a scanned egg.
type EggGrade string

const (
	EggGradeA EggGrade = "A"
	EggGradeB EggGrade = "B"
	EggGradeC EggGrade = "C"
)

var validEggGrades = []EggGrade{
	EggGradeA,
	EggGradeB,
	EggGradeC,
}

// Grades returns every known grade in display order.
func Grades() []EggGrade {
	out := make([]EggGrade, len(validEggGrades))
	copy(out, validEggGrades)
	return out
}

// String implements fmt.Stringer.
func (g EggGrade) String() string {
	return string(g)
}

// IsValid reports whether the value is a known EggGrade.
func (g EggGrade) IsValid() bool {
	for _, candidate := range validEggGrades {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseEggGrade converts raw input into an EggGrade.
func ParseEggGrade(value string) (EggGrade, error) {
	for _, candidate := range validEggGrades {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid egg grade %q", value)
}
