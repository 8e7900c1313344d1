package analytics

// Grade is a percentage range bucket of the grade distribution.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// gradeBuckets are ordered by decreasing lower bound.
var gradeBuckets = []struct {
	min   float64
	grade Grade
	label string
}{
	{90, GradeAPlus, "A+ (90-100%)"},
	{80, GradeA, "A (80-89%)"},
	{70, GradeB, "B (70-79%)"},
	{60, GradeC, "C (60-69%)"},
	{50, GradeD, "D (50-59%)"},
}

// GradeOf classifies an unrounded percentage.
func GradeOf(pct float64) Grade {
	for _, b := range gradeBuckets {
		if pct >= b.min {
			return b.grade
		}
	}
	return GradeF
}

func (g Grade) Label() string {
	for _, b := range gradeBuckets {
		if b.grade == g {
			return b.label
		}
	}
	return "F (Below 50%)"
}

// RatingOf describes a student's average percentage.
func RatingOf(avg float64) string {
	switch {
	case avg >= 90:
		return "Excellent"
	case avg >= 80:
		return "Good"
	case avg >= 70:
		return "Average"
	case avg >= 60:
		return "Below Average"
	default:
		return "Needs Improvement"
	}
}
