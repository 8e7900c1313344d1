package score

import (
	"math"
	"strconv"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/artlearn/core"
)

var (
	// errors
	ErrInvalidMarks = errors.New("marks are not a valid non-negative number")
	ErrZeroMaxMarks = errors.New("max marks must be greater than zero")

	marksExceedTag  = "marksltemax"
	marksExceedText = "marks cannot be greater than max marks"

	maxMarksZeroTag  = "maxmarksgt0"
	maxMarksZeroText = "max marks must be greater than zero"

	testDateLayouts = []string{"2006-01-02", time.RFC3339}
)

type Score struct {
	ID          int         `json:"id" db:"id"`
	StudentID   int         `json:"studentId" db:"student_id"`
	StudentName null.String `json:"studentName" db:"student_name"`
	Subject     string      `json:"subject" db:"subject"`
	Marks       string      `json:"marks" db:"marks"`
	MaxMarks    string      `json:"maxMarks" db:"max_marks"`
	TestDate    time.Time   `json:"testDate" db:"test_date"`
	EnteredBy   int         `json:"enteredBy" db:"entered_by"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"` // UTC
}

// Percentage returns marks / maxMarks * 100.
// Unparsable or negative values yield ErrInvalidMarks; a zero maxMarks yields ErrZeroMaxMarks.
func (s Score) Percentage() (float64, error) {
	return Percentage(s.Marks, s.MaxMarks)
}

func Percentage(marks, maxMarks string) (float64, error) {
	m, err := parseMarks(marks)
	if err != nil {
		return 0, errors.Wrap(err, "marks")
	}
	mm, err := parseMarks(maxMarks)
	if err != nil {
		return 0, errors.Wrap(err, "max marks")
	}
	if mm == 0 {
		return 0, ErrZeroMaxMarks
	}
	return m / mm * 100, nil
}

func parseMarks(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidMarks
	}
	return v, nil
}

// FormatDecimal normalises a decimal string to 2 decimal places ("45" -> "45.00").
// Unparsable input is returned untouched.
func FormatDecimal(s string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return s
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// NewScore contains information needed to record a new Score.
// One of StudentID or StudentName is required; an unknown StudentName creates the Student.
type NewScore struct {
	StudentID   int       `json:"studentId" validate:"required_without=StudentName,gte=0"`
	StudentName string    `json:"studentName" validate:"omitempty,max=255"`
	Subject     string    `json:"subject" validate:"required,notblank,max=255"`
	Marks       string    `json:"marks" validate:"required,decimal"`
	MaxMarks    string    `json:"maxMarks" validate:"required,decimal"`
	TestDate    time.Time `json:"testDate" validate:"required"`
}

func (ns *NewScore) Validate(validate *validator.Validate) error {
	ns.StudentName = core.CleanString(ns.StudentName)
	ns.Subject = core.CleanString(ns.Subject)
	ns.Marks = core.CleanString(ns.Marks)
	ns.MaxMarks = core.CleanString(ns.MaxMarks)
	return validate.Struct(ns)
}

// ParseTestDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseTestDate(s string) (time.Time, error) {
	s = core.CleanString(s)
	for _, layout := range testDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

type QueryFilter struct {
	Subject   string `query:"subject"`
	StudentID int    `query:"studentId"`
}

func (qf *QueryFilter) Clean() {
	qf.Subject = core.CleanString(qf.Subject)
}

// InitValidators registers NewScore's struct level validation.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(newScoreStructValidation, NewScore{})
	core.RegisterCustomTranslation(validate, translator, marksExceedTag, marksExceedText)
	core.RegisterCustomTranslation(validate, translator, maxMarksZeroTag, maxMarksZeroText)
}

// newScoreStructValidation checks 0 < maxMarks and marks <= maxMarks.
// Malformed numbers are left to the field level `decimal` tag.
func newScoreStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewScore)
	if !ok {
		return
	}
	m, err := parseMarks(ns.Marks)
	if err != nil {
		return
	}
	mm, err := parseMarks(ns.MaxMarks)
	if err != nil {
		return
	}
	if mm == 0 {
		sl.ReportError(ns.MaxMarks, "maxMarks", "MaxMarks", maxMarksZeroTag, "")
		return
	}
	if m > mm {
		sl.ReportError(ns.Marks, "marks", "Marks", marksExceedTag, "")
	}
}
