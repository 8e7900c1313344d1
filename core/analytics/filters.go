package analytics

import (
	"errors"
	"time"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/score"
)

// AllSubjects disables the subject filter.
const AllSubjects = "all"

type Timeframe string

const (
	TimeframeAll     Timeframe = "all"
	TimeframeWeek    Timeframe = "week"
	TimeframeMonth   Timeframe = "month"
	TimeframeQuarter Timeframe = "quarter"
)

var (
	ErrInvalidTimeframe = errors.New("timeframe must be one of all, week, month or quarter")

	timeframeDays = map[Timeframe]int{
		TimeframeWeek:    7,
		TimeframeMonth:   30,
		TimeframeQuarter: 90,
	}
)

// ParseTimeframe maps a query value to a Timeframe; the empty string means TimeframeAll.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(core.CleanString(s, true /* lower */))
	if tf == "" || tf == TimeframeAll {
		return TimeframeAll, nil
	}
	if _, ok := timeframeDays[tf]; ok {
		return tf, nil
	}
	return "", ErrInvalidTimeframe
}

// Days returns the window length, false for TimeframeAll.
func (tf Timeframe) Days() (int, bool) {
	days, ok := timeframeDays[tf]
	return days, ok
}

// Filters narrows the working set of scores. Now is the reference point of the timeframe window
// and Location the zone trend days are bucketed in (UTC when nil).
type Filters struct {
	Subject   string
	Timeframe Timeframe
	Now       time.Time
	Location  *time.Location
}

func (f Filters) location() *time.Location {
	if f.Location == nil {
		return time.UTC
	}
	return f.Location
}

// cutoff is the earliest test date inside the timeframe window.
func (f Filters) cutoff() (time.Time, bool) {
	days, ok := f.Timeframe.Days()
	if !ok {
		return time.Time{}, false
	}
	return f.Now.Add(-time.Duration(days) * 24 * time.Hour), true
}

func (f Filters) subjectFiltered() bool {
	return f.Subject != "" && f.Subject != AllSubjects
}

// Filter returns the scores matching both the subject and the timeframe of f, in input order.
// The input slice is left untouched.
func Filter(scores []score.Score, f Filters) []score.Score {
	cutoff, windowed := f.cutoff()
	bySubject := f.subjectFiltered()

	filtered := make([]score.Score, 0, len(scores))
	for _, sc := range scores {
		if bySubject && sc.Subject != f.Subject {
			continue
		}
		if windowed && sc.TestDate.Before(cutoff) {
			continue
		}
		filtered = append(filtered, sc)
	}
	return filtered
}
