// Package analytics turns flat score records into the derived views of the performance dashboard:
// subject averages, grade distribution, trends over time and the student leaderboard.
//
// Every function is pure. Percentages are kept unrounded internally; Percent rounds to 2 decimals
// only when marshalled.
package analytics

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/trezcool/artlearn/core/score"
	"github.com/trezcool/artlearn/core/student"
)

// LeaderboardSize is the maximum number of leaderboard entries.
const LeaderboardSize = 10

const trendDateLayout = "2006-01-02"

// Percent is a percentage rendered with 2 decimal places.
type Percent float64

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(Round(float64(p)), 'f', 2, 64)), nil
}

// Round rounds v to 2 decimal places.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

type (
	Summary struct {
		TotalScores int     `json:"totalScores"`
		Average     Percent `json:"average"`
		Students    int     `json:"students"`
		Subjects    int     `json:"subjects"`
	}

	SubjectStat struct {
		Subject string  `json:"subject"`
		Average Percent `json:"average"`
		Count   int     `json:"count"`
	}

	TrendPoint struct {
		Date    string  `json:"date"`
		Average Percent `json:"average"`
		Count   int     `json:"count"`
	}

	GradeCount struct {
		Grade Grade  `json:"grade"`
		Label string `json:"label"`
		Count int    `json:"count"`
	}

	StudentStat struct {
		StudentID int     `json:"studentId"`
		Name      string  `json:"name"`
		Average   Percent `json:"average"`
		Count     int     `json:"count"`
		Rating    string  `json:"rating"`
	}

	// Warning reports a score excluded from aggregation.
	Warning struct {
		ScoreID int    `json:"scoreId"`
		Reason  string `json:"reason"`
	}

	Views struct {
		Subject            string        `json:"subject"`
		Timeframe          Timeframe     `json:"timeframe"`
		AvailableSubjects  []string      `json:"availableSubjects"`
		Summary            Summary       `json:"summary"`
		SubjectPerformance []SubjectStat `json:"subjectPerformance"`
		Trends             []TrendPoint  `json:"trends"`
		GradeDistribution  []GradeCount  `json:"gradeDistribution"`
		Leaderboard        []StudentStat `json:"leaderboard"`
		Skipped            int           `json:"skipped"`
		Warnings           []Warning     `json:"warnings"`
	}
)

// rated is a score whose percentage could be computed.
type rated struct {
	score.Score
	pct float64
}

type mean struct {
	sum   float64
	count int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.count++
}

func (m mean) value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Percentage is score.Score.Percentage, exposed for callers that only import analytics.
func Percentage(sc score.Score) (float64, error) {
	return sc.Percentage()
}

// rate splits scores into rated ones and warnings for the ones carrying invalid marks.
func rate(scores []score.Score) ([]rated, []Warning) {
	valid := make([]rated, 0, len(scores))
	warnings := make([]Warning, 0)
	for _, sc := range scores {
		pct, err := sc.Percentage()
		if err != nil {
			warnings = append(warnings, Warning{ScoreID: sc.ID, Reason: err.Error()})
			continue
		}
		valid = append(valid, rated{Score: sc, pct: pct})
	}
	return valid, warnings
}

// Aggregate filters scores with f and computes every view over the valid filtered records.
func Aggregate(scores []score.Score, students []student.Student, f Filters) Views {
	tf := f.Timeframe
	if tf == "" {
		tf = TimeframeAll
	}
	subject := f.Subject
	if subject == "" {
		subject = AllSubjects
	}

	valid, warnings := rate(Filter(scores, f))
	return Views{
		Subject:            subject,
		Timeframe:          tf,
		AvailableSubjects:  distinctSubjects(scores),
		Summary:            summarize(valid),
		SubjectPerformance: subjectPerformance(valid),
		Trends:             trends(valid, f.location()),
		GradeDistribution:  gradeDistribution(valid),
		Leaderboard:        leaderboard(valid, students),
		Skipped:            len(warnings),
		Warnings:           warnings,
	}
}

// SubjectPerformance averages the valid scores per subject, in first-seen subject order.
func SubjectPerformance(scores []score.Score) []SubjectStat {
	valid, _ := rate(scores)
	return subjectPerformance(valid)
}

// Trends averages the valid scores per calendar day of loc, in chronological order.
func Trends(scores []score.Score, loc *time.Location) []TrendPoint {
	if loc == nil {
		loc = time.UTC
	}
	valid, _ := rate(scores)
	return trends(valid, loc)
}

// GradeDistribution counts the valid scores per grade bucket, in first-seen bucket order.
func GradeDistribution(scores []score.Score) []GradeCount {
	valid, _ := rate(scores)
	return gradeDistribution(valid)
}

// Leaderboard ranks students by their average over the valid scores, best first, top LeaderboardSize.
// Students without scores are left out; ties keep the students order.
func Leaderboard(scores []score.Score, students []student.Student) []StudentStat {
	valid, _ := rate(scores)
	return leaderboard(valid, students)
}

func distinctSubjects(scores []score.Score) []string {
	seen := make(map[string]struct{})
	subjects := make([]string, 0)
	for _, sc := range scores {
		if _, ok := seen[sc.Subject]; !ok {
			seen[sc.Subject] = struct{}{}
			subjects = append(subjects, sc.Subject)
		}
	}
	return subjects
}

func summarize(valid []rated) Summary {
	var total mean
	students := make(map[int]struct{})
	subjects := make(map[string]struct{})
	for _, r := range valid {
		total.add(r.pct)
		students[r.StudentID] = struct{}{}
		subjects[r.Subject] = struct{}{}
	}
	return Summary{
		TotalScores: total.count,
		Average:     Percent(total.value()),
		Students:    len(students),
		Subjects:    len(subjects),
	}
}

func subjectPerformance(valid []rated) []SubjectStat {
	order := make([]string, 0)
	groups := make(map[string]*mean)
	for _, r := range valid {
		m, ok := groups[r.Subject]
		if !ok {
			m = new(mean)
			groups[r.Subject] = m
			order = append(order, r.Subject)
		}
		m.add(r.pct)
	}

	stats := make([]SubjectStat, 0, len(order))
	for _, subject := range order {
		m := groups[subject]
		stats = append(stats, SubjectStat{Subject: subject, Average: Percent(m.value()), Count: m.count})
	}
	return stats
}

func trends(valid []rated, loc *time.Location) []TrendPoint {
	sorted := make([]rated, len(valid))
	copy(sorted, valid)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TestDate.Before(sorted[j].TestDate) })

	order := make([]string, 0)
	groups := make(map[string]*mean)
	for _, r := range sorted {
		day := trendDay(r.TestDate, loc)
		m, ok := groups[day]
		if !ok {
			m = new(mean)
			groups[day] = m
			order = append(order, day)
		}
		m.add(r.pct)
	}

	points := make([]TrendPoint, 0, len(order))
	for _, day := range order {
		m := groups[day]
		points = append(points, TrendPoint{Date: day, Average: Percent(m.value()), Count: m.count})
	}
	return points
}

// trendDay formats the calendar day of t in loc. A date-only test date (UTC midnight)
// keeps its own day whatever loc is.
func trendDay(t time.Time, loc *time.Location) string {
	utc := t.UTC()
	if utc.Hour() == 0 && utc.Minute() == 0 && utc.Second() == 0 && utc.Nanosecond() == 0 {
		return utc.Format(trendDateLayout)
	}
	return t.In(loc).Format(trendDateLayout)
}

func gradeDistribution(valid []rated) []GradeCount {
	order := make([]Grade, 0, len(gradeBuckets))
	counts := make(map[Grade]int)
	for _, r := range valid {
		g := GradeOf(r.pct)
		if _, ok := counts[g]; !ok {
			order = append(order, g)
		}
		counts[g]++
	}

	dist := make([]GradeCount, 0, len(order))
	for _, g := range order {
		dist = append(dist, GradeCount{Grade: g, Label: g.Label(), Count: counts[g]})
	}
	return dist
}

func leaderboard(valid []rated, students []student.Student) []StudentStat {
	perStudent := make(map[int]*mean)
	for _, r := range valid {
		m, ok := perStudent[r.StudentID]
		if !ok {
			m = new(mean)
			perStudent[r.StudentID] = m
		}
		m.add(r.pct)
	}

	type ranked struct {
		StudentStat
		avg float64
	}
	board := make([]ranked, 0, len(perStudent))
	seen := make(map[int]struct{}, len(students))
	for _, std := range students {
		if _, dup := seen[std.ID]; dup {
			continue
		}
		seen[std.ID] = struct{}{}

		m, ok := perStudent[std.ID]
		if !ok || m.count == 0 {
			continue
		}
		avg := m.value()
		board = append(board, ranked{
			StudentStat: StudentStat{
				StudentID: std.ID,
				Name:      std.Name,
				Average:   Percent(avg),
				Count:     m.count,
				Rating:    RatingOf(avg),
			},
			avg: avg,
		})
	}
	sort.SliceStable(board, func(i, j int) bool { return board[i].avg > board[j].avg })

	if len(board) > LeaderboardSize {
		board = board[:LeaderboardSize]
	}
	stats := make([]StudentStat, 0, len(board))
	for _, r := range board {
		stats = append(stats, r.StudentStat)
	}
	return stats
}
