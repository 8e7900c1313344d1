// Package spreadsheet exports performance views to XLSX workbooks and imports score sheets.
package spreadsheet

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/artlearn/core/analytics"
)

// ContentType is the MIME type of XLSX workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names of an exported workbook, in order.
const (
	SheetSummary     = "Summary"
	SheetSubjects    = "Subjects"
	SheetTrends      = "Trends"
	SheetGrades      = "Grades"
	SheetLeaderboard = "Leaderboard"
	SheetWarnings    = "Warnings"
)

func pct(p analytics.Percent) float64 {
	return analytics.Round(float64(p))
}

// WritePerformance renders views as a workbook with one sheet per view.
func WritePerformance(w io.Writer, views analytics.Views) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{name: SheetSummary, rows: summaryRows(views)},
		{name: SheetSubjects, rows: subjectRows(views.SubjectPerformance)},
		{name: SheetTrends, rows: trendRows(views.Trends)},
		{name: SheetGrades, rows: gradeRows(views.GradeDistribution)},
		{name: SheetLeaderboard, rows: leaderboardRows(views.Leaderboard)},
		{name: SheetWarnings, rows: warningRows(views.Warnings)},
	}

	for i, sheet := range sheets {
		var err error
		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), sheet.name)
		} else {
			_, err = f.NewSheet(sheet.name)
		}
		if err != nil {
			return errors.Wrapf(err, "adding sheet %s", sheet.name)
		}
		if err = writeRows(f, sheet.name, sheet.rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "locating cell")
		}
		row := row
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s!%s", sheet, cell)
		}
	}
	return nil
}

func summaryRows(views analytics.Views) [][]interface{} {
	return [][]interface{}{
		{"Subject", views.Subject},
		{"Timeframe", string(views.Timeframe)},
		{"Total scores", views.Summary.TotalScores},
		{"Average (%)", pct(views.Summary.Average)},
		{"Students", views.Summary.Students},
		{"Subjects", views.Summary.Subjects},
		{"Skipped records", views.Skipped},
	}
}

func subjectRows(stats []analytics.SubjectStat) [][]interface{} {
	rows := [][]interface{}{{"Subject", "Average (%)", "Scores"}}
	for _, s := range stats {
		rows = append(rows, []interface{}{s.Subject, pct(s.Average), s.Count})
	}
	return rows
}

func trendRows(points []analytics.TrendPoint) [][]interface{} {
	rows := [][]interface{}{{"Date", "Average (%)", "Scores"}}
	for _, p := range points {
		rows = append(rows, []interface{}{p.Date, pct(p.Average), p.Count})
	}
	return rows
}

func gradeRows(grades []analytics.GradeCount) [][]interface{} {
	rows := [][]interface{}{{"Grade", "Range", "Scores"}}
	for _, g := range grades {
		rows = append(rows, []interface{}{string(g.Grade), g.Label, g.Count})
	}
	return rows
}

func leaderboardRows(stats []analytics.StudentStat) [][]interface{} {
	rows := [][]interface{}{{"Rank", "Student", "Average (%)", "Scores", "Rating"}}
	for i, s := range stats {
		rows = append(rows, []interface{}{i + 1, s.Name, pct(s.Average), s.Count, s.Rating})
	}
	return rows
}

func warningRows(warnings []analytics.Warning) [][]interface{} {
	rows := [][]interface{}{{"Score ID", "Reason"}}
	for _, w := range warnings {
		rows = append(rows, []interface{}{w.ScoreID, w.Reason})
	}
	return rows
}
