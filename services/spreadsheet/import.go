package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/artlearn/core/score"
)

// Columns of an imported score sheet, in order.
const (
	colStudent = iota
	colSubject
	colMarks
	colMaxMarks
	colTestDate
	numCols
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"01-02-06",
	"1/2/06",
}

// ScoreRow is a sheet row parsed into a NewScore (not validated yet).
type ScoreRow struct {
	Row   int // 1-based
	Score score.NewScore
}

// RowError reports a row that could not be parsed.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ReadScores parses the first sheet of an XLSX workbook: student name, subject, marks,
// max marks and test date. A header row is detected and skipped, blank rows are ignored.
func ReadScores(r io.Reader) ([]ScoreRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheet")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading rows")
	}

	scores := make([]ScoreRow, 0, len(rows))
	rowErrs := make([]RowError, 0)
	for i, row := range rows {
		if isBlank(row) || (i == 0 && isHeader(row)) {
			continue
		}
		ns, err := parseRow(row)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Err: err})
			continue
		}
		scores = append(scores, ScoreRow{Row: i + 1, Score: ns})
	}
	return scores, rowErrs, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isHeader(row []string) bool {
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return strings.HasPrefix(first, "student") || first == "name"
}

func parseRow(row []string) (score.NewScore, error) {
	if len(row) < numCols {
		return score.NewScore{}, errors.Errorf("expected %d columns, got %d", numCols, len(row))
	}
	cell := func(i int) string { return strings.TrimSpace(row[i]) }

	testDate, err := parseDate(cell(colTestDate))
	if err != nil {
		return score.NewScore{}, err
	}
	return score.NewScore{
		StudentName: cell(colStudent),
		Subject:     cell(colSubject),
		Marks:       cell(colMarks),
		MaxMarks:    cell(colMaxMarks),
		TestDate:    testDate,
	}, nil
}

// parseDate accepts the usual textual layouts and raw Excel serial dates.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("invalid test date %q", s)
}
