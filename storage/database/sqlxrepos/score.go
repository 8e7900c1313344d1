package sqlxrepos

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/score"
)

const scoreSelect = `SELECT s.id, s.student_id, st.name AS student_name, s.subject, s.marks, s.max_marks,
	s.test_date, s.entered_by, s.created_at
FROM scores s LEFT JOIN students st ON st.id = s.student_id`

var scoreOrderings = map[string]string{
	"id":        "s.id",
	"subject":   "s.subject",
	"testDate":  "s.test_date",
	"createdAt": "s.created_at",
	"studentId": "s.student_id",
}

type scoreRepository struct {
	repo
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db core.DB) *scoreRepository {
	return &scoreRepository{repo{db: db}}
}

// normalize renders marks with 2 decimals whatever the driver returned ("45" vs "45.00").
func normalize(sc *score.Score) {
	sc.Marks = score.FormatDecimal(sc.Marks)
	sc.MaxMarks = score.FormatDecimal(sc.MaxMarks)
	sc.TestDate = sc.TestDate.UTC()
	sc.CreatedAt = sc.CreatedAt.UTC()
}

func (r scoreRepository) CreateScore(ctx context.Context, sc score.Score, exec ...core.DBExecutor) (score.Score, error) {
	e := r.getExec(exec)
	q := e.Rebind(`INSERT INTO scores (student_id, subject, marks, max_marks, test_date, entered_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := e.GetContext(ctx, &sc.ID, q,
		sc.StudentID, sc.Subject, sc.Marks, sc.MaxMarks, sc.TestDate.UTC(), sc.EnteredBy, sc.CreatedAt.UTC(),
	)
	if err != nil {
		return score.Score{}, errors.Wrap(err, "inserting score")
	}
	normalize(&sc)
	return sc, nil
}

func (r scoreRepository) QueryScores(
	ctx context.Context,
	filter *score.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]score.Score, error) {
	e := r.getExec(exec)

	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Subject != "" {
			where = append(where, "s.subject = ?")
			args = append(args, filter.Subject)
		}
		if filter.StudentID > 0 {
			where = append(where, "s.student_id = ?")
			args = append(args, filter.StudentID)
		}
	}

	q := scoreSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + core.OrderByClause(ordering, scoreOrderings, "s.test_date DESC, s.id DESC")

	scores := make([]score.Score, 0)
	if err := e.SelectContext(ctx, &scores, e.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting scores")
	}
	for i := range scores {
		normalize(&scores[i])
	}
	return scores, nil
}

func (r scoreRepository) GetScore(ctx context.Context, id int, exec ...core.DBExecutor) (score.Score, error) {
	e := r.getExec(exec)
	var sc score.Score
	if err := e.GetContext(ctx, &sc, e.Rebind(scoreSelect+" WHERE s.id = ?"), id); err != nil {
		return score.Score{}, trapNoRowsErr(err, score.ErrNotFound, "selecting score by id")
	}
	normalize(&sc)
	return sc, nil
}
