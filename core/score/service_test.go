package score

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/student"
)

type fakeRepo struct {
	created []Score
}

func (r *fakeRepo) CreateScore(_ context.Context, sc Score, _ ...core.DBExecutor) (Score, error) {
	sc.ID = len(r.created) + 1
	r.created = append(r.created, sc)
	return sc, nil
}

func (r *fakeRepo) QueryScores(context.Context, *QueryFilter, []core.DBOrdering, ...core.DBExecutor) ([]Score, error) {
	return r.created, nil
}

func (r *fakeRepo) GetScore(_ context.Context, id int, _ ...core.DBExecutor) (Score, error) {
	for _, sc := range r.created {
		if sc.ID == id {
			return sc, nil
		}
	}
	return Score{}, ErrNotFound
}

type fakeStudents struct {
	byID    map[int]student.Student
	created []string
}

func (f *fakeStudents) GetByID(_ context.Context, id int) (student.Student, error) {
	if std, ok := f.byID[id]; ok {
		return std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (f *fakeStudents) FindOrCreateByName(_ context.Context, name string) (student.Student, bool, error) {
	for _, std := range f.byID {
		if std.Name == name {
			return std, false, nil
		}
	}
	std := student.Student{ID: 100 + len(f.created), Name: name}
	f.byID[std.ID] = std
	f.created = append(f.created, name)
	return std, true, nil
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	testDate := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.FixedZone("WAT", 3600))

	tests := []struct {
		name        string
		ns          NewScore
		wantErr     bool
		wantStudent int
		wantName    string
		wantCreated []string
	}{
		{
			name:        "existing student",
			ns:          NewScore{StudentID: 1, Subject: "Math", Marks: "45", MaxMarks: "50", TestDate: testDate},
			wantStudent: 1,
			wantName:    "Ada",
		},
		{
			name:    "unknown student id",
			ns:      NewScore{StudentID: 9, Subject: "Math", Marks: "45", MaxMarks: "50", TestDate: testDate},
			wantErr: true,
		},
		{
			name:        "known student name",
			ns:          NewScore{StudentName: "Ada", Subject: "Art", Marks: "9.5", MaxMarks: "10", TestDate: testDate},
			wantStudent: 1,
			wantName:    "Ada",
		},
		{
			name:        "new student name",
			ns:          NewScore{StudentName: "Bob", Subject: "Art", Marks: "9.5", MaxMarks: "10", TestDate: testDate},
			wantStudent: 100,
			wantName:    "Bob",
			wantCreated: []string{"Bob"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(fakeRepo)
			students := &fakeStudents{byID: map[int]student.Student{1: {ID: 1, Name: "Ada"}}}
			svc := NewService(repo, students)

			sc, err := svc.Create(ctx, tt.ns, 7)
			if tt.wantErr {
				var vErr *core.ValidationError
				if assert.True(t, errors.As(err, &vErr), "error = %v", err) {
					assert.Equal(t, "studentId", vErr.Fields[0].Field)
				}
				assert.Empty(t, repo.created)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStudent, sc.StudentID)
			assert.Equal(t, tt.wantName, sc.StudentName.String)
			assert.Equal(t, FormatDecimal(tt.ns.Marks), sc.Marks)
			assert.Equal(t, FormatDecimal(tt.ns.MaxMarks), sc.MaxMarks)
			assert.Equal(t, time.UTC, sc.TestDate.Location())
			assert.True(t, sc.TestDate.Equal(testDate))
			assert.Equal(t, 7, sc.EnteredBy)
			assert.Equal(t, tt.wantCreated, students.created)
		})
	}
}

func TestService_GetByID(t *testing.T) {
	svc := NewService(new(fakeRepo), &fakeStudents{byID: map[int]student.Student{}})
	_, err := svc.GetByID(context.Background(), 0)
	assert.Equal(t, ErrNotFound, err)
}
