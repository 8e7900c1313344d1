package sqlxrepos

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/material"
	"github.com/trezcool/artlearn/core/score"
	"github.com/trezcool/artlearn/core/setting"
	"github.com/trezcool/artlearn/core/student"
	"github.com/trezcool/artlearn/core/user"
	"github.com/trezcool/artlearn/testutil"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.OpenDB(t))

	admin := testutil.CreateUser(t, repo, "admin", "S3cret-pwd")
	assert.NotZero(t, admin.ID)

	assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "admin"))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "other"))

	got, err := repo.GetUserByUsername(ctx, "admin")
	assert.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.Equal(t, user.RoleAdmin, got.Role)
	assert.False(t, got.LastLogin.Valid)
	assert.NoError(t, got.CheckPassword("S3cret-pwd"))

	_, err = repo.GetUserByID(ctx, admin.ID+1)
	assert.Equal(t, user.ErrNotFound, err)

	now := time.Now().UTC().Truncate(time.Second)
	assert.NoError(t, repo.SetLastLogin(ctx, admin.ID, now))
	got, err = repo.GetUserByID(ctx, admin.ID)
	assert.NoError(t, err)
	assert.True(t, got.LastLogin.Valid)
	assert.True(t, now.Equal(got.LastLogin.Time))

	assert.NoError(t, got.SetPassword("N3w-pwd!"))
	assert.NoError(t, repo.SetPassword(ctx, admin.ID, got.PasswordHash))
	got, _ = repo.GetUserByID(ctx, admin.ID)
	assert.NoError(t, got.CheckPassword("N3w-pwd!"))
	assert.Equal(t, user.ErrNotFound, repo.SetPassword(ctx, 999, got.PasswordHash))

	users, err := repo.QueryUsers(ctx)
	assert.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestStudentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(testutil.OpenDB(t))

	zoe := testutil.CreateStudent(t, repo, "Zoe", "zoe@test.cd")
	ada := testutil.CreateStudent(t, repo, "Ada", "")

	students, err := repo.QueryStudents(ctx)
	assert.NoError(t, err)
	if assert.Len(t, students, 2) {
		assert.Equal(t, ada.ID, students[0].ID)
		assert.Equal(t, zoe.ID, students[1].ID)
		assert.False(t, students[0].Email.Valid)
		assert.Equal(t, "zoe@test.cd", students[1].Email.String)
	}

	_, err = repo.GetStudent(ctx, 404)
	assert.Equal(t, student.ErrNotFound, err)

	tests := []struct {
		name        string
		lookup      string
		wantID      int
		wantCreated bool
	}{
		{name: "exact", lookup: "Ada", wantID: ada.ID},
		{name: "case-insensitive", lookup: "ZOE", wantID: zoe.ID},
		{name: "new", lookup: "Bob", wantCreated: true},
		{name: "created once", lookup: "bob"},
	}
	var bobID int
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			std, created, err := repo.FindOrCreateStudentByName(ctx, student.Student{Name: tt.lookup, CreatedAt: time.Now().UTC()})
			assert.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			switch {
			case tt.wantID != 0:
				assert.Equal(t, tt.wantID, std.ID)
			case created:
				bobID = std.ID
				assert.Equal(t, "Bob", std.Name)
			default:
				assert.Equal(t, bobID, std.ID)
			}
		})
	}

	students, err = repo.QueryStudents(ctx)
	assert.NoError(t, err)
	assert.Len(t, students, 3)
}

func TestStudentRepository_FindOrCreateConcurrently(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenFileDB(t)
	db.SetMaxOpenConns(8)
	repo := NewStudentRepository(db)

	const workers = 20
	var wg sync.WaitGroup
	ids := make([]int, workers)
	created := make([]bool, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "Cy"
			if i%2 == 1 {
				name = "cy"
			}
			var std student.Student
			std, created[i], errs[i] = repo.FindOrCreateStudentByName(ctx, student.Student{Name: name, CreatedAt: time.Now().UTC()})
			ids[i] = std.ID
		}(i)
	}
	wg.Wait()

	nCreated := 0
	for i := 0; i < workers; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
		if created[i] {
			nCreated++
		}
	}
	assert.Equal(t, 1, nCreated)

	students, err := repo.QueryStudents(ctx)
	assert.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestScoreRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewScoreRepository(db)
	stdRepo := NewStudentRepository(db)

	admin := testutil.CreateUser(t, NewUserRepository(db), "admin", "")
	ada := testutil.CreateStudent(t, stdRepo, "Ada", "")
	bob := testutil.CreateStudent(t, stdRepo, "Bob", "")

	day := func(d int) time.Time { return time.Date(2024, time.March, d, 9, 0, 0, 0, time.UTC) }
	s1 := testutil.CreateScore(t, repo, ada, admin, "Math", "45", "50", day(1))
	s2 := testutil.CreateScore(t, repo, bob, admin, "Math", "30", "50", day(3))
	s3 := testutil.CreateScore(t, repo, ada, admin, "Art", "9.5", "10", day(2))

	ids := func(scores []score.Score) []int {
		res := make([]int, 0, len(scores))
		for _, sc := range scores {
			res = append(res, sc.ID)
		}
		return res
	}

	tests := []struct {
		name     string
		filter   *score.QueryFilter
		ordering []core.DBOrdering
		want     []int
	}{
		{name: "all, newest test first", want: []int{s2.ID, s3.ID, s1.ID}},
		{name: "by subject", filter: &score.QueryFilter{Subject: "Math"}, want: []int{s2.ID, s1.ID}},
		{name: "by student", filter: &score.QueryFilter{StudentID: ada.ID}, want: []int{s3.ID, s1.ID}},
		{name: "both", filter: &score.QueryFilter{Subject: "Art", StudentID: bob.ID}, want: []int{}},
		{name: "ordered", ordering: []core.DBOrdering{{Field: "testDate", Ascending: true}}, want: []int{s1.ID, s3.ID, s2.ID}},
		{name: "unknown ordering ignored", ordering: []core.DBOrdering{{Field: "marks; --"}}, want: []int{s2.ID, s3.ID, s1.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := repo.QueryScores(ctx, tt.filter, tt.ordering)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ids(scores))
		})
	}

	got, err := repo.GetScore(ctx, s3.ID)
	assert.NoError(t, err)
	assert.Equal(t, "9.50", got.Marks)
	assert.Equal(t, "10.00", got.MaxMarks)
	assert.Equal(t, "Ada", got.StudentName.String)
	assert.Equal(t, admin.ID, got.EnteredBy)
	assert.True(t, day(2).Equal(got.TestDate))

	pct, err := got.Percentage()
	assert.NoError(t, err)
	assert.InDelta(t, 95.0, pct, 1e-9)

	_, err = repo.GetScore(ctx, 404)
	assert.Equal(t, score.ErrNotFound, err)
}

func TestMaterialRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewMaterialRepository(db)
	admin := testutil.CreateUser(t, NewUserRepository(db), "admin", "")

	now := time.Now().UTC().Truncate(time.Second)
	m1 := testutil.CreateMaterial(t, repo, admin, "Colors", "Painting", "a.pdf", now.Add(-time.Hour))
	m2 := testutil.CreateMaterial(t, repo, admin, "Shapes", "Drawing", "b.pdf", now)
	m3 := testutil.CreateMaterial(t, repo, admin, "Brushes", "Painting", "c.pdf", now.Add(time.Minute))

	mats, err := repo.QueryMaterials(ctx, nil)
	assert.NoError(t, err)
	if assert.Len(t, mats, 3) {
		assert.Equal(t, []int{m3.ID, m2.ID, m1.ID}, []int{mats[0].ID, mats[1].ID, mats[2].ID})
	}

	mats, err = repo.QueryMaterials(ctx, &material.QueryFilter{Subject: "Painting"})
	assert.NoError(t, err)
	if assert.Len(t, mats, 2) {
		assert.Equal(t, m3.ID, mats[0].ID)
		assert.Equal(t, m1.ID, mats[1].ID)
	}

	names, err := repo.QueryFilenames(ctx)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.pdf", "b.pdf", "c.pdf"}, names)

	assert.NoError(t, repo.DeleteMaterial(ctx, m2.ID))
	_, err = repo.GetMaterial(ctx, m2.ID)
	assert.Equal(t, material.ErrNotFound, err)
	assert.Equal(t, material.ErrNotFound, repo.DeleteMaterial(ctx, m2.ID))

	got, err := repo.GetMaterial(ctx, m1.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Colors", got.Title)
	assert.False(t, got.Description.Valid)
}

func TestSettingRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingRepository(testutil.OpenDB(t))
	now := time.Now().UTC()

	_, err := repo.GetSetting(ctx, core.StudentSecretKeySetting)
	assert.Equal(t, setting.ErrNotFound, err)

	created, err := repo.CreateSettingIfNotExist(ctx, setting.Setting{Key: core.StudentSecretKeySetting, Value: "first", UpdatedAt: now})
	assert.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateSettingIfNotExist(ctx, setting.Setting{Key: core.StudentSecretKeySetting, Value: "second", UpdatedAt: now})
	assert.NoError(t, err)
	assert.False(t, created)

	s, err := repo.UpsertSetting(ctx, setting.Setting{Key: core.StudentSecretKeySetting, Value: "third", UpdatedAt: now})
	assert.NoError(t, err)
	assert.NotZero(t, s.ID)

	got, err := repo.GetSetting(ctx, core.StudentSecretKeySetting)
	assert.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "third", got.Value)
}
