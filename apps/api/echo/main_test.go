package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	echoapi "github.com/trezcool/artlearn/apps/api/echo"
	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/material"
	"github.com/trezcool/artlearn/core/score"
	"github.com/trezcool/artlearn/core/setting"
	"github.com/trezcool/artlearn/core/student"
	"github.com/trezcool/artlearn/core/user"
	"github.com/trezcool/artlearn/storage/database/sqlxrepos"
	"github.com/trezcool/artlearn/storage/files"
	"github.com/trezcool/artlearn/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	conf       *core.Config
	server     *echoapi.Server
	usrRepo    user.Repository
	stdRepo    student.Repository
	scoreRepo  score.Repository
	matRepo    material.Repository
	settingSvc *setting.Service
	store      *files.DiskStore
	admin      user.User
	adminToken string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewTestConfig()
	conf.WorkDir = t.TempDir()
	conf.Uploads.Dir = "uploads"
	conf.Uploads.MaxSize = 64 * 1024

	db := testutil.OpenDB(t)
	logger := testutil.NopLogger{}

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	score.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)

	store, err := files.NewDiskStore(conf)
	if err != nil {
		t.Fatalf("NewDiskStore(): %v", err)
	}

	app := &testApp{
		conf:      conf,
		usrRepo:   sqlxrepos.NewUserRepository(db),
		stdRepo:   sqlxrepos.NewStudentRepository(db),
		scoreRepo: sqlxrepos.NewScoreRepository(db),
		matRepo:   sqlxrepos.NewMaterialRepository(db),
		store:     store,
	}
	app.settingSvc = setting.NewService(sqlxrepos.NewSettingRepository(db))
	if _, err = app.settingSvc.EnsureDefault(context.Background(), core.StudentSecretKeySetting, conf.Student.DefaultSecretKey); err != nil {
		t.Fatalf("EnsureDefault(): %v", err)
	}

	stdSvc := student.NewService(app.stdRepo)
	app.server = echoapi.NewServer(echoapi.Deps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        user.NewService(app.usrRepo),
		StudentSvc:     stdSvc,
		ScoreSvc:       score.NewService(app.scoreRepo, stdSvc),
		MaterialSvc:    material.NewService(app.matRepo, store, conf, logger),
		SettingSvc:     app.settingSvc,
		Files:          store,
		DisableReqLogs: true,
	})

	app.admin = testutil.CreateUser(t, app.usrRepo, "admin", "")
	app.adminToken = getToken(t, conf, app.admin)
	return app
}

func (app *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// newMultipartRequest builds a multipart form, with a `file` part when filename is not empty.
func newMultipartRequest(t *testing.T, path, token string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(): %v", err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile(): %v", err)
		}
		if _, err = part.Write(content); err != nil {
			t.Fatalf("part.Write(): %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart.Close(): %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := app.serve(newAuthRequest(method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}
