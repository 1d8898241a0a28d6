package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"golang.org/x/crypto/bcrypt"

	"github.com/padraicbc/golfstats/ingest"
	"github.com/padraicbc/golfstats/store"
	"github.com/padraicbc/golfstats/workbook"
)

var jwtKey = []byte("test-secret")

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, afero.Fs) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	bdb := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = bdb.Close() })

	fs := afero.NewMemMapFs()
	st := store.New(bdb)
	archiver := ingest.NewArchiver(fs, "processed")
	uploads := &Uploads{
		Fs:            fs,
		Dir:           "raw",
		CoursePattern: "course_*.xlsx",
		Courses:       ingest.NewPipeline[ingest.CourseImport](fs, ingest.NewCourseImporter(st), archiver, nil),
		Rounds:        ingest.NewPipeline[ingest.RoundImport](fs, ingest.NewRoundImporter(st), archiver, nil),
	}
	return New(bdb, jwtKey, []string{"admin"}, uploads), mock, fs
}

func request(method, target string, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestSignin(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("birdie"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM "users" AS "u" WHERE \(username = 'padraic'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "created_at"}).
			AddRow(1, "padraic", string(hash), time.Now()))

	c, rec := request(http.MethodPost, "/golf/signin", `{"username":" padraic ","password":"birdie"}`)
	require.NoError(t, h.Signin(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignin_WrongPassword(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("birdie"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "created_at"}).
			AddRow(1, "padraic", string(hash), time.Now()))

	c, _ := request(http.MethodPost, "/golf/signin", `{"username":"padraic","password":"bogey"}`)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, h.Signin(c)))
}

func TestSignin_UnknownUser(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectQuery(`SELECT .* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "created_at"}))

	c, _ := request(http.MethodPost, "/golf/signin", `{"username":"nobody","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, h.Signin(c)))
}

func TestPasswordHash_RequiresAdmin(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectQuery(`SELECT EXISTS .*username = 'padraic'`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	c, _ := request(http.MethodPost, "/golf/password-hash", `{"username":"new","password":"pw"}`)
	c.Set("username", "padraic")
	assert.Equal(t, http.StatusForbidden, httpStatus(t, h.PasswordHash(c)))
}

func TestPasswordHash(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectQuery(`SELECT EXISTS .*username = 'Admin'`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	c, rec := request(http.MethodPost, "/golf/password-hash", `{"username":"new","password":"pw"}`)
	c.Set("username", "Admin")
	require.NoError(t, h.PasswordHash(c))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "new", body["username"])
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(body["password_hash"]), []byte("pw")))
}

func TestCourses(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectQuery(`SELECT .* FROM "courses" AS "c" WHERE \(c.course_name ILIKE '%pine%'\) ORDER BY c.course_name ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "course_name", "location", "notes"}).
			AddRow(1, "Pine Valley Golf Club", "Pine Valley, NJ", nil))

	c, rec := request(http.MethodGet, "/golf/courses?q=pine", "")
	require.NoError(t, h.Courses(c))
	assert.JSONEq(t,
		`[{"courseID":1,"courseName":"Pine Valley Golf Club","location":"Pine Valley, NJ"}]`,
		rec.Body.String())
}

func TestCourseTees_NotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectQuery(`SELECT EXISTS .*course_id = 9`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	c, _ := request(http.MethodGet, "/golf/courses/9/tees", "")
	c.SetParamNames("id")
	c.SetParamValues("9")
	assert.Equal(t, http.StatusNotFound, httpStatus(t, h.CourseTees(c)))
}

func TestCourseTees_BadID(t *testing.T) {
	h, _, _ := newTestHandler(t)
	c, _ := request(http.MethodGet, "/golf/courses/x/tees", "")
	c.SetParamNames("id")
	c.SetParamValues("x")
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, h.CourseTees(c)))
}

func TestCourseHoles(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectQuery(`SELECT EXISTS .*course_id = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT .* FROM "holes" AS "h" WHERE \(h.course_id = 1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"hole_id", "course_id", "hole_number", "par"}).
			AddRow(1, 1, 1, 4).
			AddRow(2, 1, 2, 3))
	mock.ExpectQuery(`SELECT t.tee_name, th.hole_number, th.yardage FROM tee_holes AS th INNER JOIN tees AS t`).
		WillReturnRows(sqlmock.NewRows([]string{"tee_name", "hole_number", "yardage"}).
			AddRow("Blue", 1, 410).
			AddRow("White", 1, 380).
			AddRow("Blue", 2, 190))

	c, rec := request(http.MethodGet, "/golf/courses/1/holes", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.CourseHoles(c))
	assert.JSONEq(t, `[
		{"holeNumber":1,"par":4,"yardages":{"Blue":410,"White":380}},
		{"holeNumber":2,"par":3,"yardages":{"Blue":190}}
	]`, rec.Body.String())
}

func TestRounds_Filters(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectQuery(`FROM "agg_round_kpis" AS "k" WHERE \(k.date_played >= '2026-01-01'\) AND \(k.date_played <= '2026-02-28'\) AND \(k.course_name = 'Pine Valley Golf Club'\) ORDER BY`).
		WillReturnRows(sqlmock.NewRows([]string{"round_id", "round_external_id", "course_name", "total_strokes"}).
			AddRow(3, "2026-02-08-PineValley", "Pine Valley Golf Club", 82))

	c, rec := request(http.MethodGet, "/golf/rounds?from=2026-01-01&to=2026-02-28&course=Pine+Valley+Golf+Club", "")
	require.NoError(t, h.Rounds(c))

	var rounds []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rounds))
	require.Len(t, rounds, 1)
	assert.Equal(t, float64(82), rounds[0]["totalStrokes"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRounds_BadDates(t *testing.T) {
	h, _, _ := newTestHandler(t)

	c, _ := request(http.MethodGet, "/golf/rounds?from=08/02/2026", "")
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, h.Rounds(c)))

	c, _ = request(http.MethodGet, "/golf/rounds?from=2026-03-01&to=2026-02-01", "")
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, h.Rounds(c)))
}

func TestRoundHoles_NotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectQuery(`SELECT EXISTS .*FROM "rounds" AS "r" WHERE \(round_id = 42\)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	c, _ := request(http.MethodGet, "/golf/rounds/42/holes", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	assert.Equal(t, http.StatusNotFound, httpStatus(t, h.RoundHoles(c)))
}

func TestHoleSummary(t *testing.T) {
	h, mock, _ := newTestHandler(t)
	mock.ExpectQuery(`FROM fact_hole_stats AS f WHERE \(f.course_name = 'Pine Valley Golf Club'\) GROUP BY f.course_name, f.hole_number`).
		WillReturnRows(sqlmock.NewRows([]string{"course_name", "hole_number", "par", "played", "avg_strokes", "avg_putts", "avg_to_par", "fairways", "bunkers"}).
			AddRow("Pine Valley Golf Club", 1, 4, 2, 4.5, 2.0, 0.5, 1, 0))

	c, rec := request(http.MethodGet, "/golf/holes/summary?course=Pine+Valley+Golf+Club", "")
	require.NoError(t, h.HoleSummary(c))
	assert.JSONEq(t, `[{"courseName":"Pine Valley Golf Club","holeNumber":1,"par":4,"played":2,
		"avgStrokes":4.5,"avgPutts":2,"avgToPar":0.5,"fairways":1,"bunkers":0}]`, rec.Body.String())
}

func upload(t *testing.T, target, filename string, content []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func xlsx(t *testing.T, sheets []workbook.SheetSpec) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, workbook.Write(&buf, sheets))
	return buf.Bytes()
}

func TestImportCourses_Duplicate(t *testing.T) {
	h, mock, fs := newTestHandler(t)
	mock.ExpectQuery(`SELECT EXISTS .*course_name = 'Pine Valley Golf Club'`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	c, rec := upload(t, "/golf/import/courses", "pine.xlsx", xlsx(t, ingest.CourseTemplate()))
	require.NoError(t, h.ImportCourses(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "course_pine.xlsx", resp.File)
	assert.Equal(t, "skipped (duplicate)", resp.Outcome)
	assert.Equal(t, filepath.Join("processed", "course_pine.xlsx"), resp.Archived)

	archived, err := afero.Exists(fs, resp.Archived)
	require.NoError(t, err)
	assert.True(t, archived)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRounds_InvalidIsRemoved(t *testing.T) {
	h, _, fs := newTestHandler(t)
	specs := ingest.RoundTemplate()
	specs[0].Rows[0][6] = "League"

	c, rec := upload(t, "/golf/import/rounds", "r.xlsx", xlsx(t, specs))
	require.NoError(t, h.ImportRounds(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Outcome)
	assert.Contains(t, resp.Error, "round_type")

	staged, err := afero.Exists(fs, filepath.Join("raw", "r.xlsx"))
	require.NoError(t, err)
	assert.False(t, staged)
}

func TestImportRounds_NotAWorkbook(t *testing.T) {
	h, _, _ := newTestHandler(t)

	c, rec := upload(t, "/golf/import/rounds", "r.xlsx", []byte("not a zip"))
	require.NoError(t, h.ImportRounds(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestImportRounds_Rejections(t *testing.T) {
	h, _, fs := newTestHandler(t)
	require.NoError(t, afero.WriteFile(fs, filepath.Join("raw", "pending.xlsx"), []byte("x"), 0o644))

	tests := []struct {
		name     string
		filename string
		status   int
	}{
		{"no file", "", http.StatusBadRequest},
		{"not xlsx", "round.csv", http.StatusBadRequest},
		{"course name", "course_pine.xlsx", http.StatusBadRequest},
		{"already pending", "pending.xlsx", http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := upload(t, "/golf/import/rounds", tt.filename, []byte("data"))
			assert.Equal(t, tt.status, httpStatus(t, h.ImportRounds(c)))
		})
	}

	// the pending file is untouched
	data, err := afero.ReadFile(fs, filepath.Join("raw", "pending.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestImport_Disabled(t *testing.T) {
	h := New(nil, jwtKey, nil, nil)
	c, _ := upload(t, "/golf/import/courses", "c.xlsx", []byte("x"))
	assert.Equal(t, http.StatusServiceUnavailable, httpStatus(t, h.ImportCourses(c)))
}
