package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curriculum-tools/dataeditor/internal/repository"
	"github.com/curriculum-tools/dataeditor/internal/service"
	"github.com/curriculum-tools/dataeditor/pkg/config"
	"github.com/curriculum-tools/dataeditor/pkg/database"
	"github.com/curriculum-tools/dataeditor/pkg/response"
)

func newRepositories(db *sqlx.DB) *service.Repositories {
	return &service.Repositories{
		Courses:       repository.NewCourseRepository(db),
		Levels:        repository.NewLevelRepository(db),
		Modules:       repository.NewModuleRepository(db),
		ModuleLevels:  repository.NewModuleLevelRepository(db),
		AbstractUnits: repository.NewAbstractUnitRepository(db),
		Units:         repository.NewUnitRepository(db),
		Groups:        repository.NewGroupRepository(db),
		Sessions:      repository.NewSessionRepository(db),
	}
}

// newTestRouter spins up the full API over a seeded store in a temp file.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "curriculum.sqlite3")
	db, err := database.OpenSQLite(path, config.DatabaseConfig{BusyTimeout: time.Second, Bootstrap: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`INSERT INTO courses (id, course_key, short_name, long_name, degree, po, credit_points, kzfa)
		 VALUES (1, 'BK-INF-H-2016', 'inf', 'Informatik', 'bk', 2016, 180, 'H')`,
		`INSERT INTO units (id, unit_key, title) VALUES (1, 'U-ALGO-V', 'Algorithmen Vorlesung')`,
		`INSERT INTO groups (id, unit_id, half_semester) VALUES (1, 1, 1)`,
		`INSERT INTO groups (id, unit_id, half_semester) VALUES (2, 1, 2)`,
		`INSERT INTO sessions (id, group_id, day, time, rhythm, duration, tentative)
		 VALUES (1, 1, 'mon', 8, 0, 2, 0)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	dbService := service.NewDbService(config.DatabaseConfig{}, nil)
	dataService := service.NewDataService(dbService, newRepositories, nil)
	exportService, err := service.NewExportService(dataService, config.ExportConfig{OutputDir: t.TempDir()}, nil, nil, nil)
	require.NoError(t, err)
	metricsService := service.NewMetricsService()
	metricsService.Observe(dataService)
	dbService.DataSource().Set(db)

	r := gin.New()
	Register(r, "/api/v1", Services{Db: dbService, Data: dataService, Export: exportService, Metrics: metricsService})
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage  `json:"data"`
		Error *json.RawMessage `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Nil(t, envelope.Error, "unexpected error payload: %s", w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestDatabaseStatus(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/database", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Open    bool `json:"open"`
		Loading bool `json:"loading"`
	}
	decodeData(t, w, &status)
	assert.True(t, status.Open)
	assert.False(t, status.Loading)
}

func TestListCourses(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/courses", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var courses []courseView
	decodeData(t, w, &courses)
	require.Len(t, courses, 1)
	assert.Equal(t, "BK-INF-H-2016", courses[0].Key)
}

func TestGetCourseNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/courses/NO-SUCH-KEY", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestCreateCourse(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/courses", map[string]interface{}{
		"short_name":    "mat",
		"long_name":     "Mathematik",
		"degree":        "ma",
		"po":            2020,
		"credit_points": 120,
		"kzfa":          "H",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var created courseView
	decodeData(t, w, &created)
	assert.Equal(t, "MA-MAT-H-2020", created.Key)

	w = doJSON(t, r, http.MethodGet, "/api/v1/courses/MA-MAT-H-2020", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateCourseValidation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/courses", map[string]interface{}{
		"short_name": "x",
		"long_name":  "X",
		"degree":     "diploma",
		"po":         2020,
		"kzfa":       "H",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCourseRecomputesKey(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/v1/courses/BK-INF-H-2016", map[string]interface{}{
		"short_name":    "inf",
		"long_name":     "Informatik",
		"degree":        "bk",
		"po":            2021,
		"credit_points": 180,
		"kzfa":          "H",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var updated courseView
	decodeData(t, w, &updated)
	assert.Equal(t, "BK-INF-H-2021", updated.Key)

	w = doJSON(t, r, http.MethodGet, "/api/v1/courses/BK-INF-H-2016", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveSessionToOtherGroup(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/v1/sessions/1", map[string]interface{}{
		"day":      "fri",
		"time":     14,
		"rhythm":   1,
		"duration": 4,
		"group_id": 2,
	})

	require.Equal(t, http.StatusOK, w.Code)
	var updated sessionView
	decodeData(t, w, &updated)
	assert.Equal(t, "fri", updated.Day)
	assert.Equal(t, 14, updated.Time)
	assert.Equal(t, 2, updated.GroupID)
}

func TestDeleteSession(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/sessions/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/sessions/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportCatalogue(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/exports/catalogue", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var result service.ExportResult
	decodeData(t, w, &result)
	assert.NotEmpty(t, result.Path)
	assert.Greater(t, result.Size, 0)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dataset_entities")
}
