package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/curriculum-tools/dataeditor/internal/service"
)

func TestMetricsObservesOnlyEditorRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metricsSvc := service.NewMetricsService()

	r := gin.New()
	r.Use(Metrics(metricsSvc))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/courses", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/courses"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	scrape := httptest.NewRecorder()
	metricsSvc.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	assert.Contains(t, body, `path="/courses"`)
	assert.NotContains(t, body, `path="/health"`)
}

func TestMetricsWithoutServicePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/courses", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courses", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
