package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/curriculum-tools/dataeditor/internal/service"
)

// Services bundles everything the router needs.
type Services struct {
	Db      *service.DbService
	Data    *service.DataService
	Export  *service.ExportService
	Metrics *service.MetricsService
}

// Register mounts the editor API under the given prefix.
func Register(r *gin.Engine, prefix string, svcs Services) {
	database := NewDatabaseHandler(svcs.Db)
	dataset := NewDatasetHandler(svcs.Data)
	courses := NewCourseHandler(svcs.Data)
	sessions := NewSessionHandler(svcs.Data)
	exports := NewExportHandler(svcs.Export)
	metrics := NewMetricsHandler(svcs.Metrics)

	r.GET("/health", metrics.Health)
	r.GET("/metrics", metrics.Prometheus)

	api := r.Group(prefix)

	api.GET("/database", database.Status)
	api.POST("/database/load", database.Load)
	api.POST("/database/close", database.Close)

	api.GET("/courses", dataset.ListCourses)
	api.POST("/courses", courses.Create)
	api.GET("/courses/:key", dataset.GetCourse)
	api.PUT("/courses/:key", courses.Update)
	api.DELETE("/courses/:key", courses.Delete)

	api.GET("/levels", dataset.ListLevels)
	api.GET("/levels/:id", dataset.GetLevel)
	api.GET("/modules", dataset.ListModules)
	api.GET("/modules/:key", dataset.GetModule)
	api.GET("/units", dataset.ListUnits)
	api.GET("/units/:key", dataset.GetUnit)
	api.GET("/groups", dataset.ListGroups)
	api.GET("/groups/:id", dataset.GetGroup)

	api.GET("/sessions", dataset.ListSessions)
	api.POST("/sessions", sessions.Create)
	api.GET("/sessions/:id", dataset.GetSession)
	api.PUT("/sessions/:id", sessions.Update)
	api.DELETE("/sessions/:id", sessions.Delete)

	api.POST("/exports/catalogue", exports.Catalogue)
	api.POST("/exports/courses", exports.CourseList)
}
