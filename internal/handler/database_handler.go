// Package handler exposes the editor core over HTTP for the UI shell.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curriculum-tools/dataeditor/internal/events"
	"github.com/curriculum-tools/dataeditor/internal/service"
	"github.com/curriculum-tools/dataeditor/pkg/response"
)

// DatabaseHandler drives the datasource lifecycle.
type DatabaseHandler struct {
	db *service.DbService
}

// NewDatabaseHandler constructs a database handler.
func NewDatabaseHandler(db *service.DbService) *DatabaseHandler {
	return &DatabaseHandler{db: db}
}

type databaseStatus struct {
	File    string `json:"file,omitempty"`
	Open    bool   `json:"open"`
	Loading bool   `json:"loading"`
}

// Status reports the open store and whether a load is in flight.
func (h *DatabaseHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, databaseStatus{
		File:    h.db.DbFile().Get(),
		Open:    h.db.DataSource().Get() != nil,
		Loading: h.db.Task().Get() != "",
	})
}

type loadRequest struct {
	Path string `json:"path" binding:"required"`
}

// Load requests opening the store at the given path. The load runs in the
// background; poll Status for completion.
func (h *DatabaseHandler) Load(c *gin.Context) {
	var req loadRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	h.db.DbEventSource().Push(events.NewLoadDbEvent(req.Path))
	response.JSON(c, http.StatusAccepted, databaseStatus{
		File:    req.Path,
		Open:    h.db.DataSource().Get() != nil,
		Loading: true,
	})
}

// Close drops the current datasource.
func (h *DatabaseHandler) Close(c *gin.Context) {
	h.db.DbEventSource().Push(events.NewCloseDbEvent())
	response.NoContent(c)
}
