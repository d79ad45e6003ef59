package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/curriculum-tools/dataeditor/internal/edit"
	"github.com/curriculum-tools/dataeditor/internal/service"
	appErrors "github.com/curriculum-tools/dataeditor/pkg/errors"
	"github.com/curriculum-tools/dataeditor/pkg/response"
)

// SessionHandler exposes session editing, including moving a session to
// another group.
type SessionHandler struct {
	data *service.DataService
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(data *service.DataService) *SessionHandler {
	return &SessionHandler{data: data}
}

type sessionRequest struct {
	Day       string `json:"day" binding:"required"`
	Time      int    `json:"time" binding:"required,gt=0"`
	Rhythm    int    `json:"rhythm" binding:"gte=0"`
	Duration  int    `json:"duration" binding:"required,gt=0"`
	Tentative bool   `json:"tentative"`
	GroupID   int    `json:"group_id"`
}

func (r sessionRequest) apply(editor *edit.SessionEditor) {
	editor.SetDay(r.Day)
	editor.SetTime(r.Time)
	editor.SetRhythm(r.Rhythm)
	editor.SetDuration(r.Duration)
	editor.SetTentative(r.Tentative)
	editor.SetGroupID(r.GroupID)
}

// Create adds a new session.
func (h *SessionHandler) Create(c *gin.Context) {
	var req sessionRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	editor := edit.NewSessionEditor(h.data)
	defer editor.Close()
	req.apply(editor)
	if err := editor.Persist(); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, newSessionView(editor.Session()))
}

// Update persists changes to the session with the given id.
func (h *SessionHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session id"))
		return
	}
	session := h.data.SessionWrapper(id)
	if session == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	var req sessionRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	editor := edit.NewSessionEditor(h.data)
	defer editor.Close()
	editor.SetSession(session)
	req.apply(editor)
	if err := editor.Persist(); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, newSessionView(session))
}

// Delete removes the session with the given id.
func (h *SessionHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session id"))
		return
	}
	session := h.data.SessionWrapper(id)
	if session == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	editor := edit.NewSessionEditor(h.data)
	defer editor.Close()
	editor.SetSession(session)
	if err := editor.Delete(); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
