package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curriculum-tools/dataeditor/internal/edit"
	"github.com/curriculum-tools/dataeditor/internal/models"
	"github.com/curriculum-tools/dataeditor/internal/service"
	appErrors "github.com/curriculum-tools/dataeditor/pkg/errors"
	"github.com/curriculum-tools/dataeditor/pkg/response"
)

// CourseHandler exposes course editing. Every request runs through a course
// editor, so the validation and key derivation rules are the same as in any
// other surface.
type CourseHandler struct {
	data *service.DataService
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(data *service.DataService) *CourseHandler {
	return &CourseHandler{data: data}
}

type courseRequest struct {
	ShortName    string   `json:"short_name" binding:"required"`
	LongName     string   `json:"long_name" binding:"required"`
	Degree       string   `json:"degree" binding:"required,oneof=bk ma"`
	PO           int      `json:"po" binding:"required,gt=0"`
	CreditPoints int      `json:"credit_points" binding:"gte=0"`
	Kzfa         string   `json:"kzfa" binding:"required,oneof=H N"`
	Majors       []string `json:"majors"`
	Minors       []string `json:"minors"`
}

func (r courseRequest) apply(editor *edit.CourseEditor) {
	editor.SetShortName(r.ShortName)
	editor.SetLongName(r.LongName)
	editor.SetDegree(models.CourseDegree(r.Degree))
	editor.SetPO(r.PO)
	editor.SetCreditPoints(r.CreditPoints)
	editor.SetKzfa(models.Kzfa(r.Kzfa))
	editor.SetMajorKeys(r.Majors)
	editor.SetMinorKeys(r.Minors)
}

// Create adds a new course to the dataset.
func (h *CourseHandler) Create(c *gin.Context) {
	var req courseRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	editor := edit.NewCourseEditor(h.data)
	defer editor.Close()
	req.apply(editor)
	if err := editor.Persist(); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, newCourseView(editor.Course()))
}

// Update persists changes to the course with the given key. The key may
// change as a result; the response carries the new one.
func (h *CourseHandler) Update(c *gin.Context) {
	course := h.data.CourseWrapper(c.Param("key"))
	if course == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	var req courseRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	editor := edit.NewCourseEditor(h.data)
	defer editor.Close()
	editor.SetCourse(course)
	req.apply(editor)
	if err := editor.Persist(); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, newCourseView(course))
}

// Delete removes the course with the given key.
func (h *CourseHandler) Delete(c *gin.Context) {
	course := h.data.CourseWrapper(c.Param("key"))
	if course == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	editor := edit.NewCourseEditor(h.data)
	defer editor.Close()
	editor.SetCourse(course)
	if err := editor.Delete(); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
