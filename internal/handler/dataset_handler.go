package handler

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/curriculum-tools/dataeditor/internal/entity"
	"github.com/curriculum-tools/dataeditor/internal/service"
	appErrors "github.com/curriculum-tools/dataeditor/pkg/errors"
	"github.com/curriculum-tools/dataeditor/pkg/response"
)

// DatasetHandler exposes read access to the loaded wrapper graph. The views
// flatten relations to keys and ids; the UI resolves them through its own
// lists.
type DatasetHandler struct {
	data *service.DataService
}

// NewDatasetHandler constructs a dataset handler.
func NewDatasetHandler(data *service.DataService) *DatasetHandler {
	return &DatasetHandler{data: data}
}

type courseView struct {
	Key          string   `json:"key"`
	ShortName    string   `json:"short_name"`
	LongName     string   `json:"long_name"`
	Degree       string   `json:"degree"`
	PO           int      `json:"po"`
	CreditPoints int      `json:"credit_points"`
	Kzfa         string   `json:"kzfa"`
	Majors       []string `json:"majors,omitempty"`
	Minors       []string `json:"minors,omitempty"`
}

func newCourseView(w *entity.CourseWrapper) courseView {
	view := courseView{
		Key:          w.Key.Get(),
		ShortName:    w.ShortName.Get(),
		LongName:     w.LongName.Get(),
		Degree:       string(w.Degree.Get()),
		PO:           w.PO.Get(),
		CreditPoints: w.CreditPoints.Get(),
		Kzfa:         string(w.Kzfa.Get()),
	}
	for _, major := range w.MajorCourses.Values() {
		view.Majors = append(view.Majors, major.Key.Get())
	}
	for _, minor := range w.MinorCourses.Values() {
		view.Minors = append(view.Minors, minor.Key.Get())
	}
	sort.Strings(view.Majors)
	sort.Strings(view.Minors)
	return view
}

type levelView struct {
	ID              int    `json:"id"`
	Art             string `json:"art"`
	Name            string `json:"name"`
	Tm              string `json:"tm"`
	Min             int    `json:"min"`
	Max             int    `json:"max"`
	MinCreditPoints int    `json:"min_credit_points"`
	MaxCreditPoints int    `json:"max_credit_points"`
	ParentID        int    `json:"parent_id,omitempty"`
	CourseKey       string `json:"course_key,omitempty"`
	ChildIDs        []int  `json:"child_ids,omitempty"`
}

func newLevelView(w *entity.LevelWrapper) levelView {
	view := levelView{
		ID:              w.ID(),
		Art:             w.Art.Get(),
		Name:            w.Name.Get(),
		Tm:              w.Tm.Get(),
		Min:             w.Min.Get(),
		Max:             w.Max.Get(),
		MinCreditPoints: w.MinCreditPoints.Get(),
		MaxCreditPoints: w.MaxCreditPoints.Get(),
	}
	if parent := w.Parent.Get(); parent != nil {
		view.ParentID = parent.ID()
	}
	if course := w.Course.Get(); course != nil {
		view.CourseKey = course.Key.Get()
	}
	for _, child := range w.Children.Values() {
		view.ChildIDs = append(view.ChildIDs, child.ID())
	}
	sort.Ints(view.ChildIDs)
	return view
}

type moduleView struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	Pordnr        int      `json:"pordnr"`
	Bundled       bool     `json:"bundled"`
	ElectiveUnits int      `json:"elective_units"`
	LevelID       int      `json:"level_id,omitempty"`
	CourseKeys    []string `json:"course_keys,omitempty"`
	AbstractUnits []string `json:"abstract_units,omitempty"`
}

func newModuleView(w *entity.ModuleWrapper) moduleView {
	view := moduleView{
		Key:           w.Key.Get(),
		Title:         w.Title.Get(),
		Pordnr:        w.Pordnr.Get(),
		Bundled:       w.Bundled.Get(),
		ElectiveUnits: w.ElectiveUnits.Get(),
	}
	if level := w.Level.Get(); level != nil {
		view.LevelID = level.ID()
	}
	for _, course := range w.Courses.Values() {
		view.CourseKeys = append(view.CourseKeys, course.Key.Get())
	}
	for _, abstractUnit := range w.AbstractUnits.Values() {
		view.AbstractUnits = append(view.AbstractUnits, abstractUnit.Key.Get())
	}
	sort.Strings(view.CourseKeys)
	sort.Strings(view.AbstractUnits)
	return view
}

type unitView struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	AbstractUnits []string `json:"abstract_units,omitempty"`
	GroupIDs      []int    `json:"group_ids,omitempty"`
}

func newUnitView(w *entity.UnitWrapper) unitView {
	view := unitView{Key: w.Key.Get(), Title: w.Title.Get()}
	for _, abstractUnit := range w.AbstractUnits.Values() {
		view.AbstractUnits = append(view.AbstractUnits, abstractUnit.Key.Get())
	}
	for _, group := range w.Groups.Values() {
		view.GroupIDs = append(view.GroupIDs, group.ID())
	}
	sort.Strings(view.AbstractUnits)
	sort.Ints(view.GroupIDs)
	return view
}

type groupView struct {
	ID           int    `json:"id"`
	UnitKey      string `json:"unit_key,omitempty"`
	HalfSemester int    `json:"half_semester"`
	SessionIDs   []int  `json:"session_ids,omitempty"`
}

func newGroupView(w *entity.GroupWrapper) groupView {
	view := groupView{ID: w.ID(), HalfSemester: w.HalfSemester.Get()}
	if unit := w.Unit.Get(); unit != nil {
		view.UnitKey = unit.Key.Get()
	}
	for _, session := range w.Sessions.Values() {
		view.SessionIDs = append(view.SessionIDs, session.ID())
	}
	sort.Ints(view.SessionIDs)
	return view
}

type sessionView struct {
	ID        int    `json:"id"`
	GroupID   int    `json:"group_id,omitempty"`
	Day       string `json:"day"`
	Time      int    `json:"time"`
	Rhythm    int    `json:"rhythm"`
	Duration  int    `json:"duration"`
	Tentative bool   `json:"tentative"`
}

func newSessionView(w *entity.SessionWrapper) sessionView {
	view := sessionView{
		ID:        w.ID(),
		Day:       w.Day.Get(),
		Time:      w.Time.Get(),
		Rhythm:    w.Rhythm.Get(),
		Duration:  w.Duration.Get(),
		Tentative: w.Tentative.Get(),
	}
	if group := w.Group.Get(); group != nil {
		view.GroupID = group.ID()
	}
	return view
}

// ListCourses returns every course, majors before minors.
func (h *DatasetHandler) ListCourses(c *gin.Context) {
	views := make([]courseView, 0)
	for _, course := range h.data.MajorCourseWrappers() {
		views = append(views, newCourseView(course))
	}
	for _, course := range h.data.MinorCourseWrappers() {
		views = append(views, newCourseView(course))
	}
	response.JSON(c, http.StatusOK, views)
}

// GetCourse returns one course by key.
func (h *DatasetHandler) GetCourse(c *gin.Context) {
	course := h.data.CourseWrapper(c.Param("key"))
	if course == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.JSON(c, http.StatusOK, newCourseView(course))
}

// ListLevels returns every level ordered by id.
func (h *DatasetHandler) ListLevels(c *gin.Context) {
	levels := h.data.LevelWrappers()
	ids := make([]int, 0, len(levels))
	for id := range levels {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	views := make([]levelView, 0, len(ids))
	for _, id := range ids {
		views = append(views, newLevelView(levels[id]))
	}
	response.JSON(c, http.StatusOK, views)
}

// GetLevel returns one level by id.
func (h *DatasetHandler) GetLevel(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid level id"))
		return
	}
	level := h.data.LevelWrapper(id)
	if level == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.JSON(c, http.StatusOK, newLevelView(level))
}

// ListModules returns every module ordered by key.
func (h *DatasetHandler) ListModules(c *gin.Context) {
	modules := h.data.ModuleWrappers()
	keys := make([]string, 0, len(modules))
	for key := range modules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	views := make([]moduleView, 0, len(keys))
	for _, key := range keys {
		views = append(views, newModuleView(modules[key]))
	}
	response.JSON(c, http.StatusOK, views)
}

// GetModule returns one module by key.
func (h *DatasetHandler) GetModule(c *gin.Context) {
	module := h.data.ModuleWrapper(c.Param("key"))
	if module == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.JSON(c, http.StatusOK, newModuleView(module))
}

// ListUnits returns every unit ordered by key.
func (h *DatasetHandler) ListUnits(c *gin.Context) {
	units := h.data.UnitWrappers()
	keys := make([]string, 0, len(units))
	for key := range units {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	views := make([]unitView, 0, len(keys))
	for _, key := range keys {
		views = append(views, newUnitView(units[key]))
	}
	response.JSON(c, http.StatusOK, views)
}

// GetUnit returns one unit by key.
func (h *DatasetHandler) GetUnit(c *gin.Context) {
	unit := h.data.UnitWrapper(c.Param("key"))
	if unit == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.JSON(c, http.StatusOK, newUnitView(unit))
}

// ListGroups returns every group ordered by id.
func (h *DatasetHandler) ListGroups(c *gin.Context) {
	groups := h.data.GroupWrappers()
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	views := make([]groupView, 0, len(ids))
	for _, id := range ids {
		views = append(views, newGroupView(groups[id]))
	}
	response.JSON(c, http.StatusOK, views)
}

// GetGroup returns one group by id.
func (h *DatasetHandler) GetGroup(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid group id"))
		return
	}
	group := h.data.GroupWrapper(id)
	if group == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.JSON(c, http.StatusOK, newGroupView(group))
}

// ListSessions returns every session ordered by id.
func (h *DatasetHandler) ListSessions(c *gin.Context) {
	sessions := h.data.SessionWrappers()
	ids := make([]int, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	views := make([]sessionView, 0, len(ids))
	for _, id := range ids {
		views = append(views, newSessionView(sessions[id]))
	}
	response.JSON(c, http.StatusOK, views)
}

// GetSession returns one session by id.
func (h *DatasetHandler) GetSession(c *gin.Context) {
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
	response.JSON(c, http.StatusOK, newSessionView(session))
}
