// Package edit contains the editor objects sitting between a UI surface and
// the data service. An editor holds a working copy of one wrapper's fields,
// tracks dirtiness, validates on persist and writes through the data
// service. The wrapper and its backing row are only touched when validation
// passed.
package edit

import (
	"fmt"
	"strings"

	"github.com/curriculum-tools/dataeditor/internal/entity"
	"github.com/curriculum-tools/dataeditor/internal/events"
	"github.com/curriculum-tools/dataeditor/internal/models"
	"github.com/curriculum-tools/dataeditor/internal/service"
	apperrors "github.com/curriculum-tools/dataeditor/pkg/errors"
	"github.com/curriculum-tools/dataeditor/pkg/observable"
)

// CourseEditor edits one course. Load an existing wrapper with SetCourse or
// start blank for a new course; Persist validates, recomputes the course key
// and realigns the major/minor back-links on both sides before pushing the
// change.
type CourseEditor struct {
	dataService *service.DataService
	course      *entity.CourseWrapper
	unsubscribe func()

	Dirty *observable.Cell[bool]

	shortName    string
	longName     string
	degree       models.CourseDegree
	po           int
	creditPoints int
	kzfa         models.Kzfa
	majorKeys    []string
	minorKeys    []string
}

// NewCourseEditor builds an editor bound to the data service. The editor
// resets itself when its course is deleted or the graph is reloaded.
func NewCourseEditor(dataService *service.DataService) *CourseEditor {
	e := &CourseEditor{
		dataService: dataService,
		Dirty:       observable.NewCell(false),
		kzfa:        models.KzfaMajor,
	}
	e.unsubscribe = dataService.ChangeEventSource().Subscribe(func(event events.DataChangeEvent) {
		switch event.Type {
		case events.ReloadDb:
			e.reset()
		case events.DeleteEntity:
			if e.course != nil && event.ChangedEntity == entity.Wrapper(e.course) {
				e.reset()
			}
		}
	})
	return e
}

// Close detaches the editor from the change bus.
func (e *CourseEditor) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

func (e *CourseEditor) reset() {
	e.course = nil
	e.shortName = ""
	e.longName = ""
	e.degree = ""
	e.po = 0
	e.creditPoints = 0
	e.kzfa = models.KzfaMajor
	e.majorKeys = nil
	e.minorKeys = nil
	e.Dirty.Set(false)
}

// SetCourse loads the wrapper's current state into the working copy.
func (e *CourseEditor) SetCourse(course *entity.CourseWrapper) {
	e.course = course
	if course == nil {
		e.reset()
		return
	}
	e.shortName = course.ShortName.Get()
	e.longName = course.LongName.Get()
	e.degree = course.Degree.Get()
	e.po = course.PO.Get()
	e.creditPoints = course.CreditPoints.Get()
	e.kzfa = course.Kzfa.Get()
	e.majorKeys = nil
	for _, major := range course.MajorCourses.Values() {
		e.majorKeys = append(e.majorKeys, major.Key.Get())
	}
	e.minorKeys = nil
	for _, minor := range course.MinorCourses.Values() {
		e.minorKeys = append(e.minorKeys, minor.Key.Get())
	}
	e.Dirty.Set(false)
}

// Course returns the wrapper under edit, nil when the editor is blank.
func (e *CourseEditor) Course() *entity.CourseWrapper { return e.course }

func (e *CourseEditor) SetShortName(v string) {
	e.shortName = v
	e.Dirty.Set(true)
}

func (e *CourseEditor) SetLongName(v string) {
	e.longName = v
	e.Dirty.Set(true)
}

func (e *CourseEditor) SetDegree(v models.CourseDegree) {
	e.degree = v
	e.Dirty.Set(true)
}

func (e *CourseEditor) SetPO(v int) {
	e.po = v
	e.Dirty.Set(true)
}

func (e *CourseEditor) SetCreditPoints(v int) {
	e.creditPoints = v
	e.Dirty.Set(true)
}

func (e *CourseEditor) SetKzfa(v models.Kzfa) {
	e.kzfa = v
	e.Dirty.Set(true)
}

// SetMajorKeys replaces the selected majors of a minor course.
func (e *CourseEditor) SetMajorKeys(keys []string) {
	e.majorKeys = append([]string(nil), keys...)
	e.Dirty.Set(true)
}

// SetMinorKeys replaces the selected minors of a major course.
func (e *CourseEditor) SetMinorKeys(keys []string) {
	e.minorKeys = append([]string(nil), keys...)
	e.Dirty.Set(true)
}

// validate checks the working copy in a fixed order so the first broken
// field wins: name, degree, credit points, po.
func (e *CourseEditor) validate() error {
	if strings.TrimSpace(e.shortName) == "" || strings.TrimSpace(e.longName) == "" {
		return apperrors.ErrCourseName
	}
	if e.degree != models.DegreeBachelor && e.degree != models.DegreeMaster {
		return apperrors.ErrCourseDegree
	}
	if e.creditPoints < 0 {
		return apperrors.ErrCourseCredits
	}
	if e.po <= 0 {
		return apperrors.ErrCoursePo
	}
	return nil
}

// courseKey derives the canonical key from the working copy, e.g.
// "BK-INF-H-2016".
func (e *CourseEditor) courseKey() string {
	return fmt.Sprintf("%s-%s-%s-%d",
		strings.ToUpper(string(e.degree)),
		strings.ToUpper(strings.TrimSpace(e.shortName)),
		e.kzfa,
		e.po)
}

// Persist validates the working copy, writes it through to the wrapper and
// its row, realigns the major/minor relation on both sides and hands the
// result to the data service. The editor stays dirty when validation or the
// store fails.
func (e *CourseEditor) Persist() error {
	if err := e.validate(); err != nil {
		return err
	}

	fresh := e.course == nil
	if fresh {
		e.course = entity.NewCourseWrapper(&models.Course{})
	}
	course := e.course.Course()

	course.ShortName = e.shortName
	course.LongName = e.longName
	course.Degree = e.degree
	course.PO = e.po
	course.CreditPoints = e.creditPoints
	course.Kzfa = e.kzfa
	course.Key = e.courseKey()

	e.course.ShortName.Set(course.ShortName)
	e.course.LongName.Set(course.LongName)
	e.course.Degree.Set(course.Degree)
	e.course.PO.Set(course.PO)
	e.course.CreditPoints.Set(course.CreditPoints)
	e.course.Kzfa.Set(course.Kzfa)
	e.course.Key.Set(course.Key)

	var peers []*entity.CourseWrapper
	if course.IsMajor() {
		peers = e.applyMinors()
	} else {
		peers = e.applyMajors()
	}

	var err error
	if fresh {
		err = e.dataService.Insert(e.course)
	} else {
		err = e.dataService.Store(e.course)
	}
	if err != nil {
		return err
	}
	// The peers' relation rows changed too; store them so a reload sees the
	// link from both sides.
	for _, peer := range peers {
		if err := e.dataService.Store(peer); err != nil {
			return err
		}
	}
	e.Dirty.Set(false)
	return nil
}

// applyMinors replaces the minors of a major course. The link is stored
// symmetrically: the minor's own minor set and raw key list receive the major
// as back-link, so both sides resolve the relation after a reload. It returns
// every peer whose relation changed.
func (e *CourseEditor) applyMinors() []*entity.CourseWrapper {
	selected := make(map[string]*entity.CourseWrapper, len(e.minorKeys))
	for _, key := range e.minorKeys {
		if minor := e.dataService.CourseWrapper(key); minor != nil {
			selected[key] = minor
		}
	}

	var changed []*entity.CourseWrapper
	for _, minor := range e.course.MinorCourses.Values() {
		if _, keep := selected[minor.Key.Get()]; !keep {
			e.course.MinorCourses.Remove(minor)
			minor.MinorCourses.Remove(e.course)
			minor.Course().MinorKeys = removeKey(minor.Course().MinorKeys, e.course.Key.Get())
			changed = append(changed, minor)
		}
	}
	keys := make([]string, 0, len(selected))
	for key, minor := range selected {
		keys = append(keys, key)
		if !e.course.MinorCourses.Contains(minor) {
			changed = append(changed, minor)
		}
		e.course.MinorCourses.Add(minor)
		minor.MinorCourses.Add(e.course)
		minor.Course().MinorKeys = appendKey(minor.Course().MinorKeys, e.course.Key.Get())
	}
	e.course.Course().MinorKeys = keys
	return changed
}

// applyMajors is the mirror image for a minor course selecting its majors.
func (e *CourseEditor) applyMajors() []*entity.CourseWrapper {
	selected := make(map[string]*entity.CourseWrapper, len(e.majorKeys))
	for _, key := range e.majorKeys {
		if major := e.dataService.CourseWrapper(key); major != nil {
			selected[key] = major
		}
	}

	var changed []*entity.CourseWrapper
	for _, major := range e.course.MajorCourses.Values() {
		if _, keep := selected[major.Key.Get()]; !keep {
			e.course.MajorCourses.Remove(major)
			major.MajorCourses.Remove(e.course)
			major.Course().MajorKeys = removeKey(major.Course().MajorKeys, e.course.Key.Get())
			changed = append(changed, major)
		}
	}
	keys := make([]string, 0, len(selected))
	for key, major := range selected {
		keys = append(keys, key)
		if !e.course.MajorCourses.Contains(major) {
			changed = append(changed, major)
		}
		e.course.MajorCourses.Add(major)
		major.MajorCourses.Add(e.course)
		major.Course().MajorKeys = appendKey(major.Course().MajorKeys, e.course.Key.Get())
	}
	e.course.Course().MajorKeys = keys
	return changed
}

// Delete removes the course under edit; the delete notification resets the
// editor when the store accepted it.
func (e *CourseEditor) Delete() error {
	if e.course == nil {
		return nil
	}
	return e.dataService.Delete(e.course)
}

func removeKey(keys []string, key string) []string {
	out := keys[:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

func appendKey(keys []string, key string) []string {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}
