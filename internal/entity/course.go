package entity

import (
	"github.com/curriculum-tools/dataeditor/internal/models"
	"github.com/curriculum-tools/dataeditor/pkg/observable"
)

// CourseWrapper adapts a course row. The major/minor relation sets hold peer
// course wrappers resolved through the data service's keyed collections, so
// the course graph may be cyclic.
type CourseWrapper struct {
	course *models.Course

	Key          *observable.Cell[string]
	ShortName    *observable.Cell[string]
	LongName     *observable.Cell[string]
	Degree       *observable.Cell[models.CourseDegree]
	PO           *observable.Cell[int]
	CreditPoints *observable.Cell[int]
	Kzfa         *observable.Cell[models.Kzfa]
	MajorCourses *observable.Set[*CourseWrapper]
	MinorCourses *observable.Set[*CourseWrapper]
}

// NewCourseWrapper builds the observable view of the given course.
func NewCourseWrapper(course *models.Course) *CourseWrapper {
	w := &CourseWrapper{
		course:       course,
		MajorCourses: observable.NewSet[*CourseWrapper](),
		MinorCourses: observable.NewSet[*CourseWrapper](),
	}
	if course != nil {
		w.Key = observable.NewCell(course.Key)
		w.ShortName = observable.NewCell(course.ShortName)
		w.LongName = observable.NewCell(course.LongName)
		w.Degree = observable.NewCell(course.Degree)
		w.PO = observable.NewCell(course.PO)
		w.CreditPoints = observable.NewCell(course.CreditPoints)
		w.Kzfa = observable.NewCell(course.Kzfa)
	} else {
		w.Key = observable.NewCell("")
		w.ShortName = observable.NewCell("")
		w.LongName = observable.NewCell("")
		w.Degree = observable.NewCell(models.CourseDegree(""))
		w.PO = observable.NewCell(0)
		w.CreditPoints = observable.NewCell(0)
		w.Kzfa = observable.NewCell(models.Kzfa(""))
	}
	return w
}

// Course returns the backing entity. The reference is fixed for the lifetime
// of the wrapper.
func (w *CourseWrapper) Course() *models.Course {
	return w.course
}

// EntityType implements Wrapper.
func (w *CourseWrapper) EntityType() EntityType {
	return TypeCourse
}

func (w *CourseWrapper) String() string {
	if w.course == nil {
		return ""
	}
	if name := w.LongName.Get(); name != "" {
		return name
	}
	return w.Key.Get()
}
