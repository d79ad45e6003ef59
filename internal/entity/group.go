package entity

import (
	"fmt"

	"github.com/curriculum-tools/dataeditor/internal/models"
	"github.com/curriculum-tools/dataeditor/pkg/observable"
)

// GroupWrapper adapts a groups row.
type GroupWrapper struct {
	group *models.Group

	Unit         *observable.Cell[*UnitWrapper]
	HalfSemester *observable.Cell[int]
	Sessions     *observable.Set[*SessionWrapper]
}

// NewGroupWrapper builds the observable view of the given group.
func NewGroupWrapper(group *models.Group) *GroupWrapper {
	w := &GroupWrapper{
		group:    group,
		Unit:     observable.NewCell[*UnitWrapper](nil),
		Sessions: observable.NewSet[*SessionWrapper](),
	}
	if group != nil {
		w.HalfSemester = observable.NewCell(group.HalfSemester)
	} else {
		w.HalfSemester = observable.NewCell(0)
	}
	return w
}

// Group returns the backing entity.
func (w *GroupWrapper) Group() *models.Group {
	return w.group
}

// ID returns the group identity, 0 for a detached wrapper.
func (w *GroupWrapper) ID() int {
	if w.group == nil {
		return 0
	}
	return w.group.ID
}

// EntityType implements Wrapper.
func (w *GroupWrapper) EntityType() EntityType {
	return TypeGroup
}

func (w *GroupWrapper) String() string {
	if w.group == nil {
		return ""
	}
	if unit := w.Unit.Get(); unit != nil {
		return fmt.Sprintf("%s (%d)", unit.String(), w.group.ID)
	}
	return fmt.Sprintf("group %d", w.group.ID)
}

// SessionWrapper adapts a sessions row. Group is the back-reference to the
// owning group; the data service keeps both sides aligned on persist.
type SessionWrapper struct {
	session *models.Session

	Day       *observable.Cell[string]
	Time      *observable.Cell[int]
	Rhythm    *observable.Cell[int]
	Duration  *observable.Cell[int]
	Tentative *observable.Cell[bool]
	Group     *observable.Cell[*GroupWrapper]
}

// NewSessionWrapper builds the observable view of the given session.
func NewSessionWrapper(session *models.Session) *SessionWrapper {
	w := &SessionWrapper{
		session: session,
		Group:   observable.NewCell[*GroupWrapper](nil),
	}
	if session != nil {
		w.Day = observable.NewCell(session.Day)
		w.Time = observable.NewCell(session.Time)
		w.Rhythm = observable.NewCell(session.Rhythm)
		w.Duration = observable.NewCell(session.Duration)
		w.Tentative = observable.NewCell(session.Tentative)
	} else {
		w.Day = observable.NewCell("")
		w.Time = observable.NewCell(0)
		w.Rhythm = observable.NewCell(0)
		w.Duration = observable.NewCell(0)
		w.Tentative = observable.NewCell(false)
	}
	return w
}

// Session returns the backing entity.
func (w *SessionWrapper) Session() *models.Session {
	return w.session
}

// ID returns the session identity, 0 for a detached wrapper.
func (w *SessionWrapper) ID() int {
	if w.session == nil {
		return 0
	}
	return w.session.ID
}

// EntityType implements Wrapper.
func (w *SessionWrapper) EntityType() EntityType {
	return TypeSession
}

func (w *SessionWrapper) String() string {
	if w.session == nil {
		return ""
	}
	return fmt.Sprintf("%s %d", w.Day.Get(), w.Time.Get())
}
