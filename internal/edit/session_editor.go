package edit

import (
	"github.com/curriculum-tools/dataeditor/internal/entity"
	"github.com/curriculum-tools/dataeditor/internal/events"
	"github.com/curriculum-tools/dataeditor/internal/models"
	"github.com/curriculum-tools/dataeditor/internal/service"
	apperrors "github.com/curriculum-tools/dataeditor/pkg/errors"
	"github.com/curriculum-tools/dataeditor/pkg/observable"
)

// Weekdays accepted by the session editor, matching the day column values.
var sessionDays = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true, "fri": true, "sat": true, "sun": true,
}

// SessionEditor edits one session, including moving it to another group. The
// group membership sets are realigned by the data service on persist.
type SessionEditor struct {
	dataService *service.DataService
	session     *entity.SessionWrapper
	unsubscribe func()

	Dirty *observable.Cell[bool]

	day       string
	time      int
	rhythm    int
	duration  int
	tentative bool
	groupID   int
}

// NewSessionEditor builds an editor bound to the data service.
func NewSessionEditor(dataService *service.DataService) *SessionEditor {
	e := &SessionEditor{
		dataService: dataService,
		Dirty:       observable.NewCell(false),
	}
	e.unsubscribe = dataService.ChangeEventSource().Subscribe(func(event events.DataChangeEvent) {
		switch event.Type {
		case events.ReloadDb:
			e.reset()
		case events.DeleteEntity:
			if e.session != nil && event.ChangedEntity == entity.Wrapper(e.session) {
				e.reset()
			}
		}
	})
	return e
}

// Close detaches the editor from the change bus.
func (e *SessionEditor) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

func (e *SessionEditor) reset() {
	e.session = nil
	e.day = ""
	e.time = 0
	e.rhythm = 0
	e.duration = 0
	e.tentative = false
	e.groupID = 0
	e.Dirty.Set(false)
}

// SetSession loads the wrapper's current state into the working copy.
func (e *SessionEditor) SetSession(session *entity.SessionWrapper) {
	e.session = session
	if session == nil {
		e.reset()
		return
	}
	e.day = session.Day.Get()
	e.time = session.Time.Get()
	e.rhythm = session.Rhythm.Get()
	e.duration = session.Duration.Get()
	e.tentative = session.Tentative.Get()
	if group := session.Group.Get(); group != nil {
		e.groupID = group.ID()
	} else {
		e.groupID = 0
	}
	e.Dirty.Set(false)
}

// Session returns the wrapper under edit, nil when the editor is blank.
func (e *SessionEditor) Session() *entity.SessionWrapper { return e.session }

func (e *SessionEditor) SetDay(v string) {
	e.day = v
	e.Dirty.Set(true)
}

func (e *SessionEditor) SetTime(v int) {
	e.time = v
	e.Dirty.Set(true)
}

func (e *SessionEditor) SetRhythm(v int) {
	e.rhythm = v
	e.Dirty.Set(true)
}

func (e *SessionEditor) SetDuration(v int) {
	e.duration = v
	e.Dirty.Set(true)
}

func (e *SessionEditor) SetTentative(v bool) {
	e.tentative = v
	e.Dirty.Set(true)
}

// SetGroupID moves the session to the group with the given id, 0 detaches.
func (e *SessionEditor) SetGroupID(id int) {
	e.groupID = id
	e.Dirty.Set(true)
}

func (e *SessionEditor) validate() error {
	if !sessionDays[e.day] {
		return apperrors.ErrSessionDay
	}
	if e.time <= 0 {
		return apperrors.ErrSessionTime
	}
	if e.duration <= 0 {
		return apperrors.ErrSessionDuration
	}
	return nil
}

// Persist validates the working copy and writes it through to the wrapper,
// its row and the data service. The editor stays dirty on failure.
func (e *SessionEditor) Persist() error {
	if err := e.validate(); err != nil {
		return err
	}

	fresh := e.session == nil
	if fresh {
		e.session = entity.NewSessionWrapper(&models.Session{})
	}
	session := e.session.Session()

	session.Day = e.day
	session.Time = e.time
	session.Rhythm = e.rhythm
	session.Duration = e.duration
	session.Tentative = e.tentative

	e.session.Day.Set(session.Day)
	e.session.Time.Set(session.Time)
	e.session.Rhythm.Set(session.Rhythm)
	e.session.Duration.Set(session.Duration)
	e.session.Tentative.Set(session.Tentative)

	if e.groupID != 0 {
		e.session.Group.Set(e.dataService.GroupWrapper(e.groupID))
	} else {
		e.session.Group.Set(nil)
	}

	var err error
	if fresh {
		err = e.dataService.Insert(e.session)
	} else {
		err = e.dataService.Store(e.session)
	}
	if err != nil {
		return err
	}
	e.Dirty.Set(false)
	return nil
}

// Delete removes the session under edit.
func (e *SessionEditor) Delete() error {
	if e.session == nil {
		return nil
	}
	return e.dataService.Delete(e.session)
}
