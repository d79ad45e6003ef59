package entity

import (
	"github.com/curriculum-tools/dataeditor/internal/models"
	"github.com/curriculum-tools/dataeditor/pkg/observable"
)

// LevelWrapper adapts a level row. Parent/Children mirror the level forest;
// the two always change together (see the data service's nested pass).
// Min, Max, MinCreditPoints and MaxCreditPoints carry -1 when the backing
// column is NULL; 0 is a real bound.
type LevelWrapper struct {
	level *models.Level

	Art             *observable.Cell[string]
	Name            *observable.Cell[string]
	Tm              *observable.Cell[string]
	Min             *observable.Cell[int]
	Max             *observable.Cell[int]
	MinCreditPoints *observable.Cell[int]
	MaxCreditPoints *observable.Cell[int]
	Parent          *observable.Cell[*LevelWrapper]
	Children        *observable.Set[*LevelWrapper]
	Course          *observable.Cell[*CourseWrapper]
	Modules         *observable.Set[*ModuleWrapper]
}

// NewLevelWrapper builds the observable view of the given level.
func NewLevelWrapper(level *models.Level) *LevelWrapper {
	w := &LevelWrapper{
		level:    level,
		Parent:   observable.NewCell[*LevelWrapper](nil),
		Children: observable.NewSet[*LevelWrapper](),
		Course:   observable.NewCell[*CourseWrapper](nil),
		Modules:  observable.NewSet[*ModuleWrapper](),
	}
	if level != nil {
		w.Art = observable.NewCell(level.Art)
		w.Name = observable.NewCell(level.Name)
		w.Tm = observable.NewCell(level.Tm)
		w.Min = observable.NewCell(sentinelInt(level.Min))
		w.Max = observable.NewCell(sentinelInt(level.Max))
		w.MinCreditPoints = observable.NewCell(sentinelInt(level.MinCreditPoints))
		w.MaxCreditPoints = observable.NewCell(sentinelInt(level.MaxCreditPoints))
	} else {
		w.Art = observable.NewCell("")
		w.Name = observable.NewCell("")
		w.Tm = observable.NewCell("")
		w.Min = observable.NewCell(-1)
		w.Max = observable.NewCell(-1)
		w.MinCreditPoints = observable.NewCell(-1)
		w.MaxCreditPoints = observable.NewCell(-1)
	}
	return w
}

// Level returns the backing entity.
func (w *LevelWrapper) Level() *models.Level {
	return w.level
}

// ID returns the level identity, 0 for a detached wrapper.
func (w *LevelWrapper) ID() int {
	if w.level == nil {
		return 0
	}
	return w.level.ID
}

// EntityType implements Wrapper.
func (w *LevelWrapper) EntityType() EntityType {
	return TypeLevel
}

func (w *LevelWrapper) String() string {
	if w.level == nil {
		return ""
	}
	return w.Name.Get()
}
