package entity

import (
	"github.com/curriculum-tools/dataeditor/internal/models"
	"github.com/curriculum-tools/dataeditor/pkg/observable"
)

// ModuleWrapper adapts a module row.
type ModuleWrapper struct {
	module *models.Module

	Key           *observable.Cell[string]
	Title         *observable.Cell[string]
	Pordnr        *observable.Cell[int]
	ElectiveUnits *observable.Cell[int]
	Bundled       *observable.Cell[bool]
	AbstractUnits *observable.Set[*AbstractUnitWrapper]
	Courses       *observable.Set[*CourseWrapper]
	Level         *observable.Cell[*LevelWrapper]
	ModuleLevels  *observable.Set[*ModuleLevelWrapper]
}

// NewModuleWrapper builds the observable view of the given module.
func NewModuleWrapper(module *models.Module) *ModuleWrapper {
	w := &ModuleWrapper{
		module:        module,
		AbstractUnits: observable.NewSet[*AbstractUnitWrapper](),
		Courses:       observable.NewSet[*CourseWrapper](),
		Level:         observable.NewCell[*LevelWrapper](nil),
		ModuleLevels:  observable.NewSet[*ModuleLevelWrapper](),
	}
	if module != nil {
		w.Key = observable.NewCell(module.Key)
		w.Title = observable.NewCell(module.Title)
		w.Pordnr = observable.NewCell(module.Pordnr)
		w.ElectiveUnits = observable.NewCell(module.ElectiveUnits)
		w.Bundled = observable.NewCell(module.Bundled)
	} else {
		w.Key = observable.NewCell("")
		w.Title = observable.NewCell("")
		w.Pordnr = observable.NewCell(0)
		w.ElectiveUnits = observable.NewCell(0)
		w.Bundled = observable.NewCell(false)
	}
	return w
}

// Module returns the backing entity.
func (w *ModuleWrapper) Module() *models.Module {
	return w.module
}

// EntityType implements Wrapper.
func (w *ModuleWrapper) EntityType() EntityType {
	return TypeModule
}

func (w *ModuleWrapper) String() string {
	if w.module == nil {
		return ""
	}
	return w.Title.Get()
}

// ModuleLevelWrapper adapts a module_levels row; all three references may be
// nil after loading a damaged store.
type ModuleLevelWrapper struct {
	moduleLevel *models.ModuleLevel

	Course *observable.Cell[*CourseWrapper]
	Module *observable.Cell[*ModuleWrapper]
	Level  *observable.Cell[*LevelWrapper]
}

// NewModuleLevelWrapper builds the observable view of the given link row.
func NewModuleLevelWrapper(moduleLevel *models.ModuleLevel) *ModuleLevelWrapper {
	return &ModuleLevelWrapper{
		moduleLevel: moduleLevel,
		Course:      observable.NewCell[*CourseWrapper](nil),
		Module:      observable.NewCell[*ModuleWrapper](nil),
		Level:       observable.NewCell[*LevelWrapper](nil),
	}
}

// ModuleLevel returns the backing entity.
func (w *ModuleLevelWrapper) ModuleLevel() *models.ModuleLevel {
	return w.moduleLevel
}

// ID returns the link identity, 0 for a detached wrapper.
func (w *ModuleLevelWrapper) ID() int {
	if w.moduleLevel == nil {
		return 0
	}
	return w.moduleLevel.ID
}

// EntityType implements Wrapper.
func (w *ModuleLevelWrapper) EntityType() EntityType {
	return TypeModuleLevel
}

func (w *ModuleLevelWrapper) String() string {
	if w.moduleLevel == nil {
		return ""
	}
	if module := w.Module.Get(); module != nil {
		return module.String()
	}
	return ""
}
