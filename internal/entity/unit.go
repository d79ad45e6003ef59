package entity

import (
	"github.com/curriculum-tools/dataeditor/internal/models"
	"github.com/curriculum-tools/dataeditor/pkg/observable"
)

// AbstractUnitWrapper adapts an abstract_units row.
type AbstractUnitWrapper struct {
	abstractUnit *models.AbstractUnit

	Key     *observable.Cell[string]
	Title   *observable.Cell[string]
	Modules *observable.Set[*ModuleWrapper]
	Units   *observable.Set[*UnitWrapper]
}

// NewAbstractUnitWrapper builds the observable view of the given abstract unit.
func NewAbstractUnitWrapper(abstractUnit *models.AbstractUnit) *AbstractUnitWrapper {
	w := &AbstractUnitWrapper{
		abstractUnit: abstractUnit,
		Modules:      observable.NewSet[*ModuleWrapper](),
		Units:        observable.NewSet[*UnitWrapper](),
	}
	if abstractUnit != nil {
		w.Key = observable.NewCell(abstractUnit.Key)
		w.Title = observable.NewCell(abstractUnit.Title)
	} else {
		w.Key = observable.NewCell("")
		w.Title = observable.NewCell("")
	}
	return w
}

// AbstractUnit returns the backing entity.
func (w *AbstractUnitWrapper) AbstractUnit() *models.AbstractUnit {
	return w.abstractUnit
}

// EntityType implements Wrapper.
func (w *AbstractUnitWrapper) EntityType() EntityType {
	return TypeAbstractUnit
}

func (w *AbstractUnitWrapper) String() string {
	if w.abstractUnit == nil {
		return ""
	}
	return w.Title.Get()
}

// UnitWrapper adapts a units row.
type UnitWrapper struct {
	unit *models.Unit

	Key           *observable.Cell[string]
	Title         *observable.Cell[string]
	AbstractUnits *observable.Set[*AbstractUnitWrapper]
	Groups        *observable.Set[*GroupWrapper]
}

// NewUnitWrapper builds the observable view of the given unit.
func NewUnitWrapper(unit *models.Unit) *UnitWrapper {
	w := &UnitWrapper{
		unit:          unit,
		AbstractUnits: observable.NewSet[*AbstractUnitWrapper](),
		Groups:        observable.NewSet[*GroupWrapper](),
	}
	if unit != nil {
		w.Key = observable.NewCell(unit.Key)
		w.Title = observable.NewCell(unit.Title)
	} else {
		w.Key = observable.NewCell("")
		w.Title = observable.NewCell("")
	}
	return w
}

// Unit returns the backing entity.
func (w *UnitWrapper) Unit() *models.Unit {
	return w.unit
}

// EntityType implements Wrapper.
func (w *UnitWrapper) EntityType() EntityType {
	return TypeUnit
}

func (w *UnitWrapper) String() string {
	if w.unit == nil {
		return ""
	}
	return w.Title.Get()
}
