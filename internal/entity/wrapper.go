// Package entity contains the observable wrappers around the plain relational
// models. Every scalar attribute is exposed as an observable cell and every
// relation as an observable set of peer wrappers, so forms and views can
// subscribe to exactly the pieces they render. Wrappers are created by the
// data service's load pass (or by an explicit new-entity action) and are never
// persisted themselves; only the backing model crosses the repository port.
package entity

// EntityType discriminates wrapper kinds for consumers that erase the
// concrete type, e.g. the change-event bus.
type EntityType string

const (
	TypeCourse       EntityType = "course"
	TypeLevel        EntityType = "level"
	TypeModule       EntityType = "module"
	TypeModuleLevel  EntityType = "module_level"
	TypeAbstractUnit EntityType = "abstract_unit"
	TypeUnit         EntityType = "unit"
	TypeGroup        EntityType = "group"
	TypeSession      EntityType = "session"
)

// Wrapper is the erased view of any entity wrapper.
type Wrapper interface {
	// EntityType returns the wrapper kind.
	EntityType() EntityType
	// String returns a human label for list views. It never panics and
	// returns "" when the backing entity is absent.
	String() string
}

// sentinelInt maps an absent nullable column to the -1 sentinel. 0 remains a
// valid stored value.
func sentinelInt(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}
