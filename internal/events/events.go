// Package events defines the typed payloads of the two editor buses: DbEvent
// for datasource lifecycle requests and DataChangeEvent for wrapper-graph
// changes. Both buses are observable.Source channels with synchronous
// push-order delivery.
package events

import "github.com/curriculum-tools/dataeditor/internal/entity"

// DbEventType enumerates datasource lifecycle requests.
type DbEventType int

const (
	LoadDb DbEventType = iota
	UpdateDb
	CloseDb
)

// DbEvent is consumed by the db service. DbFile is set for LoadDb, Changed
// for UpdateDb.
type DbEvent struct {
	Type    DbEventType
	DbFile  string
	Changed entity.Wrapper
}

// NewLoadDbEvent requests opening the SQLite file at the given path.
func NewLoadDbEvent(dbFile string) DbEvent {
	return DbEvent{Type: LoadDb, DbFile: dbFile}
}

// NewUpdateDbEvent announces an entity changed outside the regular persist
// path. Currently serviced as a no-op placeholder for hot updates.
func NewUpdateDbEvent(changed entity.Wrapper) DbEvent {
	return DbEvent{Type: UpdateDb, Changed: changed}
}

// NewCloseDbEvent requests dropping the current datasource.
func NewCloseDbEvent() DbEvent {
	return DbEvent{Type: CloseDb}
}

// DataChangeType enumerates wrapper-graph changes.
type DataChangeType int

const (
	ReloadDb DataChangeType = iota
	StoreEntity
	DeleteEntity
	InsertNewEntity
)

// ChangeEntity reports whether events of this type carry a wrapper.
func (t DataChangeType) ChangeEntity() bool {
	return t == StoreEntity || t == DeleteEntity || t == InsertNewEntity
}

// DataChangeEvent is pushed on the data-change bus. ChangedEntity is nil for
// ReloadDb; ChangedType optionally names the parent context of a new entity.
type DataChangeEvent struct {
	Type          DataChangeType
	ChangedEntity entity.Wrapper
	ChangedType   entity.EntityType
}

// NewReloadEvent announces that the wrapper graph was rebuilt.
func NewReloadEvent() DataChangeEvent {
	return DataChangeEvent{Type: ReloadDb}
}

// NewChangeEvent builds an entity-carrying event. It panics when the type
// does not carry an entity, mirroring the constructor contract of the bus.
func NewChangeEvent(changeType DataChangeType, changed entity.Wrapper) DataChangeEvent {
	if !changeType.ChangeEntity() {
		panic("events: change type does not carry an entity")
	}
	return DataChangeEvent{Type: changeType, ChangedEntity: changed}
}

// NewChangeEventFor is NewChangeEvent with the parent-context discriminator.
func NewChangeEventFor(changeType DataChangeType, changed entity.Wrapper, changedType entity.EntityType) DataChangeEvent {
	event := NewChangeEvent(changeType, changed)
	event.ChangedType = changedType
	return event
}
