package service

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/curriculum-tools/dataeditor/internal/entity"
	"github.com/curriculum-tools/dataeditor/internal/events"
	"github.com/curriculum-tools/dataeditor/pkg/observable"
)

// collections holds one complete wrapper graph. The data service builds a
// fresh instance on every load and swaps it in whole, so observers never see
// a half-resolved graph.
type collections struct {
	courses       map[string]*entity.CourseWrapper
	majorCourses  []*entity.CourseWrapper
	minorCourses  []*entity.CourseWrapper
	levels        map[int]*entity.LevelWrapper
	modules       map[string]*entity.ModuleWrapper
	moduleLevels  map[int]*entity.ModuleLevelWrapper
	abstractUnits map[string]*entity.AbstractUnitWrapper
	units         map[string]*entity.UnitWrapper
	groups        map[int]*entity.GroupWrapper
	sessions      map[int]*entity.SessionWrapper
}

func newCollections() *collections {
	return &collections{
		courses:       make(map[string]*entity.CourseWrapper),
		levels:        make(map[int]*entity.LevelWrapper),
		modules:       make(map[string]*entity.ModuleWrapper),
		moduleLevels:  make(map[int]*entity.ModuleLevelWrapper),
		abstractUnits: make(map[string]*entity.AbstractUnitWrapper),
		units:         make(map[string]*entity.UnitWrapper),
		groups:        make(map[int]*entity.GroupWrapper),
		sessions:      make(map[int]*entity.SessionWrapper),
	}
}

// DataService owns the wrapper graph and the data change bus. It reloads the
// graph whenever the db service replaces the datasource; editors persist
// through Store, Delete and Insert, which report their outcome to the caller
// and publish a notification on the bus only after the write succeeded.
type DataService struct {
	logger   *zap.Logger
	newRepos RepositoryFactory

	changeEventSource *observable.Source[events.DataChangeEvent]

	mu    sync.RWMutex
	repos *Repositories
	cols  *collections

	onLoad func(time.Duration)
}

// NewDataService wires the data service to the db service's datasource cell
// and to its own change bus. The factory is invoked once per datasource
// replacement.
func NewDataService(dbService *DbService, newRepos RepositoryFactory, logger *zap.Logger) *DataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DataService{
		logger:            logger,
		newRepos:          newRepos,
		changeEventSource: observable.NewSource[events.DataChangeEvent](),
		cols:              newCollections(),
	}
	dbService.DataSource().Subscribe(func(db *sqlx.DB) {
		if db == nil {
			s.clear()
			return
		}
		s.loadData(db)
	})
	return s
}

// ChangeEventSource returns the bus carrying reload/store/delete/insert
// notifications.
func (s *DataService) ChangeEventSource() *observable.Source[events.DataChangeEvent] {
	return s.changeEventSource
}

// Store persists one wrapper's backing row and publishes the store
// notification. A failed write returns its error to the caller and leaves
// the bus silent, so a subscriber never hears about a row that was not
// written. Concurrent callers each get their own outcome.
func (s *DataService) Store(w entity.Wrapper) error {
	stored, err := s.storeEntity(w)
	if err != nil {
		return err
	}
	if stored {
		s.changeEventSource.Push(events.NewChangeEvent(events.StoreEntity, w))
	}
	return nil
}

// Delete removes a wrapper from the graph and the store, then publishes the
// delete notification.
func (s *DataService) Delete(w entity.Wrapper) error {
	deleted, err := s.deleteEntity(w)
	if err != nil {
		return err
	}
	if deleted {
		s.changeEventSource.Push(events.NewChangeEvent(events.DeleteEntity, w))
	}
	return nil
}

// Insert adds a freshly created wrapper to the graph, persists it and
// publishes the insert notification.
func (s *DataService) Insert(w entity.Wrapper) error {
	inserted, err := s.insertEntity(w)
	if err != nil {
		return err
	}
	if inserted {
		s.changeEventSource.Push(events.NewChangeEvent(events.InsertNewEntity, w))
	}
	return nil
}

// clear drops the graph, e.g. after the store was closed.
func (s *DataService) clear() {
	s.mu.Lock()
	s.repos = nil
	s.cols = newCollections()
	s.mu.Unlock()
	s.changeEventSource.Push(events.NewReloadEvent())
}

// loadData rebuilds the whole wrapper graph from the given datasource. The
// flat pass wraps every row into its keyed collection; the nested pass
// resolves the raw relation keys into wrapper references. References to rows
// that do not exist are logged and skipped, a damaged store still loads.
// Observers see exactly one reload notification, after both passes finished.
func (s *DataService) loadData(db *sqlx.DB) {
	ctx := context.Background()
	started := time.Now()
	repos := s.newRepos(db)

	cols, err := s.buildGraph(ctx, repos)
	if err != nil {
		s.logger.Sugar().Errorw("failed to load dataset", "error", err)
		return
	}

	s.mu.Lock()
	s.repos = repos
	s.cols = cols
	s.mu.Unlock()

	elapsed := time.Since(started)
	if s.onLoad != nil {
		s.onLoad(elapsed)
	}
	s.logger.Sugar().Infow("dataset loaded",
		"courses", len(cols.courses), "units", len(cols.units), "sessions", len(cols.sessions),
		"duration", elapsed)
	s.changeEventSource.Push(events.NewReloadEvent())
}

// OnLoadComplete registers a hook invoked with the wall time of every
// successful load, before the reload notification goes out.
func (s *DataService) OnLoadComplete(fn func(time.Duration)) {
	s.onLoad = fn
}

func (s *DataService) buildGraph(ctx context.Context, repos *Repositories) (*collections, error) {
	cols := newCollections()
	warn := s.logger.Sugar()

	courses, err := repos.Courses.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	levels, err := repos.Levels.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	modules, err := repos.Modules.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	moduleLevels, err := repos.ModuleLevels.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	abstractUnits, err := repos.AbstractUnits.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	units, err := repos.Units.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := repos.Groups.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := repos.Sessions.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	// Flat pass: every row gets its wrapper and its slot in the keyed
	// collections before any reference is resolved.
	for i := range courses {
		w := entity.NewCourseWrapper(&courses[i])
		cols.courses[courses[i].Key] = w
		if courses[i].IsMajor() {
			cols.majorCourses = append(cols.majorCourses, w)
		} else if courses[i].IsMinor() {
			cols.minorCourses = append(cols.minorCourses, w)
		}
	}
	for i := range levels {
		cols.levels[levels[i].ID] = entity.NewLevelWrapper(&levels[i])
	}
	for i := range modules {
		cols.modules[modules[i].Key] = entity.NewModuleWrapper(&modules[i])
	}
	for i := range moduleLevels {
		cols.moduleLevels[moduleLevels[i].ID] = entity.NewModuleLevelWrapper(&moduleLevels[i])
	}
	for i := range abstractUnits {
		cols.abstractUnits[abstractUnits[i].Key] = entity.NewAbstractUnitWrapper(&abstractUnits[i])
	}
	for i := range units {
		cols.units[units[i].Key] = entity.NewUnitWrapper(&units[i])
	}
	for i := range groups {
		cols.groups[groups[i].ID] = entity.NewGroupWrapper(&groups[i])
	}
	for i := range sessions {
		cols.sessions[sessions[i].ID] = entity.NewSessionWrapper(&sessions[i])
	}

	// Nested pass: raw keys become wrapper references. Both directions of a
	// relation are installed here so no wrapper ever has to chase keys again.
	for _, w := range cols.courses {
		for _, key := range w.Course().MajorKeys {
			major, ok := cols.courses[key]
			if !ok {
				warn.Warnw("course references unknown major", "course", w.Course().Key, "major", key)
				continue
			}
			w.MajorCourses.Add(major)
		}
		for _, key := range w.Course().MinorKeys {
			minor, ok := cols.courses[key]
			if !ok {
				warn.Warnw("course references unknown minor", "course", w.Course().Key, "minor", key)
				continue
			}
			w.MinorCourses.Add(minor)
		}
	}

	for _, w := range cols.levels {
		level := w.Level()
		if level.ParentID != nil {
			parent, ok := cols.levels[*level.ParentID]
			if !ok {
				warn.Warnw("level references unknown parent", "level", level.ID, "parent", *level.ParentID)
			} else {
				w.Parent.Set(parent)
				parent.Children.Add(w)
			}
		}
		if level.CourseKey != nil {
			course, ok := cols.courses[*level.CourseKey]
			if !ok {
				warn.Warnw("level references unknown course", "level", level.ID, "course", *level.CourseKey)
			} else {
				w.Course.Set(course)
			}
		}
		for _, key := range level.ModuleKeys {
			module, ok := cols.modules[key]
			if !ok {
				warn.Warnw("level references unknown module", "level", level.ID, "module", key)
				continue
			}
			w.Modules.Add(module)
			module.Level.Set(w)
		}
	}

	for _, w := range cols.modules {
		module := w.Module()
		for _, key := range module.AbstractUnitKeys {
			abstractUnit, ok := cols.abstractUnits[key]
			if !ok {
				warn.Warnw("module references unknown abstract unit", "module", module.Key, "abstract_unit", key)
				continue
			}
			w.AbstractUnits.Add(abstractUnit)
			abstractUnit.Modules.Add(w)
		}
		for _, key := range module.CourseKeys {
			course, ok := cols.courses[key]
			if !ok {
				warn.Warnw("module references unknown course", "module", module.Key, "course", key)
				continue
			}
			w.Courses.Add(course)
		}
	}

	for _, w := range cols.moduleLevels {
		link := w.ModuleLevel()
		if link.CourseKey != nil {
			if course, ok := cols.courses[*link.CourseKey]; ok {
				w.Course.Set(course)
			} else {
				warn.Warnw("module level references unknown course", "module_level", link.ID, "course", *link.CourseKey)
			}
		}
		if link.ModuleKey != nil {
			if module, ok := cols.modules[*link.ModuleKey]; ok {
				w.Module.Set(module)
				module.ModuleLevels.Add(w)
			} else {
				warn.Warnw("module level references unknown module", "module_level", link.ID, "module", *link.ModuleKey)
			}
		}
		if link.LevelID != nil {
			if level, ok := cols.levels[*link.LevelID]; ok {
				w.Level.Set(level)
			} else {
				warn.Warnw("module level references unknown level", "module_level", link.ID, "level", *link.LevelID)
			}
		}
	}

	for _, w := range cols.units {
		for _, key := range w.Unit().AbstractUnitKeys {
			abstractUnit, ok := cols.abstractUnits[key]
			if !ok {
				warn.Warnw("unit references unknown abstract unit", "unit", w.Unit().Key, "abstract_unit", key)
				continue
			}
			w.AbstractUnits.Add(abstractUnit)
			abstractUnit.Units.Add(w)
		}
	}

	for _, w := range cols.groups {
		group := w.Group()
		if group.UnitKey != nil {
			if unit, ok := cols.units[*group.UnitKey]; ok {
				w.Unit.Set(unit)
				unit.Groups.Add(w)
			} else {
				warn.Warnw("group references unknown unit", "group", group.ID, "unit", *group.UnitKey)
			}
		}
		for _, id := range group.SessionIDs {
			session, ok := cols.sessions[id]
			if !ok {
				warn.Warnw("group references unknown session", "group", group.ID, "session", id)
				continue
			}
			w.Sessions.Add(session)
			session.Group.Set(w)
		}
	}

	return cols, nil
}

// storeEntity persists one wrapper's backing row. Wrappers that are not part
// of the loaded graph are ignored, a stale editor cannot write through. The
// bool reports whether a row was actually written.
func (s *DataService) storeEntity(w entity.Wrapper) (bool, error) {
	ctx := context.Background()
	s.mu.RLock()
	repos := s.repos
	known := s.contains(w)
	s.mu.RUnlock()
	if repos == nil {
		s.logger.Warn("store request without open datasource")
		return false, nil
	}
	if !known {
		s.logger.Sugar().Warnw("ignoring store of unmanaged entity", "entity", w.String())
		return false, nil
	}

	switch changed := w.(type) {
	case *entity.CourseWrapper:
		if err := repos.Courses.Save(ctx, changed.Course()); err != nil {
			return false, err
		}
		s.rekeyCourse(changed)
		return true, nil
	case *entity.LevelWrapper:
		return true, repos.Levels.Save(ctx, changed.Level())
	case *entity.ModuleWrapper:
		if err := repos.Modules.Save(ctx, changed.Module()); err != nil {
			return false, err
		}
		s.rekeyModule(changed)
		return true, nil
	case *entity.ModuleLevelWrapper:
		return true, repos.ModuleLevels.Save(ctx, changed.ModuleLevel())
	case *entity.AbstractUnitWrapper:
		return true, repos.AbstractUnits.Save(ctx, changed.AbstractUnit())
	case *entity.UnitWrapper:
		return true, repos.Units.Save(ctx, changed.Unit())
	case *entity.GroupWrapper:
		return true, repos.Groups.Save(ctx, changed.Group())
	case *entity.SessionWrapper:
		s.syncSessionGroup(changed)
		return true, repos.Sessions.Save(ctx, changed.Session())
	default:
		s.logger.Sugar().Warnw("store request for unknown entity type", "type", w.EntityType())
		return false, nil
	}
}

// syncSessionGroup realigns the group membership sets with the session's
// group cell before the row is written, so moving a session between groups
// updates both sides.
func (s *DataService) syncSessionGroup(w *entity.SessionWrapper) {
	target := w.Group.Get()

	s.mu.RLock()
	groups := make([]*entity.GroupWrapper, 0, len(s.cols.groups))
	for _, g := range s.cols.groups {
		groups = append(groups, g)
	}
	s.mu.RUnlock()

	for _, g := range groups {
		if g != target {
			g.Sessions.Remove(w)
		}
	}
	if target != nil {
		target.Sessions.Add(w)
		id := target.ID()
		w.Session().GroupID = &id
	} else {
		w.Session().GroupID = nil
	}
}

// rekeyCourse moves the wrapper to its current key slot after an edit
// changed the course key, so lookups keep working.
func (s *DataService) rekeyCourse(w *entity.CourseWrapper) {
	key := w.Key.Get()
	s.mu.Lock()
	defer s.mu.Unlock()
	for old, existing := range s.cols.courses {
		if existing == w && old != key {
			delete(s.cols.courses, old)
			s.cols.courses[key] = w
			return
		}
	}
}

func (s *DataService) rekeyModule(w *entity.ModuleWrapper) {
	key := w.Key.Get()
	s.mu.Lock()
	defer s.mu.Unlock()
	for old, existing := range s.cols.modules {
		if existing == w && old != key {
			delete(s.cols.modules, old)
			s.cols.modules[key] = w
			return
		}
	}
}

// contains reports whether the wrapper belongs to the loaded graph. Lookup is
// by identity, not key: edits may have changed the key cells already.
func (s *DataService) contains(w entity.Wrapper) bool {
	switch changed := w.(type) {
	case *entity.CourseWrapper:
		for _, existing := range s.cols.courses {
			if existing == changed {
				return true
			}
		}
	case *entity.LevelWrapper:
		return s.cols.levels[changed.ID()] == changed
	case *entity.ModuleWrapper:
		for _, existing := range s.cols.modules {
			if existing == changed {
				return true
			}
		}
	case *entity.ModuleLevelWrapper:
		return s.cols.moduleLevels[changed.ID()] == changed
	case *entity.AbstractUnitWrapper:
		for _, existing := range s.cols.abstractUnits {
			if existing == changed {
				return true
			}
		}
	case *entity.UnitWrapper:
		for _, existing := range s.cols.units {
			if existing == changed {
				return true
			}
		}
	case *entity.GroupWrapper:
		return s.cols.groups[changed.ID()] == changed
	case *entity.SessionWrapper:
		return s.cols.sessions[changed.ID()] == changed
	}
	return false
}

// deleteEntity removes a wrapper from the graph, detaches every reference
// other wrappers hold to it, and deletes the backing row. The bool reports
// whether the wrapper was part of the graph.
func (s *DataService) deleteEntity(w entity.Wrapper) (bool, error) {
	ctx := context.Background()
	s.mu.RLock()
	repos := s.repos
	known := s.contains(w)
	s.mu.RUnlock()
	if repos == nil {
		s.logger.Warn("delete request without open datasource")
		return false, nil
	}
	if !known {
		s.logger.Sugar().Warnw("ignoring delete of unmanaged entity", "entity", w.String())
		return false, nil
	}

	switch changed := w.(type) {
	case *entity.CourseWrapper:
		s.detachCourse(changed)
		return true, repos.Courses.Delete(ctx, changed.Course().Key)
	case *entity.LevelWrapper:
		s.detachLevel(changed)
		return true, repos.Levels.Delete(ctx, changed.ID())
	case *entity.ModuleWrapper:
		s.detachModule(changed)
		return true, repos.Modules.Delete(ctx, changed.Module().Key)
	case *entity.ModuleLevelWrapper:
		s.detachModuleLevel(changed)
		return true, repos.ModuleLevels.Delete(ctx, changed.ID())
	case *entity.AbstractUnitWrapper:
		s.detachAbstractUnit(changed)
		return true, repos.AbstractUnits.Delete(ctx, changed.AbstractUnit().Key)
	case *entity.UnitWrapper:
		s.detachUnit(changed)
		return true, repos.Units.Delete(ctx, changed.Unit().Key)
	case *entity.GroupWrapper:
		s.detachGroup(changed)
		return true, repos.Groups.Delete(ctx, changed.ID())
	case *entity.SessionWrapper:
		s.detachSession(changed)
		return true, repos.Sessions.Delete(ctx, changed.ID())
	default:
		s.logger.Sugar().Warnw("delete request for unknown entity type", "type", w.EntityType())
		return false, nil
	}
}

// The detach helpers mutate peer wrapper sets outside the collection lock;
// set notifications may run arbitrary subscriber code.

func (s *DataService) detachCourse(w *entity.CourseWrapper) {
	s.mu.Lock()
	for key, existing := range s.cols.courses {
		if existing == w {
			delete(s.cols.courses, key)
		}
	}
	s.cols.majorCourses = removeCourse(s.cols.majorCourses, w)
	s.cols.minorCourses = removeCourse(s.cols.minorCourses, w)
	peers := s.snapshotLocked()
	s.mu.Unlock()

	for _, peer := range peers.courses {
		peer.MajorCourses.Remove(w)
		peer.MinorCourses.Remove(w)
	}
	for _, module := range peers.modules {
		module.Courses.Remove(w)
	}
	for _, level := range peers.levels {
		if level.Course.Get() == w {
			level.Course.Set(nil)
		}
	}
	for _, link := range peers.moduleLevels {
		if link.Course.Get() == w {
			link.Course.Set(nil)
		}
	}
}

func (s *DataService) detachLevel(w *entity.LevelWrapper) {
	s.mu.Lock()
	delete(s.cols.levels, w.ID())
	peers := s.snapshotLocked()
	s.mu.Unlock()

	if parent := w.Parent.Get(); parent != nil {
		parent.Children.Remove(w)
	}
	for _, child := range w.Children.Values() {
		child.Parent.Set(nil)
	}
	for _, module := range peers.modules {
		if module.Level.Get() == w {
			module.Level.Set(nil)
		}
	}
	for _, link := range peers.moduleLevels {
		if link.Level.Get() == w {
			link.Level.Set(nil)
		}
	}
}

func (s *DataService) detachModule(w *entity.ModuleWrapper) {
	s.mu.Lock()
	for key, existing := range s.cols.modules {
		if existing == w {
			delete(s.cols.modules, key)
		}
	}
	peers := s.snapshotLocked()
	s.mu.Unlock()

	for _, abstractUnit := range peers.abstractUnits {
		abstractUnit.Modules.Remove(w)
	}
	for _, level := range peers.levels {
		level.Modules.Remove(w)
	}
	for _, link := range peers.moduleLevels {
		if link.Module.Get() == w {
			link.Module.Set(nil)
		}
	}
}

func (s *DataService) detachModuleLevel(w *entity.ModuleLevelWrapper) {
	s.mu.Lock()
	delete(s.cols.moduleLevels, w.ID())
	s.mu.Unlock()

	if module := w.Module.Get(); module != nil {
		module.ModuleLevels.Remove(w)
	}
}

func (s *DataService) detachAbstractUnit(w *entity.AbstractUnitWrapper) {
	s.mu.Lock()
	for key, existing := range s.cols.abstractUnits {
		if existing == w {
			delete(s.cols.abstractUnits, key)
		}
	}
	peers := s.snapshotLocked()
	s.mu.Unlock()

	for _, module := range peers.modules {
		module.AbstractUnits.Remove(w)
	}
	for _, unit := range peers.units {
		unit.AbstractUnits.Remove(w)
	}
}

func (s *DataService) detachUnit(w *entity.UnitWrapper) {
	s.mu.Lock()
	for key, existing := range s.cols.units {
		if existing == w {
			delete(s.cols.units, key)
		}
	}
	peers := s.snapshotLocked()
	s.mu.Unlock()

	for _, abstractUnit := range peers.abstractUnits {
		abstractUnit.Units.Remove(w)
	}
	for _, group := range peers.groups {
		if group.Unit.Get() == w {
			group.Unit.Set(nil)
		}
	}
}

func (s *DataService) detachGroup(w *entity.GroupWrapper) {
	s.mu.Lock()
	delete(s.cols.groups, w.ID())
	s.mu.Unlock()

	if unit := w.Unit.Get(); unit != nil {
		unit.Groups.Remove(w)
	}
	for _, session := range w.Sessions.Values() {
		session.Group.Set(nil)
	}
}

func (s *DataService) detachSession(w *entity.SessionWrapper) {
	s.mu.Lock()
	delete(s.cols.sessions, w.ID())
	s.mu.Unlock()

	if group := w.Group.Get(); group != nil {
		group.Sessions.Remove(w)
	}
}

// insertEntity adds a freshly created wrapper to the graph and persists its
// row, assigning the generated identity to the backing entity. The bool
// reports whether the wrapper made it into the graph.
func (s *DataService) insertEntity(w entity.Wrapper) (bool, error) {
	ctx := context.Background()
	s.mu.RLock()
	repos := s.repos
	s.mu.RUnlock()
	if repos == nil {
		s.logger.Warn("insert request without open datasource")
		return false, nil
	}

	switch changed := w.(type) {
	case *entity.CourseWrapper:
		if err := repos.Courses.Save(ctx, changed.Course()); err != nil {
			return false, err
		}
		s.mu.Lock()
		s.cols.courses[changed.Course().Key] = changed
		if changed.Course().IsMajor() {
			s.cols.majorCourses = append(s.cols.majorCourses, changed)
		} else if changed.Course().IsMinor() {
			s.cols.minorCourses = append(s.cols.minorCourses, changed)
		}
		s.mu.Unlock()
	case *entity.LevelWrapper:
		if err := repos.Levels.Save(ctx, changed.Level()); err != nil {
			return false, err
		}
		s.mu.Lock()
		s.cols.levels[changed.ID()] = changed
		s.mu.Unlock()
	case *entity.ModuleWrapper:
		if err := repos.Modules.Save(ctx, changed.Module()); err != nil {
			return false, err
		}
		s.mu.Lock()
		s.cols.modules[changed.Module().Key] = changed
		s.mu.Unlock()
	case *entity.ModuleLevelWrapper:
		if err := repos.ModuleLevels.Save(ctx, changed.ModuleLevel()); err != nil {
			return false, err
		}
		s.mu.Lock()
		s.cols.moduleLevels[changed.ID()] = changed
		s.mu.Unlock()
	case *entity.AbstractUnitWrapper:
		if err := repos.AbstractUnits.Save(ctx, changed.AbstractUnit()); err != nil {
			return false, err
		}
		s.mu.Lock()
		s.cols.abstractUnits[changed.AbstractUnit().Key] = changed
		s.mu.Unlock()
	case *entity.UnitWrapper:
		if err := repos.Units.Save(ctx, changed.Unit()); err != nil {
			return false, err
		}
		s.mu.Lock()
		s.cols.units[changed.Unit().Key] = changed
		s.mu.Unlock()
	case *entity.GroupWrapper:
		if err := repos.Groups.Save(ctx, changed.Group()); err != nil {
			return false, err
		}
		s.mu.Lock()
		s.cols.groups[changed.ID()] = changed
		s.mu.Unlock()
	case *entity.SessionWrapper:
		s.syncSessionGroup(changed)
		if err := repos.Sessions.Save(ctx, changed.Session()); err != nil {
			return false, err
		}
		s.mu.Lock()
		s.cols.sessions[changed.ID()] = changed
		s.mu.Unlock()
	default:
		s.logger.Sugar().Warnw("insert request for unknown entity type", "type", w.EntityType())
		return false, nil
	}
	return true, nil
}

// snapshotLocked copies the collection maps while s.mu is held. The copies
// let callers walk the graph and fire set notifications without the lock.
func (s *DataService) snapshotLocked() *collections {
	snap := newCollections()
	for k, v := range s.cols.courses {
		snap.courses[k] = v
	}
	for k, v := range s.cols.levels {
		snap.levels[k] = v
	}
	for k, v := range s.cols.modules {
		snap.modules[k] = v
	}
	for k, v := range s.cols.moduleLevels {
		snap.moduleLevels[k] = v
	}
	for k, v := range s.cols.abstractUnits {
		snap.abstractUnits[k] = v
	}
	for k, v := range s.cols.units {
		snap.units[k] = v
	}
	for k, v := range s.cols.groups {
		snap.groups[k] = v
	}
	for k, v := range s.cols.sessions {
		snap.sessions[k] = v
	}
	return snap
}

func removeCourse(list []*entity.CourseWrapper, w *entity.CourseWrapper) []*entity.CourseWrapper {
	out := list[:0]
	for _, c := range list {
		if c != w {
			out = append(out, c)
		}
	}
	return out
}

// CourseWrappers returns a copy of the keyed course collection.
func (s *DataService) CourseWrappers() map[string]*entity.CourseWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*entity.CourseWrapper, len(s.cols.courses))
	for k, v := range s.cols.courses {
		out[k] = v
	}
	return out
}

// CourseWrapper returns the wrapper stored under the given key, nil when
// absent.
func (s *DataService) CourseWrapper(key string) *entity.CourseWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols.courses[key]
}

// MajorCourseWrappers returns the courses studied as a major, in load order.
func (s *DataService) MajorCourseWrappers() []*entity.CourseWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.CourseWrapper, len(s.cols.majorCourses))
	copy(out, s.cols.majorCourses)
	return out
}

// MinorCourseWrappers returns the courses studied as a minor, in load order.
func (s *DataService) MinorCourseWrappers() []*entity.CourseWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.CourseWrapper, len(s.cols.minorCourses))
	copy(out, s.cols.minorCourses)
	return out
}

// LevelWrappers returns a copy of the level collection keyed by id.
func (s *DataService) LevelWrappers() map[int]*entity.LevelWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]*entity.LevelWrapper, len(s.cols.levels))
	for k, v := range s.cols.levels {
		out[k] = v
	}
	return out
}

// LevelWrapper returns the wrapper stored under the given id, nil when
// absent.
func (s *DataService) LevelWrapper(id int) *entity.LevelWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols.levels[id]
}

// ModuleWrappers returns a copy of the keyed module collection.
func (s *DataService) ModuleWrappers() map[string]*entity.ModuleWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*entity.ModuleWrapper, len(s.cols.modules))
	for k, v := range s.cols.modules {
		out[k] = v
	}
	return out
}

// ModuleWrapper returns the wrapper stored under the given key, nil when
// absent.
func (s *DataService) ModuleWrapper(key string) *entity.ModuleWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols.modules[key]
}

// ModuleLevelWrappers returns a copy of the link collection keyed by id.
func (s *DataService) ModuleLevelWrappers() map[int]*entity.ModuleLevelWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]*entity.ModuleLevelWrapper, len(s.cols.moduleLevels))
	for k, v := range s.cols.moduleLevels {
		out[k] = v
	}
	return out
}

// AbstractUnitWrappers returns a copy of the keyed abstract unit collection.
func (s *DataService) AbstractUnitWrappers() map[string]*entity.AbstractUnitWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*entity.AbstractUnitWrapper, len(s.cols.abstractUnits))
	for k, v := range s.cols.abstractUnits {
		out[k] = v
	}
	return out
}

// AbstractUnitWrapper returns the wrapper stored under the given key, nil
// when absent.
func (s *DataService) AbstractUnitWrapper(key string) *entity.AbstractUnitWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols.abstractUnits[key]
}

// UnitWrappers returns a copy of the keyed unit collection.
func (s *DataService) UnitWrappers() map[string]*entity.UnitWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*entity.UnitWrapper, len(s.cols.units))
	for k, v := range s.cols.units {
		out[k] = v
	}
	return out
}

// UnitWrapper returns the wrapper stored under the given key, nil when
// absent.
func (s *DataService) UnitWrapper(key string) *entity.UnitWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols.units[key]
}

// GroupWrappers returns a copy of the group collection keyed by id.
func (s *DataService) GroupWrappers() map[int]*entity.GroupWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]*entity.GroupWrapper, len(s.cols.groups))
	for k, v := range s.cols.groups {
		out[k] = v
	}
	return out
}

// GroupWrapper returns the wrapper stored under the given id, nil when
// absent.
func (s *DataService) GroupWrapper(id int) *entity.GroupWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols.groups[id]
}

// SessionWrappers returns a copy of the session collection keyed by id.
func (s *DataService) SessionWrappers() map[int]*entity.SessionWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]*entity.SessionWrapper, len(s.cols.sessions))
	for k, v := range s.cols.sessions {
		out[k] = v
	}
	return out
}

// SessionWrapper returns the wrapper stored under the given id, nil when
// absent.
func (s *DataService) SessionWrapper(id int) *entity.SessionWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols.sessions[id]
}
