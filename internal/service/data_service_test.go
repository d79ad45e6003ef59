package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curriculum-tools/dataeditor/internal/entity"
	"github.com/curriculum-tools/dataeditor/internal/events"
	"github.com/curriculum-tools/dataeditor/internal/models"
	"github.com/curriculum-tools/dataeditor/pkg/config"
)

type mockCourseRepo struct {
	rows    []models.Course
	saved   []*models.Course
	deleted []string
	findErr error
	saveErr error
}

func (m *mockCourseRepo) FindAll(ctx context.Context) ([]models.Course, error) {
	return m.rows, m.findErr
}
func (m *mockCourseRepo) Save(ctx context.Context, course *models.Course) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, course)
	return nil
}
func (m *mockCourseRepo) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

type mockLevelRepo struct {
	rows    []models.Level
	saved   []*models.Level
	deleted []int
}

func (m *mockLevelRepo) FindAll(ctx context.Context) ([]models.Level, error) { return m.rows, nil }
func (m *mockLevelRepo) Save(ctx context.Context, level *models.Level) error {
	m.saved = append(m.saved, level)
	return nil
}
func (m *mockLevelRepo) Delete(ctx context.Context, id int) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockModuleRepo struct {
	rows    []models.Module
	saved   []*models.Module
	deleted []string
}

func (m *mockModuleRepo) FindAll(ctx context.Context) ([]models.Module, error) { return m.rows, nil }
func (m *mockModuleRepo) Save(ctx context.Context, module *models.Module) error {
	m.saved = append(m.saved, module)
	return nil
}
func (m *mockModuleRepo) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

type mockModuleLevelRepo struct {
	rows    []models.ModuleLevel
	saved   []*models.ModuleLevel
	deleted []int
}

func (m *mockModuleLevelRepo) FindAll(ctx context.Context) ([]models.ModuleLevel, error) {
	return m.rows, nil
}
func (m *mockModuleLevelRepo) Save(ctx context.Context, link *models.ModuleLevel) error {
	m.saved = append(m.saved, link)
	return nil
}
func (m *mockModuleLevelRepo) Delete(ctx context.Context, id int) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockAbstractUnitRepo struct {
	rows    []models.AbstractUnit
	saved   []*models.AbstractUnit
	deleted []string
}

func (m *mockAbstractUnitRepo) FindAll(ctx context.Context) ([]models.AbstractUnit, error) {
	return m.rows, nil
}
func (m *mockAbstractUnitRepo) Save(ctx context.Context, abstractUnit *models.AbstractUnit) error {
	m.saved = append(m.saved, abstractUnit)
	return nil
}
func (m *mockAbstractUnitRepo) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

type mockUnitRepo struct {
	rows    []models.Unit
	saved   []*models.Unit
	deleted []string
}

func (m *mockUnitRepo) FindAll(ctx context.Context) ([]models.Unit, error) { return m.rows, nil }
func (m *mockUnitRepo) Save(ctx context.Context, unit *models.Unit) error {
	m.saved = append(m.saved, unit)
	return nil
}
func (m *mockUnitRepo) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

type mockGroupRepo struct {
	rows    []models.Group
	saved   []*models.Group
	deleted []int
}

func (m *mockGroupRepo) FindAll(ctx context.Context) ([]models.Group, error) { return m.rows, nil }
func (m *mockGroupRepo) Save(ctx context.Context, group *models.Group) error {
	m.saved = append(m.saved, group)
	return nil
}
func (m *mockGroupRepo) Delete(ctx context.Context, id int) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSessionRepo struct {
	rows    []models.Session
	saved   []*models.Session
	deleted []int
}

func (m *mockSessionRepo) FindAll(ctx context.Context) ([]models.Session, error) {
	return m.rows, nil
}
func (m *mockSessionRepo) Save(ctx context.Context, session *models.Session) error {
	m.saved = append(m.saved, session)
	return nil
}
func (m *mockSessionRepo) Delete(ctx context.Context, id int) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockRepos struct {
	courses       *mockCourseRepo
	levels        *mockLevelRepo
	modules       *mockModuleRepo
	moduleLevels  *mockModuleLevelRepo
	abstractUnits *mockAbstractUnitRepo
	units         *mockUnitRepo
	groups        *mockGroupRepo
	sessions      *mockSessionRepo
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		courses:       &mockCourseRepo{},
		levels:        &mockLevelRepo{},
		modules:       &mockModuleRepo{},
		moduleLevels:  &mockModuleLevelRepo{},
		abstractUnits: &mockAbstractUnitRepo{},
		units:         &mockUnitRepo{},
		groups:        &mockGroupRepo{},
		sessions:      &mockSessionRepo{},
	}
}

func (m *mockRepos) bundle() *Repositories {
	return &Repositories{
		Courses:       m.courses,
		Levels:        m.levels,
		Modules:       m.modules,
		ModuleLevels:  m.moduleLevels,
		AbstractUnits: m.abstractUnits,
		Units:         m.units,
		Groups:        m.groups,
		Sessions:      m.sessions,
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// seedDataset fills the mocks with a small consistent dataset: two linked
// courses, a level under the major, one module, one unit chain and a group
// with two sessions.
func seedDataset(m *mockRepos) {
	m.courses.rows = []models.Course{
		{
			ID: 1, Key: "BK-INF-H-2016", ShortName: "inf", LongName: "Informatik",
			Degree: models.DegreeBachelor, PO: 2016, CreditPoints: 180, Kzfa: models.KzfaMajor,
			MinorKeys: []string{"BK-PHY-N-2016"},
		},
		{
			ID: 2, Key: "BK-PHY-N-2016", ShortName: "phy", LongName: "Physik",
			Degree: models.DegreeBachelor, PO: 2016, CreditPoints: 60, Kzfa: models.KzfaMinor,
			MinorKeys: []string{"BK-INF-H-2016"},
		},
	}
	m.levels.rows = []models.Level{
		{ID: 10, Name: "Wahlbereich", CourseKey: strPtr("BK-INF-H-2016")},
		{ID: 11, Name: "Praktika", ParentID: intPtr(10), ModuleKeys: []string{"M-ALGO"}},
	}
	m.modules.rows = []models.Module{
		{ID: 20, Key: "M-ALGO", Title: "Algorithmen", Pordnr: 4711,
			AbstractUnitKeys: []string{"AU-ALGO-V"}, CourseKeys: []string{"BK-INF-H-2016"}},
	}
	m.moduleLevels.rows = []models.ModuleLevel{
		{ID: 30, CourseKey: strPtr("BK-INF-H-2016"), ModuleKey: strPtr("M-ALGO"), LevelID: intPtr(11)},
	}
	m.abstractUnits.rows = []models.AbstractUnit{
		{ID: 40, Key: "AU-ALGO-V", Title: "Algorithmen Vorlesung", UnitKeys: []string{"U-ALGO-V"}},
	}
	m.units.rows = []models.Unit{
		{ID: 50, Key: "U-ALGO-V", Title: "Algorithmen Vorlesung", AbstractUnitKeys: []string{"AU-ALGO-V"}},
	}
	m.groups.rows = []models.Group{
		{ID: 60, UnitKey: strPtr("U-ALGO-V"), HalfSemester: 1, SessionIDs: []int{70, 71}},
		{ID: 61, UnitKey: strPtr("U-ALGO-V"), HalfSemester: 2},
	}
	m.sessions.rows = []models.Session{
		{ID: 70, GroupID: intPtr(60), Day: "mon", Time: 8, Rhythm: 0, Duration: 2},
		{ID: 71, GroupID: intPtr(60), Day: "wed", Time: 10, Rhythm: 0, Duration: 2},
	}
}

// newDataServiceMock wires a data service to a stub datasource cell; the
// factory hands back the mocks regardless of the handle.
func newDataServiceMock(t *testing.T, m *mockRepos) (*DataService, *DbService, *sqlx.DB) {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dbService := NewDbService(config.DatabaseConfig{}, nil)
	dataService := NewDataService(dbService, func(*sqlx.DB) *Repositories { return m.bundle() }, nil)
	return dataService, dbService, sqlx.NewDb(db, "sqlmock")
}

func TestDataServiceLoadResolvesGraph(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)

	var reloads int
	dataService.ChangeEventSource().Subscribe(func(e events.DataChangeEvent) {
		if e.Type == events.ReloadDb {
			reloads++
		}
	})

	dbService.DataSource().Set(handle)

	assert.Equal(t, 1, reloads, "both passes must complete before the single reload notification")

	major := dataService.CourseWrapper("BK-INF-H-2016")
	minor := dataService.CourseWrapper("BK-PHY-N-2016")
	require.NotNil(t, major)
	require.NotNil(t, minor)
	assert.True(t, major.MinorCourses.Contains(minor))
	assert.True(t, minor.MinorCourses.Contains(major), "the minor relation resolves from both key lists")
	assert.Equal(t, []*entity.CourseWrapper{major}, dataService.MajorCourseWrappers())
	assert.Equal(t, []*entity.CourseWrapper{minor}, dataService.MinorCourseWrappers())

	parent := dataService.LevelWrapper(10)
	child := dataService.LevelWrapper(11)
	require.NotNil(t, parent)
	require.NotNil(t, child)
	assert.Equal(t, parent, child.Parent.Get())
	assert.True(t, parent.Children.Contains(child))
	assert.Equal(t, major, parent.Course.Get())

	module := dataService.ModuleWrapper("M-ALGO")
	require.NotNil(t, module)
	assert.Equal(t, child, module.Level.Get())
	assert.True(t, child.Modules.Contains(module))
	assert.True(t, module.Courses.Contains(major))

	abstractUnit := dataService.AbstractUnitWrapper("AU-ALGO-V")
	unit := dataService.UnitWrapper("U-ALGO-V")
	require.NotNil(t, abstractUnit)
	require.NotNil(t, unit)
	assert.True(t, module.AbstractUnits.Contains(abstractUnit))
	assert.True(t, abstractUnit.Modules.Contains(module))
	assert.True(t, unit.AbstractUnits.Contains(abstractUnit))
	assert.True(t, abstractUnit.Units.Contains(unit))

	group := dataService.GroupWrapper(60)
	session := dataService.SessionWrapper(70)
	require.NotNil(t, group)
	require.NotNil(t, session)
	assert.Equal(t, unit, group.Unit.Get())
	assert.True(t, unit.Groups.Contains(group))
	assert.True(t, group.Sessions.Contains(session))
	assert.Equal(t, group, session.Group.Get())

	link := dataService.ModuleLevelWrappers()[30]
	require.NotNil(t, link)
	assert.Equal(t, major, link.Course.Get())
	assert.Equal(t, module, link.Module.Get())
	assert.Equal(t, child, link.Level.Get())
}

func TestDataServiceLoadToleratesDanglingReferences(t *testing.T) {
	m := newMockRepos()
	m.modules.rows = []models.Module{
		{ID: 20, Key: "M-ORPHAN", Title: "Orphan",
			AbstractUnitKeys: []string{"AU-MISSING"}, CourseKeys: []string{"NO-SUCH-COURSE"}},
	}
	m.levels.rows = []models.Level{
		{ID: 10, Name: "Dangling", ParentID: intPtr(99), CourseKey: strPtr("NO-SUCH-COURSE")},
	}
	dataService, dbService, handle := newDataServiceMock(t, m)

	dbService.DataSource().Set(handle)

	module := dataService.ModuleWrapper("M-ORPHAN")
	require.NotNil(t, module, "a damaged store must still load")
	assert.Equal(t, 0, module.AbstractUnits.Len())
	assert.Equal(t, 0, module.Courses.Len())

	level := dataService.LevelWrapper(10)
	require.NotNil(t, level)
	assert.Nil(t, level.Parent.Get())
	assert.Nil(t, level.Course.Get())
}

func TestDataServiceReloadReplacesGraph(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)

	dbService.DataSource().Set(handle)
	stale := dataService.CourseWrapper("BK-INF-H-2016")
	require.NotNil(t, stale)

	m.courses.rows = []models.Course{
		{ID: 3, Key: "MA-MAT-H-2020", ShortName: "mat", LongName: "Mathematik",
			Degree: models.DegreeMaster, PO: 2020, CreditPoints: 120, Kzfa: models.KzfaMajor},
	}
	dbService.DataSource().Set(handle)

	assert.Nil(t, dataService.CourseWrapper("BK-INF-H-2016"))
	fresh := dataService.CourseWrapper("MA-MAT-H-2020")
	require.NotNil(t, fresh)
	assert.NotSame(t, stale, fresh)
}

func TestDataServiceStoreEntity(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)

	course := dataService.CourseWrapper("BK-INF-H-2016")
	require.NotNil(t, course)

	var stores int
	dataService.ChangeEventSource().Subscribe(func(e events.DataChangeEvent) {
		if e.Type == events.StoreEntity {
			stores++
		}
	})

	require.NoError(t, dataService.Store(course))

	require.Len(t, m.courses.saved, 1)
	assert.Same(t, course.Course(), m.courses.saved[0])
	assert.Equal(t, 1, stores, "observers hear about the write after it succeeded")
}

func TestDataServiceStoreIgnoresUnmanagedEntity(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)

	var stores int
	dataService.ChangeEventSource().Subscribe(func(e events.DataChangeEvent) {
		if e.Type == events.StoreEntity {
			stores++
		}
	})

	stray := entity.NewCourseWrapper(&models.Course{ID: 99, Key: "BK-XXX-H-2016"})
	require.NoError(t, dataService.Store(stray))

	assert.Empty(t, m.courses.saved)
	assert.Zero(t, stores, "an ignored write must not be announced")
}

func TestDataServiceStoreReturnsSaveError(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)

	wantErr := errors.New("disk full")
	m.courses.saveErr = wantErr

	var stores int
	dataService.ChangeEventSource().Subscribe(func(e events.DataChangeEvent) {
		if e.Type == events.StoreEntity {
			stores++
		}
	})

	course := dataService.CourseWrapper("BK-INF-H-2016")
	assert.ErrorIs(t, dataService.Store(course), wantErr)
	assert.Zero(t, stores, "a failed write must not be announced")
}

// Each caller must get the outcome of its own write, even when stores run in
// parallel from different request handlers.
func TestDataServiceConcurrentStoresKeepOwnOutcome(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)

	wantErr := errors.New("disk full")
	m.courses.saveErr = wantErr

	course := dataService.CourseWrapper("BK-INF-H-2016")
	level := dataService.LevelWrapper(10)
	require.NotNil(t, course)
	require.NotNil(t, level)

	var wg sync.WaitGroup
	var courseErr, levelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		courseErr = dataService.Store(course)
	}()
	go func() {
		defer wg.Done()
		levelErr = dataService.Store(level)
	}()
	wg.Wait()

	assert.ErrorIs(t, courseErr, wantErr)
	assert.NoError(t, levelErr)
	require.Len(t, m.levels.saved, 1)
}

func TestDataServiceStoreRekeysCourse(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)

	course := dataService.CourseWrapper("BK-INF-H-2016")
	require.NotNil(t, course)
	course.Course().Key = "MA-INF-H-2016"
	course.Key.Set("MA-INF-H-2016")

	require.NoError(t, dataService.Store(course))

	assert.Nil(t, dataService.CourseWrapper("BK-INF-H-2016"))
	assert.Equal(t, course, dataService.CourseWrapper("MA-INF-H-2016"))
}

func TestDataServiceStoreMovesSessionBetweenGroups(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)

	session := dataService.SessionWrapper(70)
	oldGroup := dataService.GroupWrapper(60)
	newGroup := dataService.GroupWrapper(61)
	require.NotNil(t, session)
	require.NotNil(t, newGroup)

	session.Group.Set(newGroup)
	require.NoError(t, dataService.Store(session))

	assert.False(t, oldGroup.Sessions.Contains(session))
	assert.True(t, newGroup.Sessions.Contains(session))
	require.NotNil(t, session.Session().GroupID)
	assert.Equal(t, 61, *session.Session().GroupID)
	require.Len(t, m.sessions.saved, 1)
}

func TestDataServiceDeleteSession(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)

	session := dataService.SessionWrapper(70)
	group := dataService.GroupWrapper(60)
	require.NotNil(t, session)

	require.NoError(t, dataService.Delete(session))

	assert.Nil(t, dataService.SessionWrapper(70))
	assert.False(t, group.Sessions.Contains(session))
	assert.Equal(t, []int{70}, m.sessions.deleted)
}

func TestDataServiceDeleteCourseDetachesEverywhere(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)

	major := dataService.CourseWrapper("BK-INF-H-2016")
	minor := dataService.CourseWrapper("BK-PHY-N-2016")
	level := dataService.LevelWrapper(10)
	module := dataService.ModuleWrapper("M-ALGO")
	link := dataService.ModuleLevelWrappers()[30]
	require.NotNil(t, major)

	require.NoError(t, dataService.Delete(major))

	assert.Nil(t, dataService.CourseWrapper("BK-INF-H-2016"))
	assert.Empty(t, dataService.MajorCourseWrappers())
	assert.False(t, minor.MinorCourses.Contains(major))
	assert.Nil(t, level.Course.Get())
	assert.False(t, module.Courses.Contains(major))
	assert.Nil(t, link.Course.Get())
	assert.Equal(t, []string{"BK-INF-H-2016"}, m.courses.deleted)
}

func TestDataServiceInsertNewEntity(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)

	created := entity.NewCourseWrapper(&models.Course{
		Key: "MA-CHE-H-2021", ShortName: "che", LongName: "Chemie",
		Degree: models.DegreeMaster, PO: 2021, CreditPoints: 120, Kzfa: models.KzfaMajor,
	})
	require.NoError(t, dataService.Insert(created))

	assert.Equal(t, created, dataService.CourseWrapper("MA-CHE-H-2021"))
	assert.Contains(t, dataService.MajorCourseWrappers(), created)
	require.Len(t, m.courses.saved, 1)
}

func TestDataServiceClosedDatasourceClearsGraph(t *testing.T) {
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)
	require.NotEmpty(t, dataService.CourseWrappers())

	var reloads int
	dataService.ChangeEventSource().Subscribe(func(e events.DataChangeEvent) {
		if e.Type == events.ReloadDb {
			reloads++
		}
	})

	dbService.DataSource().Set(nil)

	assert.Equal(t, 1, reloads)
	assert.Empty(t, dataService.CourseWrappers())
	assert.Empty(t, dataService.SessionWrappers())
}
