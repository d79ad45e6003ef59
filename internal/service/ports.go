package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/curriculum-tools/dataeditor/internal/models"
)

// The store ports. One repository exists per entity kind; any backing
// implementation satisfies them, the editor core never sees SQL.

type CourseRepository interface {
	FindAll(ctx context.Context) ([]models.Course, error)
	Save(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, key string) error
}

type LevelRepository interface {
	FindAll(ctx context.Context) ([]models.Level, error)
	Save(ctx context.Context, level *models.Level) error
	Delete(ctx context.Context, id int) error
}

type ModuleRepository interface {
	FindAll(ctx context.Context) ([]models.Module, error)
	Save(ctx context.Context, module *models.Module) error
	Delete(ctx context.Context, key string) error
}

type ModuleLevelRepository interface {
	FindAll(ctx context.Context) ([]models.ModuleLevel, error)
	Save(ctx context.Context, link *models.ModuleLevel) error
	Delete(ctx context.Context, id int) error
}

type AbstractUnitRepository interface {
	FindAll(ctx context.Context) ([]models.AbstractUnit, error)
	Save(ctx context.Context, abstractUnit *models.AbstractUnit) error
	Delete(ctx context.Context, key string) error
}

type UnitRepository interface {
	FindAll(ctx context.Context) ([]models.Unit, error)
	Save(ctx context.Context, unit *models.Unit) error
	Delete(ctx context.Context, key string) error
}

type GroupRepository interface {
	FindAll(ctx context.Context) ([]models.Group, error)
	Save(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id int) error
}

type SessionRepository interface {
	FindAll(ctx context.Context) ([]models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id int) error
}

// Repositories bundles the eight ports backing one datasource.
type Repositories struct {
	Courses       CourseRepository
	Levels        LevelRepository
	Modules       ModuleRepository
	ModuleLevels  ModuleLevelRepository
	AbstractUnits AbstractUnitRepository
	Units         UnitRepository
	Groups        GroupRepository
	Sessions      SessionRepository
}

// RepositoryFactory builds the bundle for a freshly opened datasource. The
// data service calls it on every datasource replacement.
type RepositoryFactory func(db *sqlx.DB) *Repositories
