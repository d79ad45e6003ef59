// Package service contains the two long-lived services of the editor: the db
// service owning the datasource lifecycle and the data service owning the
// wrapper graph. Both are wired together over observable cells and the two
// event buses; neither is a global, the caller owns the instances.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/curriculum-tools/dataeditor/internal/events"
	"github.com/curriculum-tools/dataeditor/pkg/config"
	"github.com/curriculum-tools/dataeditor/pkg/database"
	"github.com/curriculum-tools/dataeditor/pkg/jobs"
	"github.com/curriculum-tools/dataeditor/pkg/observable"
)

// DbService establishes and manages the connection to the SQLite store. Load
// requests arrive on the db event bus and are serviced by a single-worker
// background queue; the only externally visible effect of a load is the
// replacement of the datasource cell. A second load issued while one is
// running replaces the task handle without interrupting the first; the last
// completed load wins the cell.
type DbService struct {
	logger *zap.Logger
	cfg    config.DatabaseConfig

	dbEventSource *observable.Source[events.DbEvent]
	dataSource    *observable.Cell[*sqlx.DB]
	dbFile        *observable.Cell[string]
	task          *observable.Cell[string]

	queue *jobs.Queue
}

// NewDbService wires the db service to its event bus. Call Start before
// pushing load events.
func NewDbService(cfg config.DatabaseConfig, logger *zap.Logger) *DbService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DbService{
		logger:        logger,
		cfg:           cfg,
		dbEventSource: observable.NewSource[events.DbEvent](),
		dataSource:    observable.NewCell[*sqlx.DB](nil),
		dbFile:        observable.NewCell(""),
		task:          observable.NewCell(""),
	}
	s.dbEventSource.Subscribe(s.handleDbEvent)
	s.queue = jobs.NewQueue("db-load", s.runLoad, jobs.QueueConfig{Workers: 1, Logger: logger})
	return s
}

// Start launches the background loader. When the configuration names an
// initial file it is loaded immediately.
func (s *DbService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	if s.cfg.Path != "" {
		s.dbEventSource.Push(events.NewLoadDbEvent(s.cfg.Path))
	}
}

// Stop shuts the loader down and closes the current datasource.
func (s *DbService) Stop() {
	s.queue.Stop()
	if db := s.dataSource.Get(); db != nil {
		_ = db.Close()
	}
	s.dataSource.Set(nil)
}

func (s *DbService) handleDbEvent(event events.DbEvent) {
	switch event.Type {
	case events.LoadDb:
		job := jobs.Job{ID: uuid.NewString(), Type: "load_db", Payload: event.DbFile}
		s.task.Set(job.ID)
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Sugar().Errorw("failed to enqueue load", "file", event.DbFile, "error", err)
			s.task.Set("")
		}
	case events.UpdateDb:
		// Placeholder for hot updates of single entities.
	case events.CloseDb:
		old := s.dataSource.Get()
		s.dataSource.Set(nil)
		s.dbFile.Set("")
		if old != nil {
			_ = old.Close()
		}
	}
}

// runLoad executes on the queue worker. It must not touch the wrapper graph;
// its only effect visible to the rest of the editor is the datasource cell.
func (s *DbService) runLoad(_ context.Context, job jobs.Job) error {
	path, _ := job.Payload.(string)
	db, err := database.OpenSQLite(path, s.cfg)
	if err != nil {
		// Keep the previous datasource so the editor stays on the old dataset.
		s.logger.Sugar().Errorw("failed to open database", "file", path, "error", err)
		return err
	}

	old := s.dataSource.Get()
	s.dbFile.Set(path)
	s.dataSource.Set(db)
	s.task.Set("")
	if old != nil {
		_ = old.Close()
	}
	s.logger.Sugar().Infow("database loaded", "file", path)
	return nil
}

// DbEventSource returns the bus carrying load/update/close requests.
func (s *DbService) DbEventSource() *observable.Source[events.DbEvent] {
	return s.dbEventSource
}

// DataSource returns the cell holding the current datasource handle. Its
// replacement is the sole trigger for the data service reload.
func (s *DbService) DataSource() *observable.Cell[*sqlx.DB] {
	return s.dataSource
}

// DbFile returns the cell holding the path of the open store.
func (s *DbService) DbFile() *observable.Cell[string] {
	return s.dbFile
}

// Task returns the cell holding the id of the pending load job, "" when idle.
func (s *DbService) Task() *observable.Cell[string] {
	return s.task
}
