package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/curriculum-tools/dataeditor/internal/events"
	"github.com/curriculum-tools/dataeditor/internal/handler"
	"github.com/curriculum-tools/dataeditor/internal/middleware"
	"github.com/curriculum-tools/dataeditor/internal/repository"
	"github.com/curriculum-tools/dataeditor/internal/service"
	"github.com/curriculum-tools/dataeditor/pkg/config"
	"github.com/curriculum-tools/dataeditor/pkg/logger"
	corsmiddleware "github.com/curriculum-tools/dataeditor/pkg/middleware/cors"
	reqidmiddleware "github.com/curriculum-tools/dataeditor/pkg/middleware/requestid"
	"github.com/curriculum-tools/dataeditor/pkg/watcher"
)

func newRepositories(db *sqlx.DB) *service.Repositories {
	return &service.Repositories{
		Courses:       repository.NewCourseRepository(db),
		Levels:        repository.NewLevelRepository(db),
		Modules:       repository.NewModuleRepository(db),
		ModuleLevels:  repository.NewModuleLevelRepository(db),
		AbstractUnits: repository.NewAbstractUnitRepository(db),
		Units:         repository.NewUnitRepository(db),
		Groups:        repository.NewGroupRepository(db),
		Sessions:      repository.NewSessionRepository(db),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbService := service.NewDbService(cfg.Database, logr)
	dataService := service.NewDataService(dbService, newRepositories, logr)
	exportService, err := service.NewExportService(dataService, cfg.Export, logr, nil, nil)
	if err != nil {
		logr.Sugar().Fatalw("export service init failed", "error", err)
	}
	metricsService := service.NewMetricsService()
	metricsService.Observe(dataService)
	dataService.OnLoadComplete(metricsService.ObserveDatasetLoad)

	if cfg.Watcher.Enabled {
		w, err := watcher.New(cfg.Watcher.Debounce, logr, func(path string) {
			dbService.DbEventSource().Push(events.NewLoadDbEvent(path))
		})
		if err != nil {
			logr.Sugar().Warnw("file watcher disabled", "error", err)
		} else {
			defer w.Close()
			dbService.DbFile().Subscribe(func(path string) {
				if err := w.Watch(path); err != nil {
					logr.Sugar().Warnw("failed to watch store", "file", path, "error", err)
				}
			})
		}
	}

	dbService.Start(ctx)
	defer dbService.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsService))

	handler.Register(r, cfg.APIPrefix, handler.Services{
		Db:      dbService,
		Data:    dataService,
		Export:  exportService,
		Metrics: metricsService,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
