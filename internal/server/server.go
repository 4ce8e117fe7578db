// Package server boots the Mosaic API: connections, migrations, services,
// routes and the HTTP listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mosaicpim/mosaic/app/controllers"
	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/app/routes"
	"github.com/mosaicpim/mosaic/app/services"
	"github.com/mosaicpim/mosaic/app/tasks"
	"github.com/mosaicpim/mosaic/config"
	_ "github.com/mosaicpim/mosaic/database/migrations"
	"github.com/mosaicpim/mosaic/pkg/cache"
	"github.com/mosaicpim/mosaic/pkg/event"
	"github.com/mosaicpim/mosaic/pkg/database"
	"github.com/mosaicpim/mosaic/pkg/logger"
	"github.com/mosaicpim/mosaic/pkg/migration"
	"github.com/mosaicpim/mosaic/pkg/mongodb"
	"github.com/mosaicpim/mosaic/pkg/queue"
	"github.com/mosaicpim/mosaic/pkg/router"
	"github.com/mosaicpim/mosaic/pkg/schedule"
	"github.com/mosaicpim/mosaic/pkg/storage"
)

// Server is the fully wired application.
type Server struct {
	Router *router.Router
	Jobs   *services.JobService

	runLogs *logger.MongoHandler // nil unless LOG_MONGO is enabled
}

// New connects every backing store and wires repositories, services,
// controllers and routes. It does not start listening.
func New() (*Server, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("server: load config: %w", err)
	}
	if err := database.Connect(); err != nil {
		return nil, fmt.Errorf("server: connect database: %w", err)
	}

	if err := migration.New(database.DB).Run(); err != nil {
		return nil, fmt.Errorf("server: run migrations: %w", err)
	}

	if err := cache.Connect(); err != nil {
		return nil, fmt.Errorf("server: connect redis: %w", err)
	}
	if err := mongodb.Connect(); err != nil {
		return nil, fmt.Errorf("server: connect mongodb: %w", err)
	}

	var runLogs *logger.MongoHandler
	if config.LogMongo() {
		h, err := logger.NewMongoHandler(config.MongoURI(), config.MongoDatabase(), config.LogMongoCollection())
		if err != nil {
			return nil, fmt.Errorf("server: mongo log mirror: %w", err)
		}
		logger.Attach(h)
		runLogs = h
	}

	storage.Connect()
	queue.UseDB(database.DB)

	jobRepo := repositories.NewJobRepository()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := jobRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("server: ensure job indexes: %w", err)
	}

	states := repositories.NewStateRepository()
	settingsRepo := repositories.NewSettingsRepository(states)
	productRepo := repositories.NewProductRepository(states)
	lock := repositories.NewRedisLock()
	index := repositories.NewRedisUniqueIndex()
	disk := storage.Use(config.StorageDefault())

	validator := services.NewValidatorService(index)
	codec := services.NewCodecService()
	productSvc := services.NewProductService(settingsRepo, productRepo, validator, index)
	registry := services.NewRegistryService(settingsRepo, productRepo)
	jobSvc := services.NewJobService(settingsRepo, productSvc, registry, codec, jobRepo, lock, disk)

	registerCatalogListeners()

	tasks.Runner = jobSvc.Execute
	queue.Register("*tasks.RunJob", func() queue.Job { return &tasks.RunJob{} })
	if config.QueueDriver() == "redis" {
		queue.SetDriver(queue.NewRedisDriver(cache.Client()))
	}
	jobSvc.SetDispatcher(func(tenant, profile, uid string) error {
		return queue.Dispatch(&tasks.RunJob{Tenant: tenant, Profile: profile, UID: uid})
	})

	r := router.New()
	routes.Register(r, routes.Controllers{
		Auth:     controllers.NewAuthController(),
		Settings: controllers.NewSettingsController(registry, jobSvc),
		Products: controllers.NewProductController(productSvc),
		Jobs:     controllers.NewJobController(jobSvc, disk),
	})

	schedule.Daily().Name("artifacts:sweep").WithoutOverlapping().Run(func() {
		if err := jobSvc.SweepArtifacts(); err != nil {
			logger.L.Error("sweep artifacts", "error", err)
		}
	})

	return &Server{Router: r, Jobs: jobSvc, runLogs: runLogs}, nil
}

// registerCatalogListeners consumes the events the catalog core fires.
// Until a search backend is wired in, each payload is written to the run
// log so downstream consumers can be swapped in without touching the core.
func registerCatalogListeners() {
	event.Listen(event.ProductSaved, func(payload interface{}) {
		switch e := payload.(type) {
		case services.ProductEvent:
			logger.L.Info("index product", "tenant", e.Tenant, "sku", e.Product.SKU)
		case services.ProductModelEvent:
			logger.L.Info("index product model", "tenant", e.Tenant, "code", e.Model.Code)
		}
	})
	event.Listen(event.ProductDeleted, func(payload interface{}) {
		switch e := payload.(type) {
		case services.ProductEvent:
			logger.L.Info("remove product from index", "tenant", e.Tenant, "sku", e.Product.SKU)
		case services.ProductModelEvent:
			logger.L.Info("remove product model from index", "tenant", e.Tenant, "code", e.Model.Code)
		}
	})
	event.Listen(event.JobFinished, func(payload interface{}) {
		if job, ok := payload.(models.Job); ok {
			logger.L.Info("job finished", "profile", job.Code, "uid", job.UID, "status", string(job.Status))
		}
	})
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
// In-process queue workers and the scheduler run for the same lifetime.
func (s *Server) Run(ctx context.Context) error {
	if config.QueueDriver() != "redis" {
		queue.StartWorkers(ctx, 2)
	}
	schedule.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           s.Router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		if s.runLogs != nil {
			s.runLogs.Close()
		}
		if err := mongodb.Disconnect(shutdownCtx); err != nil {
			logger.L.Warn("disconnect mongodb", "error", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
