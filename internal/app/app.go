// Package app builds the process-wide service graph shared by the API server and wishctl.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/timmy/wishpage/internal/api"
	"github.com/timmy/wishpage/internal/config"
	"github.com/timmy/wishpage/internal/logger"
	"github.com/timmy/wishpage/internal/render"
	"github.com/timmy/wishpage/internal/repository"
	"github.com/timmy/wishpage/internal/service"
	"github.com/timmy/wishpage/internal/storage"
	"gorm.io/gorm"
)

// App holds every constructed dependency. Nothing in it is mutated after Build returns.
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	SQL      *sql.DB
	Storage  storage.ObjectStorage
	Services *api.Services
	Pipeline *service.Pipeline
	Importer *service.ImportService
}

// Build connects to the database and object store and wires the services.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.GetDefault().WithField(logger.FieldComponent, "app")

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	objectStorage, mediaServer, err := newStorage(ctx, cfg)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	openai := service.NewOpenAIClient(&service.OpenAIConfig{
		APIKey:               cfg.OpenAI.APIKey,
		BaseURL:              cfg.OpenAI.BaseURL,
		TextModel:            cfg.OpenAI.TextModel,
		VisionModel:          cfg.OpenAI.VisionModel,
		ImageModel:           cfg.OpenAI.ImageModel,
		ImageSize:            cfg.OpenAI.ImageSize,
		DescriptionMaxTokens: cfg.OpenAI.DescriptionMaxTokens,
		Timeout:              cfg.OpenAI.Timeout,
	})
	images, err := service.NewImageGenerator(ctx, &service.ImageProviderConfig{
		Provider:     cfg.Image.Provider,
		GeminiAPIKey: cfg.Image.GeminiAPIKey,
		GeminiModel:  cfg.Image.GeminiModel,
	}, openai)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	music := service.NewMusicClient(&service.MusicConfig{
		BaseURL:      cfg.Music.BaseURL,
		Timeout:      cfg.Music.Timeout,
		PollInterval: cfg.Music.PollInterval,
	})

	renderer, err := render.New()
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	wishRepo := repository.NewWishRepository(db)
	jobs := service.NewJobService(repository.NewJobRepository(db))
	media := service.NewMediaService(objectStorage, cfg.Storage.SignedURLTTL)
	pool := service.NewFanOut(cfg.Generation.Workers, cfg.Generation.RateInterval, cfg.Generation.RateBurst)

	wishes := service.NewWishService(wishRepo, service.NewContentGenerator(openai), cfg.Server.PublicBaseURL)
	descriptions := service.NewDescriptionService(media, openai, pool, jobs)
	derivatives := service.NewDerivativeService(media, images, music, wishRepo, pool, jobs, &service.DerivativeConfig{
		StyleSuffix: cfg.Generation.StyleSuffix,
	})

	log.WithFields(logger.Fields{
		"database":       cfg.Database.Driver,
		"storage":        cfg.Storage.Type,
		"image_provider": cfg.Image.Provider,
		"workers":        cfg.Generation.Workers,
	}).Info("Services initialized")

	return &App{
		Config:  cfg,
		DB:      db,
		SQL:     sqlDB,
		Storage: objectStorage,
		Services: &api.Services{
			Wishes:       wishes,
			Media:        media,
			Descriptions: descriptions,
			Derivatives:  derivatives,
			Jobs:         jobs,
			Idempotency:  service.NewIdempotency(cfg.Idempotency.TTL),
			Renderer:     renderer,
			DB:           sqlDB,
			MediaServer:  mediaServer,
		},
		Pipeline: service.NewPipeline(wishRepo, descriptions, derivatives),
		Importer: service.NewImportService(media, pool),
	}, nil
}

// Close releases the database connection pool.
func (a *App) Close() error {
	return a.SQL.Close()
}

// newStorage returns the object store, plus an HTTP handler when objects are served in-process.
func newStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, http.Handler, error) {
	sc := &storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	}
	if sc.Type == storage.StorageTypeMemory {
		sc.PublicURL = cfg.Server.PublicBaseURL
	}

	objectStorage, err := storage.NewStorage(sc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	switch s := objectStorage.(type) {
	case *storage.MemoryStorage:
		logger.Warn("Using in-memory object storage; media is lost on restart")
		return s, s, nil
	case *storage.S3Storage:
		if cfg.Storage.EnsureBucket {
			if err := s.EnsureBucket(ctx); err != nil {
				return nil, nil, fmt.Errorf("failed to ensure bucket: %w", err)
			}
		}
		logger.Info("Using %s object storage, bucket %s", cfg.Storage.Type, cfg.Storage.Bucket)
	}
	return objectStorage, nil, nil
}
