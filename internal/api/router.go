package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/wishpage/internal/api/handler"
	"github.com/timmy/wishpage/internal/api/middleware"
	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/render"
	"github.com/timmy/wishpage/internal/service"
	"github.com/timmy/wishpage/internal/storage"
)

// Services are the process-wide handles the routes are built from.
// They are constructed once at startup and never mutated afterwards.
type Services struct {
	Wishes       *service.WishService
	Media        *service.MediaService
	Descriptions *service.DescriptionService
	Derivatives  *service.DerivativeService
	Jobs         *service.JobService
	Idempotency  *service.Idempotency
	Renderer     *render.Renderer

	// DB is pinged by /health when set.
	DB handler.Pinger
	// MediaServer serves object URLs in-process; set for memory storage only.
	MediaServer http.Handler
}

// RouterConfig holds transport settings.
type RouterConfig struct {
	Mode           string
	CORS           middleware.CORSConfig
	MaxUploadBytes int64
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(svc *Services, cfg RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORS(cfg.CORS))

	if svc.Renderer != nil {
		r.HTMLRender = svc.Renderer
	}

	healthHandler := handler.NewHealthHandler(svc.DB)
	wishHandler := handler.NewWishHandler(svc.Wishes, svc.Media)
	mediaHandler := handler.NewMediaHandler(svc.Media, svc.Wishes, cfg.MaxUploadBytes)
	generateHandler := handler.NewGenerateHandler(svc.Descriptions, svc.Derivatives, svc.Jobs, svc.Idempotency)

	r.GET("/health", healthHandler.Health)

	// Rendered gift page
	r.GET("/wishes/:id", wishHandler.Page)

	if svc.MediaServer != nil {
		r.GET(storage.MemoryMediaPath+"*key", gin.WrapH(svc.MediaServer))
		r.HEAD(storage.MemoryMediaPath+"*key", gin.WrapH(svc.MediaServer))
	}

	api := r.Group("/api")
	{
		// Wishes
		api.POST("/gift-card", wishHandler.CreateGiftCard)
		api.GET("/wishes", wishHandler.GetWish)

		// Media
		api.POST("/s3-upload", mediaHandler.Upload)
		api.GET("/s3-images", mediaHandler.List(domain.CategoryImages))
		api.GET("/s3-videos", mediaHandler.List(domain.CategoryVideos))
		api.GET("/s3-audios", mediaHandler.List(domain.CategoryAudios))
		api.GET("/s3-generated-photos", mediaHandler.List(domain.CategoryGeneratedImages))

		// Generation
		api.POST("/generate-description", generateHandler.GenerateDescription)
		api.POST("/generate-cute-photos", generateHandler.GenerateCutePhotos)
		api.POST("/generate-songs", generateHandler.GenerateSongs)
		api.GET("/jobs", generateHandler.ListJobs)
	}

	return r
}
