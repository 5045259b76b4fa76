package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/studyvoice-backend/internal/http/handlers"
	httpMW "github.com/yungbote/studyvoice-backend/internal/http/middleware"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	HealthHandler    *httpH.HealthHandler
	ProfileHandler   *httpH.ProfileHandler
	TextHandler      *httpH.TextHandler
	NarrationHandler *httpH.NarrationHandler
	ProgressHandler  *httpH.ProgressHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Normalization profiles
		if cfg.ProfileHandler != nil {
			api.GET("/profiles", cfg.ProfileHandler.ListProfiles)
		}

		// Text
		if cfg.TextHandler != nil {
			api.POST("/text/normalize", cfg.TextHandler.Normalize)
			api.POST("/text/chunks", cfg.TextHandler.Chunks)
			api.POST("/exports/html", cfg.TextHandler.ExportHTML)
		}

		// Narration
		if cfg.NarrationHandler != nil {
			api.POST("/narrations", cfg.NarrationHandler.StartNarration)
			api.GET("/narrations/:id", cfg.NarrationHandler.GetNarration)
			api.POST("/narrations/:id/stop", cfg.NarrationHandler.StopNarration)
			api.GET("/narrations/:id/events", cfg.NarrationHandler.NarrationEvents)
		}

		// Progress
		if cfg.ProgressHandler != nil {
			api.POST("/students/:student_id/progress", cfg.ProgressHandler.RecordProgress)
			api.GET("/students/:student_id/progress", cfg.ProgressHandler.ListProgress)
		}
	}

	return r
}
