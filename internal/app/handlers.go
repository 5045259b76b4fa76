package app

import (
	"gorm.io/gorm"

	apphttp "github.com/yungbote/studyvoice-backend/internal/http"
	httpH "github.com/yungbote/studyvoice-backend/internal/http/handlers"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/realtime"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Profile   *httpH.ProfileHandler
	Text      *httpH.TextHandler
	Narration *httpH.NarrationHandler
	Progress  *httpH.ProgressHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Profile:   httpH.NewProfileHandler(services.Text),
		Text:      httpH.NewTextHandler(services.Text, services.Export),
		Narration: httpH.NewNarrationHandler(log, services.Narration, sseHub),
		Progress:  httpH.NewProgressHandler(services.Progress),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers) *apphttp.Server {
	return apphttp.NewServer(":"+cfg.Port, apphttp.RouterConfig{
		Log:              log,
		ServiceName:      cfg.ServiceName,
		AllowedOrigins:   cfg.AllowedOrigins,
		HealthHandler:    handlers.Health,
		ProfileHandler:   handlers.Profile,
		TextHandler:      handlers.Text,
		NarrationHandler: handlers.Narration,
		ProgressHandler:  handlers.Progress,
	})
}
