package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/studyvoice-backend/internal/data/repos"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/services"
	"github.com/yungbote/studyvoice-backend/internal/textnorm"
)

type Services struct {
	Text      services.TextService
	Export    services.ExportService
	Narration services.NarrationService
	Progress  services.ProgressService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	registry := textnorm.NewRegistry()
	if cfg.ProfilesPath != "" {
		loaded, err := textnorm.LoadProfilesFile(cfg.ProfilesPath, registry)
		if err != nil {
			return Services{}, fmt.Errorf("load profiles: %w", err)
		}
		log.Info("Custom normalization profiles loaded", "path", cfg.ProfilesPath, "count", len(loaded))
	}

	var cache services.TextCache
	if clients.TextCache != nil {
		cache = clients.TextCache
	}
	text := services.NewTextService(log, registry, cache, cfg.MaxChunkSize)

	engines := services.NewLogEngineFactory(log)
	if clients.TTS != nil && clients.Audio != nil {
		engines = services.NewCloudEngineFactory(log, clients.TTS, clients.Audio)
	}

	return Services{
		Text:      text,
		Export:    services.NewExportService(text),
		Narration: services.NewNarrationService(db, log, reposet.NarrationSession, text, engines, clients.SSEBus,
			services.WithNarrationOwner(cfg.InstanceID),
			services.WithNarrationStaleAfter(cfg.NarrationStaleAfter),
		),
		Progress:  services.NewProgressService(db, log, reposet.ProgressRecord),
	}, nil
}
