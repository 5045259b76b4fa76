package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/studyvoice-backend/internal/data/repos/narration"
	"github.com/yungbote/studyvoice-backend/internal/data/repos/progress"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

type ProgressRecordRepo = progress.ProgressRecordRepo
type ProgressListFilter = progress.ListFilter
type NarrationSessionRepo = narration.NarrationSessionRepo

type Repos struct {
	ProgressRecord   ProgressRecordRepo
	NarrationSession NarrationSessionRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		ProgressRecord:   progress.NewProgressRecordRepo(db, log),
		NarrationSession: narration.NewNarrationSessionRepo(db, log),
	}
}
