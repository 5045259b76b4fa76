package domain

import (
	"github.com/yungbote/studyvoice-backend/internal/domain/narration"
	"github.com/yungbote/studyvoice-backend/internal/domain/progress"
)

type ProgressRecord = progress.ProgressRecord
type RecordKind = progress.RecordKind

const (
	KindQuizResult      = progress.KindQuizResult
	KindContentActivity = progress.KindContentActivity
	KindExamScan        = progress.KindExamScan
	KindTeacherUpload   = progress.KindTeacherUpload
)

type NarrationSession = narration.NarrationSession
type NarrationStatus = narration.SessionStatus

const (
	NarrationSpeaking = narration.StatusSpeaking
	NarrationDone     = narration.StatusDone
	NarrationStopped  = narration.StatusStopped
	NarrationFailed   = narration.StatusFailed
)

// Models lists every table the service migrates.
func Models() []interface{} {
	return []interface{}{
		&ProgressRecord{},
		&NarrationSession{},
	}
}
