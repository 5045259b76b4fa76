package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecordKind string

const (
	KindQuizResult      RecordKind = "quiz_result"
	KindContentActivity RecordKind = "content_activity"
	KindExamScan        RecordKind = "exam_scan"
	KindTeacherUpload   RecordKind = "teacher_upload"
)

func (k RecordKind) Valid() bool {
	switch k {
	case KindQuizResult, KindContentActivity, KindExamScan, KindTeacherUpload:
		return true
	}
	return false
}

// ProgressRecord is an append-only entry in a student's history.
type ProgressRecord struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID  string         `gorm:"column:student_id;not null;index:idx_progress_student_time,priority:1" json:"student_id"`
	Kind       RecordKind     `gorm:"column:kind;not null;index" json:"kind"`
	Subject    string         `gorm:"column:subject" json:"subject,omitempty"`
	Chapter    string         `gorm:"column:chapter" json:"chapter,omitempty"`
	Title      string         `gorm:"column:title" json:"title,omitempty"`
	Score      *float64       `gorm:"column:score" json:"score,omitempty"`
	Total      *float64       `gorm:"column:total" json:"total,omitempty"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	RecordedAt time.Time      `gorm:"column:recorded_at;not null;index:idx_progress_student_time,priority:2" json:"recorded_at"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (ProgressRecord) TableName() string { return "progress_record" }

func (r *ProgressRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}
	return nil
}
