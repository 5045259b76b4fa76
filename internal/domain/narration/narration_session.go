package narration

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	StatusSpeaking SessionStatus = "speaking"
	StatusDone     SessionStatus = "done"
	StatusStopped  SessionStatus = "stopped"
	StatusFailed   SessionStatus = "failed"
)

func (s SessionStatus) Terminal() bool {
	return s == StatusDone || s == StatusStopped || s == StatusFailed
}

type NarrationSession struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Status       SessionStatus  `gorm:"column:status;not null;index" json:"status"`
	Owner        string         `gorm:"column:owner;index" json:"-"`
	Profile      string         `gorm:"column:profile;not null" json:"profile"`
	Language     string         `gorm:"column:language" json:"language,omitempty"`
	Voice        string         `gorm:"column:voice" json:"voice,omitempty"`
	Pitch        float64        `gorm:"column:pitch" json:"pitch"`
	Rate         float64        `gorm:"column:rate" json:"rate"`
	ChunkCount   int            `gorm:"column:chunk_count;not null" json:"chunk_count"`
	CurrentChunk int            `gorm:"column:current_chunk;not null" json:"current_chunk"`
	Chunks       datatypes.JSON `gorm:"column:chunks" json:"chunks"`
	AudioURLs    datatypes.JSON `gorm:"column:audio_urls" json:"audio_urls,omitempty"`
	Error        string         `gorm:"column:error" json:"error,omitempty"`
	FinishedAt   *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (NarrationSession) TableName() string { return "narration_session" }

func (s *NarrationSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
