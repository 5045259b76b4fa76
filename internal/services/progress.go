package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studyvoice-backend/internal/data/repos"
	types "github.com/yungbote/studyvoice-backend/internal/domain"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

type ProgressInput struct {
	Kind       string          `json:"kind"`
	Subject    string          `json:"subject"`
	Chapter    string          `json:"chapter"`
	Title      string          `json:"title"`
	Score      *float64        `json:"score"`
	Total      *float64        `json:"total"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt *time.Time      `json:"recorded_at"`
}

type ProgressQuery struct {
	Kind  string
	Since *time.Time
	Until *time.Time
	Limit int
}

// ProgressService appends to and reads a student's history. There is no
// update or delete path.
type ProgressService interface {
	Record(ctx context.Context, studentID string, in ProgressInput) (*types.ProgressRecord, error)
	List(ctx context.Context, studentID string, q ProgressQuery) ([]*types.ProgressRecord, error)
}

type progressService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.ProgressRecordRepo
	now  func() time.Time
}

func NewProgressService(db *gorm.DB, log *logger.Logger, repo repos.ProgressRecordRepo) ProgressService {
	return &progressService{
		db:   db,
		log:  log.With("service", "ProgressService"),
		repo: repo,
		now:  time.Now,
	}
}

func (s *progressService) Record(ctx context.Context, studentID string, in ProgressInput) (*types.ProgressRecord, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrStudentIDRequired
	}
	kind := types.RecordKind(strings.ToLower(strings.TrimSpace(in.Kind)))
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecordKind, in.Kind)
	}
	if (in.Score != nil && *in.Score < 0) || (in.Total != nil && *in.Total < 0) {
		return nil, ErrInvalidScore
	}
	recordedAt := s.now().UTC()
	if in.RecordedAt != nil && !in.RecordedAt.IsZero() {
		recordedAt = in.RecordedAt.UTC()
	}
	row := &types.ProgressRecord{
		StudentID:  studentID,
		Kind:       kind,
		Subject:    strings.TrimSpace(in.Subject),
		Chapter:    strings.TrimSpace(in.Chapter),
		Title:      strings.TrimSpace(in.Title),
		Score:      in.Score,
		Total:      in.Total,
		RecordedAt: recordedAt,
	}
	if len(in.Payload) > 0 && string(in.Payload) != "null" {
		row.Payload = datatypes.JSON(in.Payload)
	}

	if _, err := s.repo.Create(ctx, s.db, []*types.ProgressRecord{row}); err != nil {
		return nil, fmt.Errorf("create progress record: %w", err)
	}
	s.log.Debug("progress recorded", "student_id", studentID, "kind", kind, "record_id", row.ID)
	return row, nil
}

func (s *progressService) List(ctx context.Context, studentID string, q ProgressQuery) ([]*types.ProgressRecord, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrStudentIDRequired
	}
	f := repos.ProgressListFilter{Since: q.Since, Until: q.Until, Limit: q.Limit}
	if k := strings.TrimSpace(q.Kind); k != "" {
		f.Kind = types.RecordKind(strings.ToLower(k))
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRecordKind, q.Kind)
		}
	}
	if q.Since != nil && q.Until != nil && !q.Since.Before(*q.Until) {
		return nil, ErrInvalidTimeWindow
	}
	rows, err := s.repo.ListByStudent(ctx, s.db, studentID, f)
	if err != nil {
		return nil, fmt.Errorf("list progress records: %w", err)
	}
	return rows, nil
}
