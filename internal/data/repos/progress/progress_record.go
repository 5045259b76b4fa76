package progress

import (
	"context"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/studyvoice-backend/internal/domain"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

type ListFilter struct {
	Kind  types.RecordKind
	Since *time.Time
	Until *time.Time
	Limit int
}

// ProgressRecordRepo is append-only: records are never updated or deleted.
type ProgressRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ProgressRecord) ([]*types.ProgressRecord, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, f ListFilter) ([]*types.ProgressRecord, error)
}

type progressRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	return &progressRecordRepo{db: db, log: baseLog.With("repo", "ProgressRecordRepo")}
}

func (r *progressRecordRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ProgressRecord) ([]*types.ProgressRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.ProgressRecord{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByStudent returns records oldest first. Since is inclusive, Until
// exclusive. With a Limit only the newest Limit matches are returned.
func (r *progressRecordRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, f ListFilter) ([]*types.ProgressRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var results []*types.ProgressRecord
	if studentID == "" {
		return results, nil
	}
	q := t.WithContext(ctx).Where("student_id = ?", studentID)
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Since != nil {
		q = q.Where("recorded_at >= ?", f.Since.UTC())
	}
	if f.Until != nil {
		q = q.Where("recorded_at < ?", f.Until.UTC())
	}
	if f.Limit <= 0 {
		if err := q.Order("recorded_at ASC, id ASC").Find(&results).Error; err != nil {
			return nil, err
		}
		return results, nil
	}
	// a limited page holds the newest records, still returned oldest first
	if err := q.Order("recorded_at DESC, id DESC").Limit(f.Limit).Find(&results).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}
