package narration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/studyvoice-backend/internal/domain"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

type NarrationSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.NarrationSession) (*types.NarrationSession, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.NarrationSession, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	// UpdateFieldsIfStatus applies updates only while the row is in status and
	// reports whether it did.
	UpdateFieldsIfStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.NarrationStatus, updates map[string]interface{}) (bool, error)
	// ListUnfinished returns non-terminal sessions owned by owner or not
	// updated since staleBefore.
	ListUnfinished(ctx context.Context, tx *gorm.DB, owner string, staleBefore time.Time) ([]*types.NarrationSession, error)
}

type narrationSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNarrationSessionRepo(db *gorm.DB, baseLog *logger.Logger) NarrationSessionRepo {
	return &narrationSessionRepo{db: db, log: baseLog.With("repo", "NarrationSessionRepo")}
}

func (r *narrationSessionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.NarrationSession) (*types.NarrationSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// GetByID returns nil, nil when the session does not exist.
func (r *narrationSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.NarrationSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var row types.NarrationSession
	if err := t.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *narrationSessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.NarrationSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *narrationSessionRepo) UpdateFieldsIfStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.NarrationStatus, updates map[string]interface{}) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return false, nil
	}
	res := t.WithContext(ctx).
		Model(&types.NarrationSession{}).
		Where("id = ? AND status = ?", id, status).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *narrationSessionRepo) ListUnfinished(ctx context.Context, tx *gorm.DB, owner string, staleBefore time.Time) ([]*types.NarrationSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.NarrationSession
	err := t.WithContext(ctx).
		Where("status = ?", types.NarrationSpeaking).
		Where("owner = ? OR updated_at < ?", owner, staleBefore).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
