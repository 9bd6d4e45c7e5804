package postgres

import (
	"context"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/utils"
	"gorm.io/gorm"
)

type AlertRepository interface {
	Insert(ctx context.Context, a *models.Alert) error
	ListByCall(ctx context.Context, callID string) ([]models.Alert, error)
	ListByCompany(ctx context.Context, companyID string, onlyUnread bool, limit int) ([]models.Alert, error)
	MarkRead(ctx context.Context, companyID, id string) error
	DeleteByCallIDs(ctx context.Context, callIDs []string) error
}

type alertRepo struct {
	db *gorm.DB
}

func NewAlertRepo(db *gorm.DB) AlertRepository {
	return &alertRepo{db: db}
}

func (r *alertRepo) Insert(ctx context.Context, a *models.Alert) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *alertRepo) ListByCall(ctx context.Context, callID string) ([]models.Alert, error) {
	var rows []models.Alert
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *alertRepo) ListByCompany(ctx context.Context, companyID string, onlyUnread bool, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if onlyUnread {
		q = q.Where("is_read = ?", false)
	}
	var rows []models.Alert
	err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *alertRepo) MarkRead(ctx context.Context, companyID, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *alertRepo) DeleteByCallIDs(ctx context.Context, callIDs []string) error {
	if len(callIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("call_id IN ?", callIDs).
		Delete(&models.Alert{}).Error
}
