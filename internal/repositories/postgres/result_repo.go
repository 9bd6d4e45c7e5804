package postgres

import (
	"context"

	"github.com/callsight/callsight/internal/models"
	"gorm.io/gorm"
)

type ResultRepository interface {
	BulkInsert(ctx context.Context, results []models.CallCriterionResult) error
	ListByCall(ctx context.Context, callID string) ([]models.CallCriterionResult, error)
	DeleteByCallIDs(ctx context.Context, callIDs []string) error
}

type resultRepo struct {
	db *gorm.DB
}

func NewResultRepo(db *gorm.DB) ResultRepository {
	return &resultRepo{db: db}
}

func (r *resultRepo) BulkInsert(ctx context.Context, results []models.CallCriterionResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&results).Error
}

func (r *resultRepo) ListByCall(ctx context.Context, callID string) ([]models.CallCriterionResult, error) {
	var rows []models.CallCriterionResult
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Find(&rows).Error
	return rows, err
}

func (r *resultRepo) DeleteByCallIDs(ctx context.Context, callIDs []string) error {
	if len(callIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("call_id IN ?", callIDs).
		Delete(&models.CallCriterionResult{}).Error
}
