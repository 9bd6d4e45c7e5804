package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/utils"
	"gorm.io/gorm"
)

type CallRepository interface {
	Insert(ctx context.Context, call *models.Call) error
	GetByID(ctx context.Context, id string) (*models.Call, error)
	GetByExternalID(ctx context.Context, companyID, externalID string) (*models.Call, error)
	UpdateAnalysis(ctx context.Context, call *models.Call) error
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]models.Call, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type callRepo struct {
	db *gorm.DB
}

func NewCallRepo(db *gorm.DB) CallRepository {
	return &callRepo{db: db}
}

func (r *callRepo) Insert(ctx context.Context, call *models.Call) error {
	err := r.db.WithContext(ctx).Create(call).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrAlreadyProcessed
	}
	return err
}

func (r *callRepo) GetByID(ctx context.Context, id string) (*models.Call, error) {
	var row models.Call
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *callRepo) GetByExternalID(ctx context.Context, companyID, externalID string) (*models.Call, error) {
	var row models.Call
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND external_call_id = ?", companyID, externalID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

// UpdateAnalysis writes the post-pipeline fields onto an existing row.
func (r *callRepo) UpdateAnalysis(ctx context.Context, call *models.Call) error {
	return r.db.WithContext(ctx).
		Model(&models.Call{}).
		Where("id = ?", call.ID).
		Select("transcript", "transcript_segments", "summary", "next_step",
			"final_score", "score_justification", "what_went_well",
			"what_went_wrong", "risk_words", "provider_metadata",
			"audio_reference", "processed_at").
		Updates(call).Error
}

func (r *callRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]models.Call, error) {
	var rows []models.Call
	err := r.db.WithContext(ctx).
		Where("call_date < ?", cutoff).
		Order("call_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *callRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Call{})
	return res.RowsAffected, res.Error
}
