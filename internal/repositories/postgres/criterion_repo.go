package postgres

import (
	"context"
	"strings"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/utils"
	"gorm.io/gorm"
)

type CriterionRepository interface {
	Insert(ctx context.Context, c *models.Criterion) error
	ListActive(ctx context.Context, companyID string) ([]models.Criterion, error)
	ListActiveForCategory(ctx context.Context, companyID, category string) ([]models.Criterion, error)
	Deactivate(ctx context.Context, companyID, id string) error
}

type criterionRepo struct {
	db *gorm.DB
}

func NewCriterionRepo(db *gorm.DB) CriterionRepository {
	return &criterionRepo{db: db}
}

func (r *criterionRepo) Insert(ctx context.Context, c *models.Criterion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *criterionRepo) ListActive(ctx context.Context, companyID string) ([]models.Criterion, error) {
	var rows []models.Criterion
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListActiveForCategory matches the agent category case-insensitively and
// always includes criteria tagged with the "all" sentinel.
func (r *criterionRepo) ListActiveForCategory(ctx context.Context, companyID, category string) ([]models.Criterion, error) {
	var rows []models.Criterion
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ? AND (LOWER(category) = ? OR LOWER(category) = ?)",
			companyID, true, strings.ToLower(strings.TrimSpace(category)), models.CategoryAll).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *criterionRepo) Deactivate(ctx context.Context, companyID, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Criterion{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
