package postgres

import (
	"context"
	"errors"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/utils"
	"gorm.io/gorm"
)

type AgentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Agent, error)
}

type agentRepo struct {
	db *gorm.DB
}

func NewAgentRepo(db *gorm.DB) AgentRepository {
	return &agentRepo{db: db}
}

func (r *agentRepo) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	var row models.Agent
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}
