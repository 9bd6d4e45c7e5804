package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/callsight/callsight/internal/cache"
	"github.com/callsight/callsight/internal/models"
	pgrepo "github.com/callsight/callsight/internal/repositories/postgres"
	"github.com/callsight/callsight/internal/utils"
)

type CriteriaService interface {
	// Select resolves the active criteria applicable to an agent category.
	// nil category means every active criterion of the company.
	Select(ctx context.Context, companyID string, agentCategory *string) ([]models.Criterion, error)
	Create(ctx context.Context, c *models.Criterion) error
	Deactivate(ctx context.Context, companyID, id string) error
}

type criteriaService struct {
	repo  pgrepo.CriterionRepository
	cache cache.Cache // optional
	ttl   time.Duration
	log   *logrus.Logger
}

func NewCriteriaService(repo pgrepo.CriterionRepository, c cache.Cache, ttl time.Duration, log *logrus.Logger) CriteriaService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &criteriaService{repo: repo, cache: c, ttl: ttl, log: log}
}

func normalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func criteriaCacheKey(companyID, normCategory string) string {
	return "criteria:" + companyID + ":" + normCategory
}

func (s *criteriaService) Select(ctx context.Context, companyID string, agentCategory *string) ([]models.Criterion, error) {
	const op = "CriteriaService.Select"

	if companyID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "company_id is required", nil)
	}

	norm := "*"
	if agentCategory != nil {
		if n := normalizeCategory(*agentCategory); n != "" {
			norm = n
		}
	}

	key := criteriaCacheKey(companyID, norm)
	if s.cache != nil {
		var cached []models.Criterion
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	var (
		rows []models.Criterion
		err  error
	)
	if norm == "*" {
		rows, err = s.repo.ListActive(ctx, companyID)
	} else {
		rows, err = s.repo.ListActiveForCategory(ctx, companyID, norm)
	}
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "criteria store unreachable",
			fmt.Errorf("%w: %v", utils.ErrStoreUnavailable, err))
	}

	if s.cache != nil {
		if cerr := s.cache.SetJSON(ctx, key, rows, s.ttl); cerr != nil {
			s.log.WithError(cerr).Debug("criteria cache write skipped")
		}
	}
	return rows, nil
}

func (s *criteriaService) Create(ctx context.Context, c *models.Criterion) error {
	const op = "CriteriaService.Create"

	if c.CompanyID == "" || strings.TrimSpace(c.Name) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "company_id and name are required", nil)
	}
	if c.Weight <= 0 {
		return utils.E(utils.CodeInvalidArgument, op, "weight must be positive", nil)
	}
	if strings.TrimSpace(c.Category) == "" {
		c.Category = models.CategoryAll
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.IsActive = true
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, c); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to insert criterion", err)
	}
	s.invalidate(ctx, c.CompanyID, c.Category)
	return nil
}

func (s *criteriaService) Deactivate(ctx context.Context, companyID, id string) error {
	const op = "CriteriaService.Deactivate"

	if companyID == "" || id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "company_id and id are required", nil)
	}
	if err := s.repo.Deactivate(ctx, companyID, id); err != nil {
		if err == utils.ErrNotFound {
			return utils.E(utils.CodeNotFound, op, "criterion not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to deactivate criterion", err)
	}
	// The exact category is unknown here; drop the wildcard entry and let the
	// per-category entries age out within the TTL.
	s.invalidate(ctx, companyID, "")
	return nil
}

func (s *criteriaService) invalidate(ctx context.Context, companyID, category string) {
	if s.cache == nil {
		return
	}
	keys := []string{criteriaCacheKey(companyID, "*")}
	if n := normalizeCategory(category); n != "" {
		keys = append(keys, criteriaCacheKey(companyID, n))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.WithError(err).Debug("criteria cache invalidation skipped")
	}
}
