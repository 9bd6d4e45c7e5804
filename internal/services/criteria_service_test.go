package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/utils"
)

// fakeCriterionRepo filters in memory the way the SQL layer does.
type fakeCriterionRepo struct {
	rows []models.Criterion
	down bool
}

func (f *fakeCriterionRepo) Insert(_ context.Context, c *models.Criterion) error {
	if f.down {
		return errors.New("connection refused")
	}
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeCriterionRepo) ListActive(_ context.Context, companyID string) ([]models.Criterion, error) {
	if f.down {
		return nil, errors.New("connection refused")
	}
	var out []models.Criterion
	for _, c := range f.rows {
		if c.CompanyID == companyID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCriterionRepo) ListActiveForCategory(_ context.Context, companyID, category string) ([]models.Criterion, error) {
	if f.down {
		return nil, errors.New("connection refused")
	}
	norm := strings.ToLower(strings.TrimSpace(category))
	var out []models.Criterion
	for _, c := range f.rows {
		lc := strings.ToLower(c.Category)
		if c.CompanyID == companyID && c.IsActive && (lc == norm || lc == models.CategoryAll) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCriterionRepo) Deactivate(_ context.Context, companyID, id string) error {
	if f.down {
		return errors.New("connection refused")
	}
	for i, c := range f.rows {
		if c.CompanyID == companyID && c.ID == id {
			f.rows[i].IsActive = false
			return nil
		}
	}
	return utils.ErrNotFound
}

func seedCriteria() *fakeCriterionRepo {
	return &fakeCriterionRepo{rows: []models.Criterion{
		{ID: "c1", CompanyID: "co-1", Name: "Greeting", Weight: 1, Category: "all", IsActive: true},
		{ID: "c2", CompanyID: "co-1", Name: "Ticket handling", Weight: 2, Category: "Suporte", IsActive: true},
		{ID: "c3", CompanyID: "co-1", Name: "Upsell attempt", Weight: 1, Category: "vendas", IsActive: true},
		{ID: "c4", CompanyID: "co-1", Name: "Old rule", Weight: 1, Category: "all", IsActive: false},
		{ID: "c5", CompanyID: "co-2", Name: "Other company", Weight: 1, Category: "all", IsActive: true},
	}}
}

func criterionIDs(rows []models.Criterion) []string {
	out := make([]string, len(rows))
	for i, c := range rows {
		out[i] = c.ID
	}
	return out
}

func TestSelectMatchesCategoryCaseInsensitively(t *testing.T) {
	svc := NewCriteriaService(seedCriteria(), nil, time.Minute, testLogger())

	for _, category := range []string{"suporte", "SUPORTE", "  Suporte  "} {
		c := category
		rows, err := svc.Select(context.Background(), "co-1", &c)
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "c2"}, criterionIDs(rows), "category %q", category)
	}
}

func TestSelectNilCategoryReturnsAllActive(t *testing.T) {
	svc := NewCriteriaService(seedCriteria(), nil, time.Minute, testLogger())

	rows, err := svc.Select(context.Background(), "co-1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, criterionIDs(rows))
}

func TestSelectUnknownCategoryStillGetsAllSentinel(t *testing.T) {
	svc := NewCriteriaService(seedCriteria(), nil, time.Minute, testLogger())

	category := "financeiro"
	rows, err := svc.Select(context.Background(), "co-1", &category)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, criterionIDs(rows))
}

func TestSelectStoreDown(t *testing.T) {
	svc := NewCriteriaService(&fakeCriterionRepo{down: true}, nil, time.Minute, testLogger())

	_, err := svc.Select(context.Background(), "co-1", nil)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
	assert.ErrorIs(t, err, utils.ErrStoreUnavailable)
}

func TestCreateDefaults(t *testing.T) {
	repo := seedCriteria()
	svc := NewCriteriaService(repo, nil, time.Minute, testLogger())

	c := &models.Criterion{CompanyID: "co-1", Name: "Closing", Weight: 1}
	require.NoError(t, svc.Create(context.Background(), c))

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, models.CategoryAll, c.Category)
	assert.True(t, c.IsActive)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestCreateRejectsNonPositiveWeight(t *testing.T) {
	svc := NewCriteriaService(seedCriteria(), nil, time.Minute, testLogger())

	err := svc.Create(context.Background(), &models.Criterion{CompanyID: "co-1", Name: "Bad", Weight: 0})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestDeactivateMissingCriterion(t *testing.T) {
	svc := NewCriteriaService(seedCriteria(), nil, time.Minute, testLogger())

	err := svc.Deactivate(context.Background(), "co-1", "nope")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestDeactivateRemovesFromSelection(t *testing.T) {
	repo := seedCriteria()
	svc := NewCriteriaService(repo, nil, time.Minute, testLogger())

	require.NoError(t, svc.Deactivate(context.Background(), "co-1", "c2"))

	category := "suporte"
	rows, err := svc.Select(context.Background(), "co-1", &category)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, criterionIDs(rows))
}
