package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/ManuelReschke/SubTrackr/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// catalogRepository implements the CatalogRepository interface
type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository instance
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// Transaction binds a writer to one transaction.
func (r *catalogRepository) Transaction(ctx context.Context, fn func(tx CatalogWriter) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&catalogRepository{db: tx})
	})
}

// UpsertCategory inserts the category or refreshes its display name, keyed by
// the normalized name.
func (r *catalogRepository) UpsertCategory(ctx context.Context, name string) (*models.Category, error) {
	key := models.NaturalKey(name)
	if key == "" {
		return nil, errors.New("category name is required")
	}

	cat := &models.Category{Name: strings.TrimSpace(name), NameKey: key}
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(cat).Error; err != nil {
		return nil, err
	}

	// Ensure ID is populated after upsert.
	var stored models.Category
	if err := db.Where("name_key = ?", key).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpsertService inserts the service or moves it to categoryID, keyed by the
// normalized name.
func (r *catalogRepository) UpsertService(ctx context.Context, name string, categoryID uint) (*models.Service, error) {
	key := models.NaturalKey(name)
	if key == "" {
		return nil, errors.New("service name is required")
	}
	if categoryID == 0 {
		return nil, errors.New("category id is required")
	}

	svc := &models.Service{Name: strings.TrimSpace(name), NameKey: key, CategoryID: categoryID}
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category_id", "updated_at"}),
	}).Create(svc).Error; err != nil {
		return nil, err
	}

	var stored models.Service
	if err := db.Where("name_key = ?", key).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpsertPlan inserts the plan or overwrites every feed-owned column, keyed by
// the external id.
func (r *catalogRepository) UpsertPlan(ctx context.Context, plan *models.Plan) error {
	if strings.TrimSpace(plan.ExternalID) == "" {
		return errors.New("plan external id is required")
	}
	if plan.ServiceID == 0 {
		return errors.New("service id is required")
	}

	return r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"service_id",
			"name",
			"base_price",
			"currency",
			"billing_frequency",
			"features",
			"trial_available",
			"country",
			"feed_position",
			"last_synced_at",
		}),
	}).Create(plan).Error
}

// GetPlan retrieves a plan with its service and category
func (r *catalogRepository) GetPlan(ctx context.Context, externalID string) (*models.Plan, error) {
	var plan models.Plan
	err := r.withHierarchy(ctx).Where("external_id = ?", externalID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// SearchPlans matches plan names case-insensitively, in feed order
func (r *catalogRepository) SearchPlans(ctx context.Context, query string, limit int) ([]models.Plan, error) {
	var plans []models.Plan
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := r.withHierarchy(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '!'", pattern).
		Order("feed_position ASC").Order("external_id ASC").
		Limit(limit).
		Find(&plans).Error
	return plans, err
}

// ListPlansByFeedOrder returns the first plans of the last synced feed.
// Plans that dropped out of the feed keep an older last_synced_at and sort
// after the current ones.
func (r *catalogRepository) ListPlansByFeedOrder(ctx context.Context, limit int) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.withHierarchy(ctx).
		Order("last_synced_at DESC").Order("feed_position ASC").Order("external_id ASC").
		Limit(limit).
		Find(&plans).Error
	return plans, err
}

// ListPlansByPrice returns every plan that has a service and category,
// cheapest first, optionally restricted to one category name.
func (r *catalogRepository) ListPlansByPrice(ctx context.Context, category string) ([]models.Plan, error) {
	var plans []models.Plan
	q := r.withHierarchy(ctx).
		Joins("JOIN catalog_services ON catalog_services.id = catalog_plans.service_id").
		Joins("JOIN catalog_categories ON catalog_categories.id = catalog_services.category_id")
	if category != "" {
		q = q.Where("catalog_categories.name = ?", category)
	}
	err := q.Order("catalog_plans.base_price ASC").Order("catalog_plans.feed_position ASC").Find(&plans).Error
	return plans, err
}

// ListCategoryNames returns the names of categories that own at least one plan
func (r *catalogRepository) ListCategoryNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Joins("JOIN catalog_services ON catalog_services.category_id = catalog_categories.id").
		Joins("JOIN catalog_plans ON catalog_plans.service_id = catalog_services.id").
		Distinct("catalog_categories.name").
		Order("catalog_categories.name ASC").
		Pluck("catalog_categories.name", &names).Error
	return names, err
}

// Counts returns the number of rows per catalog table
func (r *catalogRepository) Counts(ctx context.Context) (*CatalogCounts, error) {
	db := r.db.WithContext(ctx)
	counts := &CatalogCounts{}
	if err := db.Model(&models.Category{}).Count(&counts.Categories).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Service{}).Count(&counts.Services).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Plan{}).Count(&counts.Plans).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *catalogRepository) withHierarchy(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Plan{}).Preload("Service.Category")
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
